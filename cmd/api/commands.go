package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fasthttp/router"
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	delivery "token-data-service/internal/adapter/delivery/http"
	handler "token-data-service/internal/adapter/handler/http"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if a.cfg.Client.ConnectOnStart {
				// The server starts either way; a failed connect is visible through /api/token/status.
				if _, err := a.tokens.Connect(ctx); err != nil {
					a.logger.Error("Initial connect failed", zap.Error(err))
				}
			}

			r := router.New()
			delivery.RegisterRoutes(r, handler.NewTokenHandler(a.tokens, a.health, a.logger), a.logger)

			server := &fasthttp.Server{
				Handler: delivery.LoggingMiddleware(a.logger, r.Handler),
				Name:    a.cfg.App.Name,
			}
			serverAddr := ":" + a.cfg.Server.Port

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("Starting HTTP server", zap.String("address", serverAddr))
				errCh <- server.ListenAndServe(serverAddr)
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("server stopped: %w", err)
			case <-ctx.Done():
				a.logger.Info("Shutting down HTTP server")
				return server.Shutdown()
			}
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Connect, then print the client status and the validation report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := a.tokens.Connect(ctx); err != nil {
				a.logger.Warn("Connect failed", zap.Error(err))
			}
			return printJSON(cmd, map[string]any{
				"status":     a.tokens.GetStatus(),
				"validation": a.tokens.Validate(ctx),
			})
		},
	}
}

func newMetadataCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "metadata",
		Short: "Print token metadata",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := connect(cmd.Context(), a); err != nil {
				return err
			}
			meta, err := a.tokens.GetTokenMetadata(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, meta)
		},
	}
}

func newBalanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "Print the token balance of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := connect(cmd.Context(), a); err != nil {
				return err
			}
			balance, err := a.tokens.GetBalance(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, balance)
		},
	}
}

func newTransfersCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "transfers",
		Short: "Print the most recent Transfer events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := connect(cmd.Context(), a); err != nil {
				return err
			}
			transfers, err := a.tokens.GetRecentTransfers(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, transfers)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of transfers")
	return cmd
}

func connect(ctx context.Context, a *app) error {
	if _, err := a.tokens.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
