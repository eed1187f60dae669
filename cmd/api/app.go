package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"token-data-service/internal/adapter/rpc"
	"token-data-service/internal/adapter/storage/chainlist"
	"token-data-service/internal/adapter/storage/memory"
	"token-data-service/internal/application"
	"token-data-service/internal/application/port"
	"token-data-service/internal/config"
	"token-data-service/internal/domain/entity"
	"token-data-service/internal/logger"
)

// app holds the wired dependencies shared by every command.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	tokens port.TokenService
	health port.EndpointHealthService
}

func (a *app) init(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration from %s: %w", cfgPath, err)
	}
	a.cfg = cfg

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	log = log.With(zap.String("app", cfg.App.Name), zap.String("version", cfg.App.Version))
	a.logger = log
	log.Info("Logger initialized", zap.Any("config", cfg.Logger))

	// --- Dependency Injection (Manual) ---
	network, err := cfg.Client.Descriptor()
	if err != nil {
		return err
	}
	network = a.withChainlist(ctx, network)
	network = network.WithEnvOverride(os.LookupEnv)

	checker := rpc.NewChecker(cfg.Checker.CheckTimeout, log)
	dialer := rpc.NewEthDialer(checker, cfg.Client.ProbeTimeout, log)
	cacheRepo := memory.NewCacheRepository(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval, log)

	a.tokens = application.NewTokenService(network, cfg.Client.ContractAddress, dialer, log, application.Options{
		ProbeTimeout: cfg.Client.ProbeTimeout,
		CallTimeout:  cfg.Client.CallTimeout,
	})
	a.health = application.NewEndpointHealthService(network, cacheRepo, checker, log, application.HealthOptions{
		CheckTimeout: cfg.Checker.CheckTimeout,
		MaxWorkers:   cfg.Checker.MaxWorkers,
		CacheTTL:     cfg.Checker.CacheTTL,
	})

	log.Info("Dependencies initialized",
		zap.String("network", network.Name),
		zap.Int64("chainId", network.ChainID),
		zap.Int("candidates", len(network.RPCCandidates)),
	)
	return nil
}

// withChainlist appends the public RPCs Chainlist lists for the network, when enabled.
// A Chainlist failure only costs the extra candidates.
func (a *app) withChainlist(ctx context.Context, network entity.NetworkDescriptor) entity.NetworkDescriptor {
	if !a.cfg.Chainlist.Enabled {
		return network
	}
	fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.Chainlist.Timeout+time.Second)
	defer cancel()

	repo := chainlist.NewRepository(a.cfg.Chainlist, a.logger)
	rpcs, err := repo.GetPublicRPCs(fetchCtx, network.ChainID)
	if err != nil {
		a.logger.Warn("Chainlist enrichment skipped", zap.Int64("chainId", network.ChainID), zap.Error(err))
		return network
	}
	return network.WithExtraCandidates(rpcs)
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
