package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	a := &app{}

	root := &cobra.Command{
		Use:           "api",
		Short:         "ERC-20 token data service with RPC failover",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context(), cfgPath)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "configs", "directory containing config.yaml")

	root.AddCommand(
		newServeCmd(a),
		newStatusCmd(a),
		newMetadataCmd(a),
		newBalanceCmd(a),
		newTransfersCmd(a),
	)
	return root
}
