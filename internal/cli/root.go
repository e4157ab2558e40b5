package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"dfs_go/internal/app"
)

const version = "1.0.0"

// Execute runs the root command. The failing command has already reported
// its error, so it only sets the exit code here.
func Execute(ctx context.Context) {
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	boot := app.NewBootstrap()
	var configPath string
	var logLevel string

	cmd := &cobra.Command{
		Use:          "dfsgo",
		Short:        "FanDuel MLB lineup optimizer and late-swap repair tool",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return boot.Initialize(configPath, logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (configs/config.yaml when present)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level (debug|info|warn|error)")

	cmd.AddCommand(optimizeCmd(boot), lateswapCmd(boot), poolCmd(boot))
	return cmd
}
