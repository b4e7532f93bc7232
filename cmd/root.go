package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"relaybot/pkg/config"
	"relaybot/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "relaybot",
	Short: "Chat relay and command bot",
	Long:  "relaybot forwards, broadcasts and answers messages across chat conversations according to per-conversation rules.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env file is normal outside development.
		_ = godotenv.Load()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $RELAYBOT_CONFIG, ./config.{json,yaml,yml} or ./config/config.json)")
}

// loadRuntime loads config and installs the process logger.
func loadRuntime(component string, logging func(*config.LoggingConfig)) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if logging != nil {
		logging(&cfg.Logging)
	}

	appLogger, err := logger.New(cfg.Logging, logger.WithSecrets(cfg.Channels.Telegram.Token))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(appLogger)

	return cfg, slog.Default().With("component", component), nil
}
