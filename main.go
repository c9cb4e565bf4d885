package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"senate-votes/config"
	"senate-votes/database"
	"senate-votes/logging"
)

const programName = "senate-votes"

var globalFlags = struct {
	configFile string
	debug      bool
}{}

// commonRun builds the logger and opens the store for a subcommand.
func commonRun(cmd *cobra.Command) (*config.Config, *zap.Logger, *database.Store, error) {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return nil, nil, nil, fmt.Errorf("no config found in context")
	}
	level := cfg.Logging.Level
	if globalFlags.debug {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, nil, err
	}
	logger = logger.With(zap.String("component", programName))
	store, err := database.Open(database.Config{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Logger: logger,
		Debug:  globalFlags.debug,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, store, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:          programName,
		Short:        "Ingest Senate roll call votes into a relational store",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.configFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(globalFlags.configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	}

	rootCmd.AddCommand(initCommand())
	rootCmd.AddCommand(updateCommand())
	rootCmd.AddCommand(serveCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
