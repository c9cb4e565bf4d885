package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"senate-votes/handlers"
	"senate-votes/ingest"
)

func serveCommand() *cobra.Command {
	var updateInterval time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored roll calls over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, store, err := commonRun(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			defer store.Close()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			if updateInterval > 0 {
				ing, err := newIngester(cfg, logger, store, reg)
				if err != nil {
					return err
				}
				go runPeriodicUpdates(cmd.Context(), ing, updateInterval, logger)
			}
			r := handlers.NewRouter(store, logger, reg)

			logger.Info("starting server", zap.String("addr", cfg.Server.Addr))
			return r.Run(cfg.Server.Addr)
		},
	}
	cmd.Flags().DurationVar(&updateInterval, "update-interval", 0, "run an incremental update at this interval, 0 to disable")
	return cmd
}

// runPeriodicUpdates runs one update at a time; a tick that fires during
// a run is dropped by the ticker.
func runPeriodicUpdates(ctx context.Context, ing *ingest.Ingester, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := ing.Update(ctx); err != nil {
				logger.Warn("scheduled update failed", zap.Error(err))
			}
		}
	}
}
