package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"senate-votes/config"
	"senate-votes/database"
	"senate-votes/ingest"
	"senate-votes/scraper"
)

func newIngester(cfg *config.Config, logger *zap.Logger, store *database.Store, reg prometheus.Registerer) (*ingest.Ingester, error) {
	metrics := ingest.NewMetrics(reg)
	documents := scraper.NewHTTPFetcher(
		logger,
		cfg.Fetch.MaxAttempts,
		cfg.Fetch.Delay,
		scraper.WithHTTPClient(&http.Client{Timeout: cfg.Fetch.Timeout}),
		scraper.WithUserAgent(cfg.Source.UserAgent),
		scraper.WithAttemptObserver(metrics.FetchAttempt),
	)
	listings := documents.WithRetry(cfg.Fetch.ListingMaxAttempts, cfg.Fetch.ListingDelay)
	discoverer, err := scraper.NewDiscoverer(listings, cfg.Source.MenuPattern, cfg.Source.RollCallPattern, logger)
	if err != nil {
		return nil, err
	}
	notifiers := ingest.Notifiers{ingest.NewLogNotifier(logger)}
	if cfg.Notify.WebhookURL != "" {
		notifiers = append(notifiers, ingest.NewWebhookNotifier(cfg.Notify.WebhookURL))
	}
	return ingest.New(store, discoverer, documents, logger, ingest.Options{
		ListingURL:          cfg.Source.ListingURL,
		DocumentURLTemplate: cfg.Source.DocumentURLTemplate,
		RosterURL:           cfg.Source.RosterURL,
	}, ingest.WithNotifier(notifiers), ingest.WithMetrics(metrics)), nil
}

func printSummary(cmd *cobra.Command, summary ingest.Summary) {
	out, _ := json.Marshal(summary)
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
}

func updateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Ingest roll calls that are not stored yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, store, err := commonRun(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			defer store.Close()
			ing, err := newIngester(cfg, logger, store, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			summary, err := ing.Update(cmd.Context())
			printSummary(cmd, summary)
			return err
		},
	}
}

func initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Rebuild schema and roster, then ingest every roll call",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, store, err := commonRun(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			defer store.Close()
			ing, err := newIngester(cfg, logger, store, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			summary, err := ing.Initialize(cmd.Context())
			printSummary(cmd, summary)
			return err
		},
	}
}
