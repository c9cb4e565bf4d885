package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Summary is the machine readable outcome of a run. NewCount is the
// number of roll calls actually committed, also on failure.
type Summary struct {
	RunID    string `json:"run_id"`
	NewCount int    `json:"new_count"`
	Skipped  int    `json:"skipped"`
	Status   string `json:"status"`
	Detail   string `json:"detail,omitempty"`
}

// Notifier receives the summary at the end of every run.
type Notifier interface {
	Notify(ctx context.Context, summary Summary) error
}

type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, summary Summary) error {
	fields := []zap.Field{
		zap.String("run_id", summary.RunID),
		zap.Int("new_count", summary.NewCount),
		zap.Int("skipped", summary.Skipped),
		zap.String("status", summary.Status),
	}
	if summary.Detail != "" {
		fields = append(fields, zap.String("detail", summary.Detail))
	}
	n.logger.Info("ingestion finished", fields...)
	return nil
}

// WebhookNotifier POSTs the summary as JSON.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, summary Summary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Notifiers fans a summary out to several notifiers.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, summary Summary) error {
	var errs []error
	for _, n := range ns {
		if err := n.Notify(ctx, summary); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
