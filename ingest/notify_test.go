package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func webhookServer(t *testing.T, status int) (*httptest.Server, *[]Summary) {
	t.Helper()
	var received []Summary
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var s Summary
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&s)) {
			received = append(received, s)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &received
}

func TestWebhookNotifier(t *testing.T) {
	srv, received := webhookServer(t, http.StatusNoContent)
	summary := Summary{RunID: "run-7", NewCount: 3, Skipped: 1, Status: StatusSuccess}

	require.NoError(t, NewWebhookNotifier(srv.URL).Notify(context.Background(), summary))
	require.Len(t, *received, 1)
	assert.Equal(t, summary, (*received)[0])
}

func TestWebhookNotifierServerError(t *testing.T) {
	srv, received := webhookServer(t, http.StatusInternalServerError)
	err := NewWebhookNotifier(srv.URL).Notify(context.Background(), Summary{RunID: "run-8", Status: StatusFailure, Detail: "boom"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	require.Len(t, *received, 1)
	assert.Equal(t, "boom", (*received)[0].Detail)
}

type failingNotifier struct {
	calls int
}

func (n *failingNotifier) Notify(context.Context, Summary) error {
	n.calls++
	return errors.New("unreachable")
}

func TestNotifiersCallsEveryNotifier(t *testing.T) {
	srv, received := webhookServer(t, http.StatusInternalServerError)
	core, logs := observer.New(zap.InfoLevel)
	first := &failingNotifier{}
	last := &recordingNotifier{}
	ns := Notifiers{first, NewWebhookNotifier(srv.URL), NewLogNotifier(zap.New(core)), last}

	summary := Summary{RunID: "run-9", NewCount: 1, Status: StatusSuccess}
	err := ns.Notify(context.Background(), summary)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
	assert.Contains(t, err.Error(), "500")

	assert.Equal(t, 1, first.calls)
	require.Len(t, *received, 1)
	assert.Equal(t, 1, (*received)[0].NewCount)
	assert.Equal(t, "run-9", (*received)[0].RunID)
	assert.Equal(t, 1, logs.FilterMessage("ingestion finished").Len())
	assert.Equal(t, []Summary{summary}, last.summaries)
}

func TestLogNotifierWithoutLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.NoError(t, NewLogNotifier(nil).Notify(context.Background(), Summary{Status: StatusSuccess}))
	})
}
