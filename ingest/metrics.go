package ingest

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "rollcall"

// Metrics is safe to use as a nil pointer.
type Metrics struct {
	ingested      prometheus.Counter
	skipped       *prometheus.CounterVec
	fetchAttempts *prometheus.CounterVec
	runDuration   prometheus.Histogram
	lastSuccess   prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ingested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ingested_total",
			Help:      "Roll calls committed to the store",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "skipped_total",
			Help:      "Candidates skipped, by reason",
		}, []string{"reason"}),
		fetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fetch_attempts_total",
			Help:      "HTTP fetch attempts, by response status",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of ingestion runs",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ingested, m.skipped, m.fetchAttempts, m.runDuration, m.lastSuccess)
	}
	return m
}

func (m *Metrics) Ingested() {
	if m == nil {
		return
	}
	m.ingested.Inc()
}

func (m *Metrics) Skipped(reason string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(reason).Inc()
}

// FetchAttempt is shaped for scraper.WithAttemptObserver.
func (m *Metrics) FetchAttempt(statusCode int) {
	if m == nil {
		return
	}
	label := "error"
	if statusCode > 0 {
		label = strconv.Itoa(statusCode)
	}
	m.fetchAttempts.WithLabelValues(label).Inc()
}

func (m *Metrics) RunFinished(seconds float64, success bool, unix float64) {
	if m == nil {
		return
	}
	m.runDuration.Observe(seconds)
	if success {
		m.lastSuccess.Set(unix)
	}
}
