package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics holds all Prometheus metrics for the quoting service.
type Metrics struct {
	// Quote metrics
	QuotesServed *prometheus.CounterVec
	QuoteErrors  *prometheus.CounterVec
	QuoteLatency prometheus.Histogram

	// Stream metrics
	StreamClients prometheus.Gauge
	StreamQuotes  prometheus.Counter

	// Persistence metrics
	AuditWrites      prometheus.Counter
	AuditWriteErrors prometheus.Counter

	server *http.Server
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		QuotesServed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quoter_quotes_served_total",
				Help: "Total number of quotes served by operation and pool type",
			},
			[]string{"operation", "pool_type"},
		),
		QuoteErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quoter_quote_errors_total",
				Help: "Total number of failed quotes by reason",
			},
			[]string{"reason"},
		),
		QuoteLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "quoter_quote_latency_seconds",
				Help:    "Time to compute a single quote",
				Buckets: prometheus.ExponentialBuckets(0.00001, 2, 15), // 10us to ~320ms
			},
		),
		StreamClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "quoter_stream_clients",
				Help: "Current number of connected WebSocket clients",
			},
		),
		StreamQuotes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "quoter_stream_quotes_total",
				Help: "Total number of quotes pushed to stream clients",
			},
		),
		AuditWrites: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "quoter_audit_writes_total",
				Help: "Total number of quote audit records written",
			},
		),
		AuditWriteErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "quoter_audit_write_errors_total",
				Help: "Total number of failed quote audit writes",
			},
		),
	}

	// Register all metrics
	prometheus.MustRegister(
		m.QuotesServed,
		m.QuoteErrors,
		m.QuoteLatency,
		m.StreamClients,
		m.StreamQuotes,
		m.AuditWrites,
		m.AuditWriteErrors,
	)

	return m
}

// StartServer starts the HTTP server for Prometheus metrics.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	m.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		log.Info().Int("port", port).Str("path", path).Msg("Starting metrics server")
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Metrics server error")
		}
	}()

	return nil
}

// Shutdown gracefully stops the metrics server.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.server != nil {
		return m.server.Shutdown(ctx)
	}
	return nil
}

// RecordQuote increments the served counter and observes the latency.
func (m *Metrics) RecordQuote(operation, poolType string, d time.Duration) {
	m.QuotesServed.WithLabelValues(operation, poolType).Inc()
	m.QuoteLatency.Observe(d.Seconds())
}

// RecordQuoteError increments the error counter for the given reason.
func (m *Metrics) RecordQuoteError(reason string) {
	m.QuoteErrors.WithLabelValues(reason).Inc()
}

// SetStreamClients sets the current WebSocket client count.
func (m *Metrics) SetStreamClients(count int) {
	m.StreamClients.Set(float64(count))
}

// RecordStreamQuote increments the streamed quote counter.
func (m *Metrics) RecordStreamQuote() {
	m.StreamQuotes.Inc()
}

// RecordAuditWrite increments the audit write counter.
func (m *Metrics) RecordAuditWrite() {
	m.AuditWrites.Inc()
}

// RecordAuditWriteError increments the audit write error counter.
func (m *Metrics) RecordAuditWriteError() {
	m.AuditWriteErrors.Inc()
}
