package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
)

var _ inventory.Metrics = (*Metrics)(nil)

// Metrics agrupa los colectores Prometheus del ledger en un registry propio.
type Metrics struct {
	registry       *prometheus.Registry
	handler        http.Handler
	transactions   *prometheus.CounterVec
	recordDuration *prometheus.HistogramVec
	conflictRetry  *prometheus.CounterVec
	driftBatches   prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	transactions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_ledger_transactions_total",
		Help: "Intentos de registrar transacciones por tipo y resultado.",
	}, []string{"type", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stock_ledger_record_duration_seconds",
		Help:    "Duración de RecordTransaction, reintentos incluidos.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_ledger_conflict_retries_total",
		Help: "Reintentos por conflicto de concurrencia sobre un lote.",
	}, []string{"type"})
	drift := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stock_ledger_drift_batches",
		Help: "Lotes cuyo stock no coincide con la suma del ledger en la última conciliación.",
	})
	registry.MustRegister(transactions, duration, retries, drift)
	registry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	return &Metrics{
		registry:       registry,
		handler:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		transactions:   transactions,
		recordDuration: duration,
		conflictRetry:  retries,
		driftBatches:   drift,
	}
}

// Handler expone /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) Registerer() prometheus.Registerer {
	return m.registry
}

func (m *Metrics) ObserveRecord(txType, outcome string, elapsed time.Duration) {
	if txType == "" {
		txType = "unknown"
	}
	m.transactions.WithLabelValues(txType, outcome).Inc()
	m.recordDuration.WithLabelValues(txType).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveConflictRetry(txType string) {
	m.conflictRetry.WithLabelValues(txType).Inc()
}

func (m *Metrics) SetDriftBatches(n int) {
	m.driftBatches.Set(float64(n))
}
