package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors and satisfies
// command.Metrics. It is constructed once per process; all commands and
// sessions share it.
type Metrics struct {
	commandsTotal   *prometheus.CounterVec
	joinDuration    *prometheus.HistogramVec
	sessionsActive  prometheus.Gauge
	tableRows       *prometheus.GaugeVec
}

// NewMetrics registers the server's collectors against reg and returns a
// Metrics handle. Passing prometheus.NewRegistry() isolates tests from the
// global default registry; production wiring uses that default registry so
// promhttp.Handler() needs no extra plumbing.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		commandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "joinstore_commands_total",
			Help: "Commands executed, labeled by verb and result.",
		}, []string{"command", "result"}),
		joinDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "joinstore_join_duration_seconds",
			Help:    "Wall-clock duration of join operations, labeled by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "joinstore_sessions_active",
			Help: "Number of currently connected client sessions.",
		}),
		tableRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "joinstore_table_rows",
			Help: "Row count of each registry table, labeled by table name.",
		}, []string{"table"}),
	}
}

// ObserveCommand implements command.Metrics.
func (m *Metrics) ObserveCommand(verb string, ok bool) {
	result := "ok"
	if !ok {
		result = "err"
	}
	m.commandsTotal.WithLabelValues(verb, result).Inc()
}

// ObserveJoinDuration implements command.Metrics.
func (m *Metrics) ObserveJoinDuration(op string, d time.Duration) {
	m.joinDuration.WithLabelValues(op).Observe(d.Seconds())
}

// SessionOpened and SessionClosed track joinstore_sessions_active across a
// connection's lifetime; the server calls these, not the command layer.
func (m *Metrics) SessionOpened() { m.sessionsActive.Inc() }
func (m *Metrics) SessionClosed() { m.sessionsActive.Dec() }

// SetTableRows publishes a table's current row count for the given name.
// The command executor calls this after each successful INSERT and
// TRUNCATE, on a best-effort basis — it is not on any correctness-sensitive
// path.
func (m *Metrics) SetTableRows(name string, rows int) {
	m.tableRows.WithLabelValues(name).Set(float64(rows))
}

// Handler returns the HTTP handler the server exposes on the metrics
// address. It is deliberately decoupled from the main TCP listener so a
// slow or malicious scrape can never interact with the protocol hot path.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}
