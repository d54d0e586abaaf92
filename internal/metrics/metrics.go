// Package metrics exposes Prometheus collectors for the sniper.
package metrics

import (
	"net/http"

	"github.com/aman-zulfiqar/raydium-sniper/internal/constants"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the bot.
type Metrics struct {
	registry *prometheus.Registry

	// Stream metrics
	EventsReceived   *prometheus.CounterVec
	EventsDropped    *prometheus.CounterVec
	StreamReconnects *prometheus.CounterVec

	// Discovery metrics
	PoolsDetected prometheus.Counter
	PoolsStale    prometheus.Counter
	MarketsCached prometheus.Gauge
	FilterChecks  *prometheus.CounterVec

	// Trading metrics
	Submissions       *prometheus.CounterVec
	SubmissionLatency *prometheus.HistogramVec
	Positions         *prometheus.GaugeVec
	PositionOutcomes  *prometheus.CounterVec
	PriceChange       prometheus.Histogram
}

// New creates a Metrics instance registered on its own registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = constants.MetricsNamespace
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		EventsReceived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "events_received_total",
			Help:      "Account updates received, by stream",
		}, []string{"kind"}),
		EventsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "events_dropped_total",
			Help:      "Account updates dropped by the dispatcher, by reason",
		}, []string{"reason"}),
		StreamReconnects: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "reconnects_total",
			Help:      "Websocket reconnects, by stream",
		}, []string{"kind"}),

		PoolsDetected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "pools_detected_total",
			Help:      "New pools admitted to the buy pipeline",
		}),
		PoolsStale: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "pools_stale_total",
			Help:      "Pools ignored because they opened before startup",
		}),
		MarketsCached: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "markets_cached",
			Help:      "Markets held in the market cache",
		}),
		FilterChecks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "filter_checks_total",
			Help:      "Filter chain evaluations, by result",
		}, []string{"result"}),

		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "submissions_total",
			Help:      "Transaction submissions, by side, executor and status",
		}, []string{"side", "executor", "status"}),
		SubmissionLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "submission_seconds",
			Help:      "Time from submission to outcome",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60, 100},
		}, []string{"side", "executor"}),
		Positions: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "positions",
			Help:      "Tracked positions, by state",
		}, []string{"state"}),
		PositionOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "position_outcomes_total",
			Help:      "Positions reaching a terminal state, by state and reason",
		}, []string{"state", "reason"}),
		PriceChange: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "exit_price_change_percent",
			Help:      "Price change versus entry at the moment an exit was triggered",
			Buckets:   []float64{-80, -50, -20, -10, 0, 10, 20, 50, 100, 200, 500},
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry for tests and custom exporters.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
