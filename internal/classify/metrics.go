package classify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for classification sessions.
//
// Metrics:
//   - handclass_decisions_total{label} - rows written per label
//   - handclass_write_failures_total - rows the sink rejected
//   - handclass_display_failures_total - items the provider could not show
//   - handclass_fallback_fetches_total{result} - fallback fetches by result (ok, error)
//   - handclass_items_remaining - items left in the running session
//   - handclass_decision_seconds - time from display to decision
type Metrics struct {
	DecisionsTotal       *prometheus.CounterVec
	WriteFailuresTotal   prometheus.Counter
	DisplayFailuresTotal prometheus.Counter
	FallbackFetchesTotal *prometheus.CounterVec
	ItemsRemaining       prometheus.Gauge
	DecisionDuration     prometheus.Histogram
}

// NewMetrics creates the metrics and registers them with reg. A nil reg
// leaves them unregistered, which tests use to avoid global state.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "handclass_decisions_total",
				Help: "Total number of result rows written, by label",
			},
			[]string{"label"},
		),
		WriteFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "handclass_write_failures_total",
			Help: "Total number of result rows the sink failed to write",
		}),
		DisplayFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "handclass_display_failures_total",
			Help: "Total number of items whose content could not be displayed",
		}),
		FallbackFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "handclass_fallback_fetches_total",
				Help: "Total number of fallback content fetches, by result",
			},
			[]string{"result"},
		),
		ItemsRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "handclass_items_remaining",
			Help: "Items not yet classified in the running session",
		}),
		DecisionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "handclass_decision_seconds",
			Help:    "Time between an item being displayed and its label being chosen",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.DecisionsTotal,
			m.WriteFailuresTotal,
			m.DisplayFailuresTotal,
			m.FallbackFetchesTotal,
			m.ItemsRemaining,
			m.DecisionDuration,
		)
	}
	return m
}

func (m *Metrics) recordDecision(label string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.DecisionsTotal.WithLabelValues(label).Inc()
	m.DecisionDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) recordWriteFailure() {
	if m == nil {
		return
	}
	m.WriteFailuresTotal.Inc()
}

func (m *Metrics) recordDisplayFailure() {
	if m == nil {
		return
	}
	m.DisplayFailuresTotal.Inc()
}

func (m *Metrics) recordFallback(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.FallbackFetchesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) setRemaining(n int) {
	if m == nil {
		return
	}
	m.ItemsRemaining.Set(float64(n))
}
