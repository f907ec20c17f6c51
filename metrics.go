package signalvec

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Operator and direction label values.
const (
	OperatorGroupByKey = "group_by_key"
	OperatorMerge      = "merge"

	DirectionIn  = "in"
	DirectionOut = "out"
)

// Metrics counts the diffs flowing through operators. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	diffs   *prometheus.CounterVec
	pending *prometheus.GaugeVec
}

// NewMetrics creates the operator metrics and registers them with reg.
// Passing a nil registerer skips registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		diffs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signalvec",
			Name:      "diffs_total",
			Help:      "Number of diffs consumed (in) and emitted (out) by operator and kind.",
		}, []string{"operator", "direction", "kind"}),
		pending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "signalvec",
			Name:      "pending_diffs",
			Help:      "Number of diffs queued inside an operator.",
		}, []string{"operator"}),
	}

	if reg != nil {
		reg.MustRegister(m.diffs, m.pending)
	}

	return m
}

// DiffCounter returns the counter for one operator, direction and kind.
func (m *Metrics) DiffCounter(operator, direction string, kind Kind) prometheus.Counter {
	return m.diffs.WithLabelValues(operator, direction, kind.String())
}

// PendingGauge returns the queue depth gauge for one operator.
func (m *Metrics) PendingGauge(operator string) prometheus.Gauge {
	return m.pending.WithLabelValues(operator)
}

func (m *Metrics) observe(operator, direction string, kind Kind) {
	if m == nil {
		return
	}
	m.DiffCounter(operator, direction, kind).Inc()
}

func (m *Metrics) setPending(operator string, n int) {
	if m == nil {
		return
	}
	m.PendingGauge(operator).Set(float64(n))
}
