package widget

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts refresh activity. A nil *Metrics records nothing.
type Metrics struct {
	Triggers     *prometheus.CounterVec
	Fetches      *prometheus.CounterVec
	Redraws      *prometheus.CounterVec
	SnapshotSize prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Triggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memos",
			Subsystem: "widget",
			Name:      "refresh_triggers_total",
			Help:      "Refresh triggers by source (schedule, signal, manual).",
		}, []string{"source"}),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memos",
			Subsystem: "widget",
			Name:      "fetches_total",
			Help:      "Snapshot fetches by outcome.",
		}, []string{"outcome"}),
		Redraws: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memos",
			Subsystem: "widget",
			Name:      "redraws_total",
			Help:      "Instance redraws by outcome.",
		}, []string{"outcome"}),
		SnapshotSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "memos",
			Subsystem: "widget",
			Name:      "snapshot_memos",
			Help:      "Memos in the current snapshot.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Triggers, m.Fetches, m.Redraws, m.SnapshotSize)
	}
	return m
}

func (m *Metrics) trigger(source string) {
	if m != nil {
		m.Triggers.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) fetch(outcome string) {
	if m != nil {
		m.Fetches.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) redraw(outcome string) {
	if m != nil {
		m.Redraws.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) size(n int) {
	if m != nil {
		m.SnapshotSize.Set(float64(n))
	}
}
