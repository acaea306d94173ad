package sched

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the prometheus collectors the host updates as it schedules.
type Metrics struct {
	Events     *prometheus.CounterVec
	Dispatches *prometheus.CounterVec
	QueueDepth *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer, algorithm string) (*Metrics, error) {
	labels := prometheus.Labels{"algorithm": algorithm}
	m := &Metrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "mlfq",
			Name:        "events_total",
			Help:        "scheduler events by kind",
			ConstLabels: labels,
		}, []string{"kind"}),
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "mlfq",
			Name:        "dispatches_total",
			Help:        "dispatches by declared class of the task",
			ConstLabels: labels,
		}, []string{"class"}),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "mlfq",
			Name:        "queue_depth",
			Help:        "entities queued per class",
			ConstLabels: labels,
		}, []string{"class"}),
	}
	for _, c := range []prometheus.Collector{m.Events, m.Dispatches, m.QueueDepth} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(ev StatusEvent) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(ev.Kind.String()).Inc()
	if ev.Kind == StatusDispatch {
		m.Dispatches.WithLabelValues(ev.Class.String()).Inc()
	}
}

func (m *Metrics) setDepths(snap [NumClasses][]EntityID) {
	if m == nil {
		return
	}
	for c, ids := range snap {
		m.QueueDepth.WithLabelValues(Class(c).String()).Set(float64(len(ids)))
	}
}
