// Package metrics defines the Prometheus collectors the API exports.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "leads"

// Upload outcomes beyond the distribution outcomes.
const (
	OutcomeStored   = "stored"
	OutcomeRejected = "rejected"
)

type Metrics struct {
	TasksDistributed prometheus.Counter
	PersistFailures  prometheus.Counter
	Uploads          *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TasksDistributed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_distributed_total",
			Help:      "Tasks persisted by list imports.",
		}),
		PersistFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_persist_failures_total",
			Help:      "Tasks that failed to persist during list imports.",
		}),
		Uploads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Uploaded files by detected kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
}

// ObserveImport records one list import. A nil receiver is a no-op.
func (m *Metrics) ObserveImport(kind, outcome string, distributed, failed int) {
	if m == nil {
		return
	}
	m.TasksDistributed.Add(float64(distributed))
	m.PersistFailures.Add(float64(failed))
	m.Uploads.WithLabelValues(kind, outcome).Inc()
}

// ObserveUpload records an upload that did not reach distribution.
func (m *Metrics) ObserveUpload(kind, outcome string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.Uploads.WithLabelValues(kind, outcome).Inc()
}
