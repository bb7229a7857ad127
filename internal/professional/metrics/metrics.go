// Package metrics exposes Prometheus instrumentation for the professional
// record pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts upsert and batch outcomes. A nil *Metrics is valid and
// records nothing, so tests can pass nil.
type Metrics struct {
	upserts    *prometheus.CounterVec
	batchItems *prometheus.CounterVec
}

// New registers the professional metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		upserts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rolodex_upserts_total",
			Help: "Upsert operations by outcome (created, updated, conflict).",
		}, []string{"outcome"}),
		batchItems: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rolodex_bulk_items_total",
			Help: "Bulk upsert items by terminal state (committed, rejected, failed).",
		}, []string{"state"}),
	}
}

func (m *Metrics) RecordUpsert(outcome string) {
	if m == nil {
		return
	}
	m.upserts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordBatchItem(state string) {
	if m == nil {
		return
	}
	m.batchItems.WithLabelValues(state).Inc()
}
