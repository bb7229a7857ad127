package resume

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts resume parse attempts by result. A nil *Metrics records
// nothing.
type Metrics struct {
	parses *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		parses: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "rolodex_resume_parses_total",
			Help: "Resume parse attempts by result (ok, error, timeout, unavailable).",
		}, []string{"result"}),
	}
}

func (m *Metrics) RecordParse(result string) {
	if m == nil {
		return
	}
	m.parses.WithLabelValues(result).Inc()
}
