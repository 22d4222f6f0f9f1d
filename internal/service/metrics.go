package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts conversions. A nil *Metrics records nothing.
type Metrics struct {
	conversions  *prometheus.CounterVec
	linksDropped prometheus.Counter
	ruleFailures prometheus.Counter
}

// NewMetrics registers the conversion collectors on reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "subconv"
	}
	factory := promauto.With(reg)
	return &Metrics{
		conversions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Conversions by result.",
		}, []string{"result"}),
		linksDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_dropped_total",
			Help:      "Share links that could not be decoded.",
		}),
		ruleFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_sources_failed_total",
			Help:      "Rule-list downloads that failed during a conversion.",
		}),
	}
}

func (m *Metrics) observe(result string, dropped, ruleFailures int) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(result).Inc()
	m.linksDropped.Add(float64(dropped))
	m.ruleFailures.Add(float64(ruleFailures))
}
