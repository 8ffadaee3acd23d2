package question

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts aggregate operations, answer evaluations and cache lookups.
// A nil *Metrics records nothing.
type Metrics struct {
	operations  *prometheus.CounterVec
	evaluations *prometheus.CounterVec
	cache       *prometheus.CounterVec
}

// NewMetrics registers the question collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "question_bank",
			Name:      "question_operations_total",
			Help:      "Question aggregate operations by outcome.",
		}, []string{"op", "outcome"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "question_bank",
			Name:      "answer_evaluations_total",
			Help:      "Submitted answers by question type and result.",
		}, []string{"type", "result"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "question_bank",
			Name:      "question_cache_lookups_total",
			Help:      "Aggregate cache lookups by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.operations, m.evaluations, m.cache)
	return m
}

func (m *Metrics) operation(op string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome(err)).Inc()
}

func (m *Metrics) evaluation(t Type, correct bool) {
	if m == nil {
		return
	}
	result := "wrong"
	if correct {
		result = "correct"
	}
	m.evaluations.WithLabelValues(t.String(), result).Inc()
}

func (m *Metrics) cacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isValidation(err):
		return "invalid"
	case isNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}
