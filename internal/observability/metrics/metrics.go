package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters for calendar mutations.
type SchedulingMetrics struct {
	mutationsTotal     *prometheus.CounterVec
	conflictsDetected  prometheus.Counter
	substitutionsTotal *prometheus.CounterVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		mutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduling_mutations_total",
				Help: "Calendar mutations applied, by operation.",
			},
			[]string{"operation"},
		),
		conflictsDetected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scheduling_conflicts_detected_total",
				Help: "Overlapping placements reported to operators.",
			},
		),
		substitutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduling_substitutions_total",
				Help: "No-show substitution workflow actions, by action.",
			},
			[]string{"action"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.mutationsTotal, m.conflictsDetected, m.substitutionsTotal)
	}

	return m
}

// MutationApplied records one committed calendar mutation.
func (m *SchedulingMetrics) MutationApplied(operation string) {
	if m == nil {
		return
	}
	m.mutationsTotal.WithLabelValues(operation).Inc()
}

// ConflictsDetected records n overlaps surfaced to the operator.
func (m *SchedulingMetrics) ConflictsDetected(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.conflictsDetected.Add(float64(n))
}

// SubstitutionAction records a substitution create/edit/cancel.
func (m *SchedulingMetrics) SubstitutionAction(action string) {
	if m == nil {
		return
	}
	m.substitutionsTotal.WithLabelValues(action).Inc()
}
