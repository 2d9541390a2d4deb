// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Evaluation models.
//
const (
	ModelReference = "reference"
	ModelGate      = "gate"
)

// Evaluation outcomes.
//
const (
	OutcomeDriven     = "driven"
	OutcomeFloating   = "floating"
	OutcomeContention = "contention"
	OutcomeError      = "error"
)

var (
	registerOnce sync.Once

	evaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spinesim",
			Subsystem: "fabric",
			Name:      "evaluations_total",
			Help:      "Spine evaluations by model and outcome.",
		},
		[]string{"model", "outcome"},
	)
	mismatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "spinesim",
			Subsystem: "fabric",
			Name:      "mismatches_total",
			Help:      "Select codes where the gate-level chain differs from the reference model.",
		},
	)
	exclusivityViolations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "spinesim",
			Subsystem: "fabric",
			Name:      "exclusivity_violations_total",
			Help:      "Evaluations with more than one slot enabled.",
		},
	)
	settleSteps = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spinesim",
			Subsystem: "circuit",
			Name:      "settle_steps",
			Help:      "Steps until the last change on a probed path.",
			Buckets:   prometheus.LinearBuckets(1, 1, 16),
		},
		[]string{"path"},
	)
)

// RegisterMetrics registers the collectors with the default registry. It is
// safe to call more than once.
//
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(evaluations, mismatches, exclusivityViolations, settleSteps)
	})
}

// RecordEvaluation counts one evaluation of a model with its outcome.
//
func RecordEvaluation(model, outcome string) {
	RegisterMetrics()
	evaluations.WithLabelValues(model, outcome).Inc()
}

// RecordMismatch counts a select code where the two models disagree.
//
func RecordMismatch() {
	RegisterMetrics()
	mismatches.Inc()
}

func RecordExclusivityViolation() {
	RegisterMetrics()
	exclusivityViolations.Inc()
}

// ObserveSettle records the settle steps of a probed path.
//
func ObserveSettle(path string, steps int) {
	RegisterMetrics()
	settleSteps.WithLabelValues(path).Observe(float64(steps))
}
