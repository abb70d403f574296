package statemachine

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const outcomeSuccess = "success"

var (
	// actionCallsTotal counts every dispatch by state, action and outcome
	// (handled, ignored or error).
	actionCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_action_calls_total",
		Help: "Total number of action dispatches by machine, state, action, and outcome",
	}, []string{"machine", "state", "action", "outcome"})

	// transitionsTotal counts completed transitions.
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_transitions_total",
		Help: "Total number of completed state transitions by machine, from state, and to state",
	}, []string{"machine", "from", "to"})

	// transitionDuration tracks the time between SetState and the completion
	// signal resolving.
	transitionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "statemachine_transition_duration_seconds",
		Help:    "Time from SetState until the completion signal resolves, by machine and outcome",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"machine", "outcome"})

	transitionFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_transition_failures_total",
		Help: "Total number of transitions whose completion signal failed, by machine and target state",
	}, []string{"machine", "state"})
)

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}

	return name
}
