// Package metrics provides Prometheus counters for the phone line controller.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels stay bounded: states, triggers, outcomes and command names only.

var (
	// TransitionsTotal counts accepted call-state transitions.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ringline_transitions_total",
		Help: "Accepted call state transitions, by source and destination state.",
	}, []string{"from", "to"})

	// TransitionRejectedTotal counts triggers fired from a state without that edge.
	TransitionRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ringline_transition_rejected_total",
		Help: "Rejected call state triggers, by trigger.",
	}, []string{"trigger"})

	// RingsTotal counts finished ring sequences by outcome (answered, missed, aborted).
	RingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ringline_rings_total",
		Help: "Finished ring sequences, by outcome.",
	}, []string{"outcome"})

	// CommandsTotal counts inbound remote commands by result (accepted, rejected, unknown).
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ringline_commands_total",
		Help: "Inbound commands, by command and result.",
	}, []string{"command", "result"})

	RemoteReconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ringline_remote_reconnects_total",
		Help: "Failed remote channel connections that scheduled a retry.",
	})

	// UploadsTotal counts recording uploads by result (ok, failed).
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ringline_uploads_total",
		Help: "Recording uploads to the record store, by result.",
	}, []string{"result"})

	DebounceDiscardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ringline_debounce_discarded_total",
		Help: "Hook edges discarded because the two debounce samples disagreed.",
	})
)
