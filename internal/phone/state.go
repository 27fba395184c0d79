// Package phone runs the call state machine of the single line and merges
// sensor edges, ring timing, auto-ring and remote commands into one loop.
package phone

import (
	"errors"
	"fmt"

	"github.com/pccr10001/ringline/internal/hardware"
)

type State int32

const (
	StateOnHook State = iota
	StateOffHook
	StateRinging
)

func (s State) String() string {
	switch s {
	case StateOnHook:
		return "onHook"
	case StateOffHook:
		return "offHook"
	case StateRinging:
		return "ringing"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Status is the outbound status line announced on entering s.
func (s State) Status() string {
	switch s {
	case StateOffHook:
		return "STATUS:OFF_HOOK"
	case StateRinging:
		return "STATUS:RINGING"
	default:
		return "STATUS:ON_HOOK"
	}
}

type Trigger string

const (
	TriggerPickUp       Trigger = "pick_up"
	TriggerHangUp       Trigger = "hang_up"
	TriggerIncomingCall Trigger = "incoming_call"
	TriggerAnswerCall   Trigger = "answer_call"
	TriggerMissCall     Trigger = "miss_call"
)

var ErrInvalidTransition = errors.New("invalid transition")

var transitions = map[State]map[Trigger]State{
	StateOnHook: {
		TriggerPickUp:       StateOffHook,
		TriggerIncomingCall: StateRinging,
	},
	StateOffHook: {
		TriggerHangUp: StateOnHook,
	},
	StateRinging: {
		TriggerAnswerCall: StateOffHook,
		TriggerMissCall:   StateOnHook,
	},
}

// Transition looks up the edge for trigger in the static table. Missing
// edges leave the state unchanged and return ErrInvalidTransition.
func Transition(current State, trigger Trigger) (State, error) {
	edges, ok := transitions[current]
	if !ok {
		return current, fmt.Errorf("unknown state %q", current)
	}
	next, ok := edges[trigger]
	if !ok {
		return current, fmt.Errorf("%w: %s --(%s)--> ?", ErrInvalidTransition, current, trigger)
	}
	return next, nil
}

func IsInvalidTransitionError(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// hookTrigger maps a settled line reading to the trigger it implies in
// state. Readings during Ringing are ignored because the ringer pulses
// disturb the line voltage.
func hookTrigger(status hardware.LineStatus, state State) (Trigger, bool) {
	switch {
	case status == hardware.StatusOnHook && state == StateOffHook:
		return TriggerHangUp, true
	case status == hardware.StatusOffHook && state == StateOnHook:
		return TriggerPickUp, true
	default:
		return "", false
	}
}
