package phone

import "sync"

type EventKind int

const (
	EventTrigger EventKind = iota
	EventCommand
)

// Event is work handed to the control loop from another goroutine.
type Event struct {
	Kind    EventKind
	Trigger Trigger
	Command string
	Source  string // sensor, ringer, autoring, remote, api
}

func TriggerEvent(t Trigger, source string) Event {
	return Event{Kind: EventTrigger, Trigger: t, Source: source}
}

func CommandEvent(cmd, source string) Event {
	return Event{Kind: EventCommand, Command: cmd, Source: source}
}

// Poster is the only way background goroutines influence call state.
type Poster interface {
	Post(ev Event)
}

// Bridge is an unbounded FIFO with a single consumer. Post never blocks.
type Bridge struct {
	mu    sync.Mutex
	queue []Event
	ready chan struct{}
}

func NewBridge() *Bridge {
	return &Bridge{ready: make(chan struct{}, 1)}
}

func (b *Bridge) Post(ev Event) {
	b.mu.Lock()
	b.queue = append(b.queue, ev)
	b.mu.Unlock()

	select {
	case b.ready <- struct{}{}:
	default:
		// Consumer already signalled.
	}
}

// Ready fires at least once after any Post since the last Drain.
func (b *Bridge) Ready() <-chan struct{} {
	return b.ready
}

// Drain hands over everything queued so far, in arrival order.
func (b *Bridge) Drain() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	events := b.queue
	b.queue = nil
	return events
}

func (b *Bridge) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}
