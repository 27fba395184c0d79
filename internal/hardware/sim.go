package hardware

import (
	"sync"
	"time"
)

// Sim is an in-memory board used by the sim driver and by tests.
type Sim struct {
	mu         sync.Mutex
	status     LineStatus
	statusFunc func() LineStatus
	relay      bool
	relayOnAt  time.Time
	energized  time.Duration
	relayOns   int
	relayOffs  int
	onHookLED  bool
	offHookLED bool
	closed     bool
	edges      chan struct{}
}

func NewSim() *Sim {
	return &Sim{
		status: StatusOnHook,
		edges:  make(chan struct{}, 16),
	}
}

func (s *Sim) Status() LineStatus {
	s.mu.Lock()
	fn := s.statusFunc
	status := s.status
	s.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return status
}

// SetStatus changes the sensed status without raising an edge.
func (s *Sim) SetStatus(status LineStatus) {
	s.mu.Lock()
	s.status = status
	s.statusFunc = nil
	s.mu.Unlock()
}

// Script replaces the sensed status with fn. fn must not call back into s
// with the lock held; it may call the counter accessors.
func (s *Sim) Script(fn func() LineStatus) {
	s.mu.Lock()
	s.statusFunc = fn
	s.mu.Unlock()
}

// Edge injects an interrupt. It drops the edge when the buffer is full, like
// a coalesced interrupt on real hardware.
func (s *Sim) Edge() {
	select {
	case s.edges <- struct{}{}:
	default:
	}
}

// Hook sets the status and raises an edge.
func (s *Sim) Hook(status LineStatus) {
	s.SetStatus(status)
	s.Edge()
}

func (s *Sim) SetRelay(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on && !s.relay {
		s.relayOns++
		s.relayOnAt = time.Now()
	}
	if !on && s.relay {
		s.relayOffs++
		s.energized += time.Since(s.relayOnAt)
	}
	s.relay = on
	return nil
}

func (s *Sim) SetIndicators(onHook, offHook bool) error {
	s.mu.Lock()
	s.onHookLED = onHook
	s.offHookLED = offHook
	s.mu.Unlock()
	return nil
}

func (s *Sim) Edges() <-chan struct{} {
	return s.edges
}

func (s *Sim) Close() error {
	_ = s.SetRelay(false)
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *Sim) Relay() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.relay
}

// RelayCycles reports how often the relay was energized and released.
func (s *Sim) RelayCycles() (ons, offs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.relayOns, s.relayOffs
}

// Energized is the accumulated time the relay spent high.
func (s *Sim) Energized() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.relay {
		return s.energized + time.Since(s.relayOnAt)
	}
	return s.energized
}

func (s *Sim) Indicators() (onHook, offHook bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onHookLED, s.offHookLED
}

func (s *Sim) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
