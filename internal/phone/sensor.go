package phone

import (
	"context"
	"time"

	"github.com/pccr10001/ringline/internal/hardware"
	"github.com/pccr10001/ringline/internal/metrics"
	"github.com/pccr10001/ringline/pkg/logger"
)

const DefaultSettle = 300 * time.Millisecond

// StateReader exposes the published, read-only view of the control loop.
type StateReader interface {
	State() State
	Debug() bool
}

// Sensor debounces threshold edges into pick-up and hang-up events.
type Sensor struct {
	line   hardware.Line
	state  StateReader
	bridge Poster
	settle time.Duration
}

func NewSensor(line hardware.Line, state StateReader, bridge Poster) *Sensor {
	return &Sensor{line: line, state: state, bridge: bridge, settle: DefaultSettle}
}

// Run handles edges one at a time until ctx ends.
func (s *Sensor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.line.Edges():
			s.handleEdge(ctx)
		}
	}
}

func (s *Sensor) handleEdge(ctx context.Context) {
	if s.state.State() == StateRinging {
		return
	}

	first := s.line.Status()
	if !sleepCtx(ctx, s.settle) {
		return
	}
	second := s.line.Status()

	if first != second {
		metrics.DebounceDiscardedTotal.Inc()
		logger.Log.Infof("Interface status is not stable (%s then %s), ignoring edge", first, second)
		return
	}
	logger.Log.Infof("Phone interface returned %s", second)

	trigger, ok := hookTrigger(second, s.state.State())
	if !ok {
		logger.Log.Infof("No transition for %s while %s", second, s.state.State())
		return
	}
	s.bridge.Post(TriggerEvent(trigger, "sensor"))
}
