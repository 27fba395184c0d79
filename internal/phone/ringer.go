package phone

import (
	"context"
	"time"

	"github.com/pccr10001/ringline/internal/hardware"
	"github.com/pccr10001/ringline/pkg/logger"
)

const DefaultPollSlice = 100 * time.Millisecond

type RingOutcome int

const (
	RingAnswered RingOutcome = iota
	RingMissed
	RingAborted
)

func (o RingOutcome) String() string {
	switch o {
	case RingAnswered:
		return "answered"
	case RingMissed:
		return "missed"
	default:
		return "aborted"
	}
}

// Cadence is one ring instance: Count cycles of On energized and Off quiet,
// with the line polled every Slice during Off.
type Cadence struct {
	Count int
	On    time.Duration
	Off   time.Duration
	Slice time.Duration
}

// Ringer is the only writer of the relay while Ringing.
type Ringer struct {
	line hardware.Line
}

func NewRinger(line hardware.Line) *Ringer {
	return &Ringer{line: line}
}

// Run drives the cadence until the handset is lifted, the cycles run out or
// ctx is cancelled. The relay is low on every return.
func (r *Ringer) Run(ctx context.Context, cad Cadence) RingOutcome {
	defer r.release()

	logger.Log.Infof("Toggling ringer: %d x (%v on, %v off)", cad.Count, cad.On, cad.Off)
	for i := 0; i < cad.Count; i++ {
		if r.line.Status() == hardware.StatusOffHook {
			logger.Log.Info("Phone is off-hook, stopping ringer")
			return RingAnswered
		}

		if err := r.line.SetRelay(true); err != nil {
			logger.Log.Errorf("Failed to energize ring relay: %v", err)
		}
		if !sleepCtx(ctx, cad.On) {
			return RingAborted
		}
		r.release()

		answered, ok := r.waitAfterRing(ctx, cad.Off, cad.Slice)
		if !ok {
			return RingAborted
		}
		if answered {
			logger.Log.Info("Phone is off-hook, stopping ringer")
			return RingAnswered
		}
	}

	logger.Log.Info("No one picked up, we missed the call")
	return RingMissed
}

// waitAfterRing waits off in slices, checking the line after each one.
func (r *Ringer) waitAfterRing(ctx context.Context, off, slice time.Duration) (answered, ok bool) {
	if slice <= 0 {
		slice = DefaultPollSlice
	}
	n := int(off / slice)
	if n == 0 && off > 0 {
		n, slice = 1, off
	}
	for i := 0; i < n; i++ {
		if !sleepCtx(ctx, slice) {
			return false, false
		}
		if r.line.Status() == hardware.StatusOffHook {
			return true, true
		}
	}
	return false, true
}

func (r *Ringer) release() {
	if err := r.line.SetRelay(false); err != nil {
		logger.Log.Errorf("Failed to release ring relay: %v", err)
	}
}

// sleepCtx reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
