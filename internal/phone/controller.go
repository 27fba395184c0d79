package phone

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pccr10001/ringline/internal/hardware"
	"github.com/pccr10001/ringline/internal/metrics"
	"github.com/pccr10001/ringline/pkg/logger"
)

// StatusSender delivers outbound status lines; Send must not block.
type StatusSender interface {
	Send(msg string)
}

// Sessions is the audio session manager as seen by the control loop.
type Sessions interface {
	StartRecording() error
	StopRecording() bool
	RecordingActive() bool
	StartPlayback(ctx context.Context) error
	PlayMessage(ctx context.Context, id string) error
	StopPlayback() bool
	PlaybackActive() bool
}

type ConfigStore interface {
	ConfigReader
	Refresh(ctx context.Context) error
}

type Journal interface {
	Record(trigger, from, to, source string)
}

type Options struct {
	// RingUnit is the length of one configured ring second.
	RingUnit  time.Duration
	PollSlice time.Duration
}

// Controller is the control loop. Only Run's goroutine reads or writes
// state; everyone else sees the atomic snapshot.
type Controller struct {
	line     hardware.Line
	bridge   *Bridge
	sessions Sessions
	status   StatusSender
	config   ConfigStore
	journal  Journal
	ringer   *Ringer
	opts     Options

	state    State
	snapshot atomic.Int32
	debug    atomic.Bool

	runCtx     context.Context
	ringCancel context.CancelFunc
	bg         sync.WaitGroup
}

func NewController(line hardware.Line, bridge *Bridge, sessions Sessions, status StatusSender, config ConfigStore, journal Journal, opts Options) *Controller {
	if opts.RingUnit <= 0 {
		opts.RingUnit = time.Second
	}
	if opts.PollSlice <= 0 {
		opts.PollSlice = DefaultPollSlice
	}
	c := &Controller{
		line:     line,
		bridge:   bridge,
		sessions: sessions,
		status:   status,
		config:   config,
		journal:  journal,
		ringer:   NewRinger(line),
		opts:     opts,
		state:    StateOnHook,
		runCtx:   context.Background(),
	}
	c.snapshot.Store(int32(StateOnHook))
	return c
}

func (c *Controller) State() State {
	return State(c.snapshot.Load())
}

func (c *Controller) Debug() bool {
	return c.debug.Load()
}

func (c *Controller) Post(ev Event) {
	c.bridge.Post(ev)
}

// Run consumes the bridge until ctx ends, then releases the relay, waits for
// background work and stops any session.
func (c *Controller) Run(ctx context.Context) error {
	c.runCtx = ctx
	c.setIndicators(true, false)
	logger.Log.Infof("Current state: %s", c.state)

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case <-c.bridge.Ready():
			for _, ev := range c.bridge.Drain() {
				c.handle(ev)
			}
		}
	}
}

func (c *Controller) handle(ev Event) {
	switch ev.Kind {
	case EventTrigger:
		c.fire(ev.Trigger, ev.Source)
	case EventCommand:
		c.dispatch(ev.Command, ev.Source)
	}
}

// fire applies trigger and runs the entry action of the new state.
func (c *Controller) fire(trigger Trigger, source string) bool {
	from := c.state
	to, err := Transition(from, trigger)
	if err != nil {
		metrics.TransitionRejectedTotal.WithLabelValues(string(trigger)).Inc()
		logger.Log.Infof("Ignoring %s from %s: %v", trigger, source, err)
		return false
	}

	c.state = to
	c.snapshot.Store(int32(to))
	metrics.TransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
	logger.Log.Infof("Transition %s -> %s (%s via %s)", from, to, trigger, source)
	if c.journal != nil {
		c.journal.Record(string(trigger), from.String(), to.String(), source)
	}

	switch to {
	case StateOnHook:
		c.enterOnHook()
	case StateOffHook:
		c.enterOffHook()
	case StateRinging:
		c.enterRinging()
	}
	return true
}

func (c *Controller) enterOnHook() {
	logger.Log.Info("Entering onHook state")
	c.setIndicators(true, false)
	c.status.Send(StateOnHook.Status())

	if !c.debug.Load() {
		c.sessions.StopRecording()
		c.sessions.StopPlayback()
	}
}

func (c *Controller) enterOffHook() {
	logger.Log.Info("Entering offHook state")
	c.setIndicators(false, true)
	c.status.Send(StateOffHook.Status())

	if !c.debug.Load() {
		if err := c.sessions.StartRecording(); err != nil {
			logger.Log.Errorf("Recording not started: %v", err)
		}
		c.background(func(ctx context.Context) {
			_ = c.sessions.StartPlayback(ctx)
		})
	}
}

func (c *Controller) enterRinging() {
	logger.Log.Info("Entering ringing state")
	c.setIndicators(false, false)
	c.status.Send(StateRinging.Status())

	cfg := c.config.Get()
	cad := Cadence{
		Count: cfg.RingCount,
		On:    time.Duration(cfg.RingOnTime) * c.opts.RingUnit,
		Off:   time.Duration(cfg.RingOffTime) * c.opts.RingUnit,
		Slice: c.opts.PollSlice,
	}

	ctx, cancel := context.WithCancel(c.runCtx)
	c.ringCancel = cancel
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		defer cancel()

		outcome := c.ringer.Run(ctx, cad)
		metrics.RingsTotal.WithLabelValues(outcome.String()).Inc()
		switch outcome {
		case RingAnswered:
			c.bridge.Post(TriggerEvent(TriggerAnswerCall, "ringer"))
		case RingMissed:
			c.bridge.Post(TriggerEvent(TriggerMissCall, "ringer"))
		}
	}()
}

// background runs fn off the loop, bounded by the loop's lifetime.
func (c *Controller) background(fn func(ctx context.Context)) {
	ctx := c.runCtx
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		fn(ctx)
	}()
}

func (c *Controller) setIndicators(onHook, offHook bool) {
	if err := c.line.SetIndicators(onHook, offHook); err != nil {
		logger.Log.Warnf("Failed to set indicators: %v", err)
	}
}

func (c *Controller) shutdown() {
	logger.Log.Info("Control loop stopping")
	if c.ringCancel != nil {
		c.ringCancel()
	}
	c.bg.Wait()
	if err := c.line.SetRelay(false); err != nil {
		logger.Log.Errorf("Failed to release ring relay: %v", err)
	}
	c.sessions.StopPlayback()
	c.sessions.StopRecording()
}
