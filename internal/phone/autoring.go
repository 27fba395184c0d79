package phone

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/pccr10001/ringline/internal/model"
	"github.com/pccr10001/ringline/pkg/logger"
)

const DefaultAutoRingPoll = 10 * time.Second

type ConfigReader interface {
	Get() model.RingConfig
}

// AutoRinger occasionally synthesizes an incoming call.
type AutoRinger struct {
	config ConfigReader
	state  StateReader
	bridge Poster

	// Unit is the length of one second of configured span.
	Unit         time.Duration
	PollInterval time.Duration
	Rand         *rand.Rand
}

func NewAutoRinger(config ConfigReader, state StateReader, bridge Poster) *AutoRinger {
	return &AutoRinger{
		config:       config,
		state:        state,
		bridge:       bridge,
		Unit:         time.Second,
		PollInterval: DefaultAutoRingPoll,
	}
}

func (a *AutoRinger) Run(ctx context.Context) {
	logger.Log.Info("Starting auto ringing daemon")
	for {
		cfg := a.config.Get()
		if !cfg.AutoRing || a.state.Debug() {
			if !sleepCtx(ctx, a.PollInterval) {
				return
			}
			continue
		}

		secs := a.draw(cfg.AutoRingMinSpan*60, cfg.AutoRingMaxSpan*60)
		logger.Log.Infof("Waiting %d seconds before ringing", secs)
		if !sleepCtx(ctx, time.Duration(secs)*a.Unit) {
			return
		}
		a.wake()
	}
}

func (a *AutoRinger) wake() {
	cfg := a.config.Get()
	if !cfg.AutoRing || a.state.Debug() {
		logger.Log.Info("Auto ring was disabled while waiting, skipping")
		return
	}
	if a.state.State() != StateOnHook {
		logger.Log.Info("Can not ring, since we are already off-hook.")
		return
	}
	a.bridge.Post(TriggerEvent(TriggerIncomingCall, "autoring"))
}

// draw returns a uniform integer in [lo, hi].
func (a *AutoRinger) draw(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	span := hi - lo + 1
	if a.Rand != nil {
		return lo + a.Rand.IntN(span)
	}
	return lo + rand.IntN(span)
}
