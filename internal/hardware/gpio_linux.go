//go:build linux

package hardware

import (
	"errors"
	"fmt"

	"github.com/pccr10001/ringline/internal/config"
	"github.com/pccr10001/ringline/pkg/logger"
	"github.com/warthog618/go-gpiocdev"
)

// GPIO drives the line interface through the Linux GPIO character device.
type GPIO struct {
	upper   *gpiocdev.Line
	lower   *gpiocdev.Line
	relay   *gpiocdev.Line
	onHook  *gpiocdev.Line
	offHook *gpiocdev.Line
	edges   chan struct{}
}

func OpenGPIO(cfg config.HardwareConfig) (*GPIO, error) {
	g := &GPIO{edges: make(chan struct{}, 16)}

	var err error
	if g.relay, err = gpiocdev.RequestLine(cfg.Chip, cfg.RingRelay, gpiocdev.AsOutput(0)); err != nil {
		return nil, fmt.Errorf("request ring relay line %d: %w", cfg.RingRelay, err)
	}
	if g.onHook, err = gpiocdev.RequestLine(cfg.Chip, cfg.OnHookLED, gpiocdev.AsOutput(0)); err != nil {
		g.Close()
		return nil, fmt.Errorf("request on-hook led line %d: %w", cfg.OnHookLED, err)
	}
	if g.offHook, err = gpiocdev.RequestLine(cfg.Chip, cfg.OffHookLED, gpiocdev.AsOutput(0)); err != nil {
		g.Close()
		return nil, fmt.Errorf("request off-hook led line %d: %w", cfg.OffHookLED, err)
	}
	if g.lower, err = gpiocdev.RequestLine(cfg.Chip, cfg.LALower, gpiocdev.AsInput); err != nil {
		g.Close()
		return nil, fmt.Errorf("request lower threshold line %d: %w", cfg.LALower, err)
	}
	g.upper, err = gpiocdev.RequestLine(cfg.Chip, cfg.LAUpper,
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(g.onEdge))
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("request upper threshold line %d: %w", cfg.LAUpper, err)
	}

	logger.Log.Infof("GPIO line interface ready on %s (upper=%d lower=%d relay=%d)", cfg.Chip, cfg.LAUpper, cfg.LALower, cfg.RingRelay)
	return g, nil
}

// onEdge runs on the gpiocdev watcher goroutine and must not block it.
func (g *GPIO) onEdge(evt gpiocdev.LineEvent) {
	select {
	case g.edges <- struct{}{}:
	default:
		logger.Log.Debugf("Edge on line %d dropped, sensor busy", evt.Offset)
	}
}

func (g *GPIO) Status() LineStatus {
	upper, err := g.upper.Value()
	if err != nil {
		logger.Log.Warnf("Failed to read upper threshold: %v", err)
		return StatusInvalid
	}
	lower, err := g.lower.Value()
	if err != nil {
		logger.Log.Warnf("Failed to read lower threshold: %v", err)
		return StatusInvalid
	}
	return Classify(upper == 1, lower == 1)
}

func (g *GPIO) SetRelay(on bool) error {
	return g.relay.SetValue(level(on))
}

func (g *GPIO) SetIndicators(onHook, offHook bool) error {
	return errors.Join(g.onHook.SetValue(level(onHook)), g.offHook.SetValue(level(offHook)))
}

func (g *GPIO) Edges() <-chan struct{} {
	return g.edges
}

func (g *GPIO) Close() error {
	var errs []error
	if g.relay != nil {
		errs = append(errs, g.relay.SetValue(0))
	}
	for _, l := range []*gpiocdev.Line{g.upper, g.lower, g.relay, g.onHook, g.offHook} {
		if l != nil {
			errs = append(errs, l.Close())
		}
	}
	return errors.Join(errs...)
}

func level(on bool) int {
	if on {
		return 1
	}
	return 0
}
