//go:build !linux

package hardware

import (
	"errors"

	"github.com/pccr10001/ringline/internal/config"
)

var errGPIOUnsupported = errors.New("gpio character device is only available on linux, use hardware.driver=sim")

// GPIO never opens off linux; its methods only report that.
type GPIO struct{}

var _ Line = (*GPIO)(nil)

func OpenGPIO(cfg config.HardwareConfig) (*GPIO, error) {
	return nil, errGPIOUnsupported
}

func (g *GPIO) Status() LineStatus { return StatusInvalid }
func (g *GPIO) SetRelay(bool) error { return errGPIOUnsupported }
func (g *GPIO) SetIndicators(onHook, offHook bool) error { return errGPIOUnsupported }
func (g *GPIO) Edges() <-chan struct{} { return nil }
func (g *GPIO) Close() error { return nil }
