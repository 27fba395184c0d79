package hardware

import (
	"fmt"

	"github.com/pccr10001/ringline/internal/config"
)

// Open returns the line driver selected by cfg.Driver.
func Open(cfg config.HardwareConfig) (Line, error) {
	switch cfg.Driver {
	case "sim":
		return NewSim(), nil
	case "", "gpiocdev":
		g, err := OpenGPIO(cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown hardware driver %q", cfg.Driver)
	}
}
