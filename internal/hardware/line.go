// Package hardware isolates the telephone line interface behind a small
// capability so the call logic runs without real pins.
package hardware

// LineStatus is the hook state read from the two line-voltage thresholds.
type LineStatus int

const (
	StatusInvalid LineStatus = iota
	StatusOnHook
	StatusOffHook
)

func (s LineStatus) String() string {
	switch s {
	case StatusOnHook:
		return "ON_HOOK"
	case StatusOffHook:
		return "OFF_HOOK"
	default:
		return "INVALID_STATE"
	}
}

// Classify maps the upper and lower threshold inputs to a LineStatus.
func Classify(upper, lower bool) LineStatus {
	switch {
	case upper && lower:
		return StatusOnHook
	case !upper && lower:
		return StatusOffHook
	default:
		return StatusInvalid
	}
}

// Line is everything the controller needs from the board.
type Line interface {
	// Status samples both thresholds. Read failures report StatusInvalid.
	Status() LineStatus
	SetRelay(on bool) error
	SetIndicators(onHook, offHook bool) error
	// Edges delivers one value per threshold edge interrupt.
	Edges() <-chan struct{}
	// Close drives the relay low and releases the lines.
	Close() error
}
