// Package gpio provides digital line access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"
	"fmt"
)

// Level is the electrical level of a digital line.
type Level int

const (
	Low  Level = 0
	High Level = 1
)

func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

// Edge is the direction of a line transition.
type Edge int

const (
	EdgeRising Edge = iota + 1
	EdgeFalling
)

func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	default:
		return fmt.Sprintf("Edge(%d)", int(e))
	}
}

// Mode is the drive mode of a line.
type Mode int

const (
	ModeInput Mode = iota
	ModeInputPullUp
	ModeOutput
)

func (m Mode) String() string {
	switch m {
	case ModeInput:
		return "input"
	case ModeInputPullUp:
		return "input-pull-up"
	case ModeOutput:
		return "output"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Line is a single digital line.
type Line interface {
	// Read returns the current level of the line.
	Read() (Level, error)

	// Write drives the line. Only valid in ModeOutput.
	Write(level Level) error

	// SetMode reconfigures the drive mode of the line.
	SetMode(mode Mode) error

	// Close releases the line.
	Close() error
}

// EdgeLine is an interrupt-capable input line.
type EdgeLine interface {
	Line

	// OnEdge registers the callback invoked on every rising and falling
	// transition. The callback runs on the controller's event goroutine.
	// Registering again replaces the previous callback.
	OnEdge(fn func(Edge)) error
}

// Controller opens lines on a GPIO chip.
type Controller interface {
	// OpenLine requests a line as a plain input. Use SetMode to change it.
	OpenLine(pin int) (Line, error)

	// OpenEdgeLine requests a line as an input reporting both edges.
	OpenEdgeLine(pin int) (EdgeLine, error)

	// Close releases the chip. Lines must be closed first.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinMotion = 5
	DefaultPinLED    = 6
	DefaultPinDoor   = 13
	DefaultPinReset  = 26

	DefaultChip = "gpiochip0"
)

// ErrControllerUnavailable is returned by Open when no GPIO controller is
// present on the device.
var ErrControllerUnavailable = errors.New("gpio: no controller available")

// LineError reports a failed access to a single line.
type LineError struct {
	Op  string // "read", "write" or "mode"
	Pin int
	Err error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("gpio: %s pin %d: %v", e.Op, e.Pin, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
