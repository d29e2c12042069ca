//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "pir-monitor"

// ChipController opens lines on a Linux GPIO character device.
type ChipController struct {
	chip *gpiocdev.Chip
}

// Open opens the named GPIO chip (e.g. "gpiochip0").
// Returns an error wrapping ErrControllerUnavailable if the chip cannot be opened.
func Open(chip string) (*ChipController, error) {
	c, err := gpiocdev.NewChip(chip, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrControllerUnavailable, chip, err)
	}
	return &ChipController{chip: c}, nil
}

// OpenLine requests the pin as a plain input.
func (c *ChipController) OpenLine(pin int) (Line, error) {
	l, err := c.chip.RequestLine(pin, gpiocdev.AsInput)
	if err != nil {
		return nil, fmt.Errorf("request pin %d: %w", pin, err)
	}
	return &chipLine{pin: pin, line: l, mode: ModeInput}, nil
}

// OpenEdgeLine requests the pin as an input with edge detection on both edges.
// Events arriving before OnEdge is called are dropped.
func (c *ChipController) OpenEdgeLine(pin int) (EdgeLine, error) {
	el := &chipEdgeLine{}
	l, err := c.chip.RequestLine(pin,
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(el.dispatch),
	)
	if err != nil {
		return nil, fmt.Errorf("request edge pin %d: %w", pin, err)
	}
	el.chipLine = chipLine{pin: pin, line: l, mode: ModeInput}
	return el, nil
}

// Close releases the chip.
func (c *ChipController) Close() error {
	if err := c.chip.Close(); err != nil {
		return fmt.Errorf("close chip: %w", err)
	}
	return nil
}

type chipLine struct {
	pin  int
	line *gpiocdev.Line
	mode Mode
}

func (l *chipLine) Read() (Level, error) {
	v, err := l.line.Value()
	if err != nil {
		return Low, &LineError{Op: "read", Pin: l.pin, Err: err}
	}
	if v != 0 {
		return High, nil
	}
	return Low, nil
}

func (l *chipLine) Write(level Level) error {
	if l.mode != ModeOutput {
		return &LineError{Op: "write", Pin: l.pin, Err: fmt.Errorf("line is in %s mode", l.mode)}
	}
	if err := l.line.SetValue(int(level)); err != nil {
		return &LineError{Op: "write", Pin: l.pin, Err: err}
	}
	return nil
}

func (l *chipLine) SetMode(mode Mode) error {
	var err error
	switch mode {
	case ModeInput:
		err = l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithBiasDisabled)
	case ModeInputPullUp:
		err = l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp)
	case ModeOutput:
		err = l.line.Reconfigure(gpiocdev.AsOutput(0))
	default:
		err = fmt.Errorf("unknown mode %s", mode)
	}
	if err != nil {
		return &LineError{Op: "mode", Pin: l.pin, Err: err}
	}
	l.mode = mode
	return nil
}

// Close reconfigures outputs to input with pull-down (matching Pi boot
// defaults) before releasing the line.
func (l *chipLine) Close() error {
	var errs []error
	if l.mode == ModeOutput {
		if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", l.pin, err))
		}
	}
	if err := l.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close pin %d: %w", l.pin, err))
	}
	return errors.Join(errs...)
}

type chipEdgeLine struct {
	chipLine
	handler atomic.Pointer[func(Edge)]
}

func (l *chipEdgeLine) OnEdge(fn func(Edge)) error {
	l.handler.Store(&fn)
	return nil
}

// SetMode keeps the line an input; edge detection is lost on output.
func (l *chipEdgeLine) SetMode(mode Mode) error {
	if mode == ModeOutput {
		return &LineError{Op: "mode", Pin: l.pin, Err: fmt.Errorf("edge line cannot be an output")}
	}
	var err error
	if mode == ModeInputPullUp {
		err = l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithBothEdges)
	} else {
		err = l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithBiasDisabled, gpiocdev.WithBothEdges)
	}
	if err != nil {
		return &LineError{Op: "mode", Pin: l.pin, Err: err}
	}
	l.mode = mode
	return nil
}

func (l *chipEdgeLine) dispatch(evt gpiocdev.LineEvent) {
	fn := l.handler.Load()
	if fn == nil {
		return
	}
	switch evt.Type {
	case gpiocdev.LineEventRisingEdge:
		(*fn)(EdgeRising)
	case gpiocdev.LineEventFallingEdge:
		(*fn)(EdgeFalling)
	}
}
