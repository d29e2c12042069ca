//go:build !linux

package gpio

import "fmt"

// ChipController is not available on non-Linux platforms.
type ChipController struct{}

// Open always fails on non-Linux platforms.
func Open(chip string) (*ChipController, error) {
	return nil, fmt.Errorf("%w: %s not supported on this platform (requires Linux)", ErrControllerUnavailable, chip)
}

// OpenLine is not implemented on non-Linux platforms.
func (c *ChipController) OpenLine(pin int) (Line, error) {
	return nil, ErrControllerUnavailable
}

// OpenEdgeLine is not implemented on non-Linux platforms.
func (c *ChipController) OpenEdgeLine(pin int) (EdgeLine, error) {
	return nil, ErrControllerUnavailable
}

// Close is a no-op on non-Linux platforms.
func (c *ChipController) Close() error {
	return nil
}
