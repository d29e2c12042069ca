package gpio

import (
	"errors"
	"fmt"
	"sync"
)

// FakeLine is a test double that returns scripted levels and records writes.
// It is safe for concurrent use.
type FakeLine struct {
	mu sync.Mutex

	pin int

	// levels contains scripted values to return. Each call to Read()
	// consumes the next level; the last one repeats.
	levels []Level
	index  int

	writes  []Level
	mode    Mode
	closed  bool
	reads   int
	handler func(Edge)

	readErr  error
	writeErr error
}

// NewFakeLine creates a FakeLine for pin that reads the given levels in order.
func NewFakeLine(pin int, levels ...Level) *FakeLine {
	return &FakeLine{pin: pin, levels: levels}
}

// Read returns the next scripted level.
// If levels are exhausted, returns the last level repeatedly.
func (f *FakeLine) Read() (Level, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++
	if f.readErr != nil {
		return Low, &LineError{Op: "read", Pin: f.pin, Err: f.readErr}
	}
	if len(f.levels) == 0 {
		return Low, &LineError{Op: "read", Pin: f.pin, Err: errors.New("no levels configured")}
	}

	level := f.levels[f.index]
	if f.index < len(f.levels)-1 {
		f.index++
	}
	return level, nil
}

// Write records the level. Fails unless the line is in ModeOutput.
func (f *FakeLine) Write(level Level) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return &LineError{Op: "write", Pin: f.pin, Err: f.writeErr}
	}
	if f.mode != ModeOutput {
		return &LineError{Op: "write", Pin: f.pin, Err: fmt.Errorf("line is in %s mode", f.mode)}
	}
	f.writes = append(f.writes, level)
	return nil
}

// SetMode records the mode.
func (f *FakeLine) SetMode(mode Mode) error {
	f.mu.Lock()
	f.mode = mode
	f.mu.Unlock()
	return nil
}

// OnEdge registers the edge callback.
func (f *FakeLine) OnEdge(fn func(Edge)) error {
	f.mu.Lock()
	f.handler = fn
	f.mu.Unlock()
	return nil
}

// Close marks the line as closed.
func (f *FakeLine) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Trigger delivers an edge to the registered callback, as the controller's
// event goroutine would. Returns false if no callback is registered.
func (f *FakeLine) Trigger(edge Edge) bool {
	f.mu.Lock()
	fn := f.handler
	f.mu.Unlock()

	if fn == nil {
		return false
	}
	fn(edge)
	return true
}

// SetLevels replaces the scripted levels and rewinds.
func (f *FakeLine) SetLevels(levels ...Level) {
	f.mu.Lock()
	f.levels = levels
	f.index = 0
	f.mu.Unlock()
}

// SetReadError makes subsequent reads fail with err (nil clears it).
func (f *FakeLine) SetReadError(err error) {
	f.mu.Lock()
	f.readErr = err
	f.mu.Unlock()
}

// SetWriteError makes subsequent writes fail with err (nil clears it).
func (f *FakeLine) SetWriteError(err error) {
	f.mu.Lock()
	f.writeErr = err
	f.mu.Unlock()
}

// Writes returns a copy of the levels written so far.
func (f *FakeLine) Writes() []Level {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Level(nil), f.writes...)
}

// Mode returns the current mode.
func (f *FakeLine) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// Reads returns the number of Read calls.
func (f *FakeLine) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Closed reports whether Close was called.
func (f *FakeLine) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// FakeController hands out FakeLines by pin.
type FakeController struct {
	mu sync.Mutex

	// Lines maps pins to the lines returned by OpenLine/OpenEdgeLine.
	// Pins without an entry get a new FakeLine reading Low.
	Lines map[int]*FakeLine

	// OpenErrors maps pins to errors returned when opening them.
	OpenErrors map[int]error

	opened []int
	closed bool
}

// NewFakeController creates a FakeController with no preset lines.
func NewFakeController() *FakeController {
	return &FakeController{
		Lines:      make(map[int]*FakeLine),
		OpenErrors: make(map[int]error),
	}
}

// OpenLine returns the FakeLine for pin.
func (c *FakeController) OpenLine(pin int) (Line, error) {
	l, err := c.open(pin)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// OpenEdgeLine returns the FakeLine for pin.
func (c *FakeController) OpenEdgeLine(pin int) (EdgeLine, error) {
	l, err := c.open(pin)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (c *FakeController) open(pin int) (*FakeLine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.OpenErrors[pin]; err != nil {
		return nil, fmt.Errorf("request pin %d: %w", pin, err)
	}
	l, ok := c.Lines[pin]
	if !ok {
		l = NewFakeLine(pin, Low)
		c.Lines[pin] = l
	}
	c.opened = append(c.opened, pin)
	return l, nil
}

// Line returns the FakeLine for pin, creating it if needed.
func (c *FakeController) Line(pin int) *FakeLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.Lines[pin]
	if !ok {
		l = NewFakeLine(pin, Low)
		c.Lines[pin] = l
	}
	return l
}

// Opened returns the pins opened so far, in order.
func (c *FakeController) Opened() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.opened...)
}

// Close marks the controller as closed.
func (c *FakeController) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (c *FakeController) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
