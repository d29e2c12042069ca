package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/pir-monitor/internal/gpio"
	"github.com/sweeney/pir-monitor/internal/logger"
	"github.com/sweeney/pir-monitor/internal/logic"
)

// Status messages reported for the GPIO controller.
const (
	StatusUnavailable = "There is no GPIO controller on this device."
	StatusReady       = "GPIO pin initialized correctly."
	StatusPartial     = "GPIO pin initialized with errors."
)

// Pins are BCM line offsets.
type Pins struct {
	Motion int
	LED    int
	Door   int
	Reset  int
}

// Levels are raw line levels read on demand.
type Levels struct {
	Motion gpio.Level
	Door   gpio.Level
	Reset  gpio.Level
}

// Monitor ties a Reconciler to its lines, EdgeSource and Poller.
type Monitor struct {
	rec    *Reconciler
	edge   *EdgeSource
	poller *Poller

	ctrl   gpio.Controller
	motion gpio.EdgeLine
	lines  Lines
	status string
	log    *zap.SugaredLogger
}

// Disabled returns a Monitor without hardware. Its snapshot stays at the
// zero state and Run only waits for cancellation.
func Disabled(ctx context.Context, sink Sink) *Monitor {
	return &Monitor{
		rec:    NewReconciler(ctx, Lines{}, sink),
		status: StatusUnavailable,
		log:    logger.FromContext(ctx).Named("monitor"),
	}
}

// Open requests the lines on ctrl and wires them to a new Reconciler.
// A nil ctrl yields Disabled. A line that cannot be opened is logged and
// left out; only an invalid interval is an error.
func Open(ctx context.Context, ctrl gpio.Controller, pins Pins, interval time.Duration, sink Sink) (*Monitor, error) {
	if ctrl == nil {
		return Disabled(ctx, sink), nil
	}
	if interval <= 0 {
		return nil, errInvalidInterval
	}

	m := &Monitor{
		ctrl:   ctrl,
		status: StatusReady,
		log:    logger.FromContext(ctx).Named("monitor"),
	}

	m.lines.LED = m.openLine(ctrl, "led", pins.LED, gpio.ModeOutput)
	if m.lines.LED != nil {
		if err := m.lines.LED.Write(gpio.Low); err != nil {
			m.log.Warnw("led init failed", "pin", pins.LED, "error", err)
		}
	}
	m.lines.Door = m.openLine(ctrl, "door", pins.Door, gpio.ModeInputPullUp)
	m.lines.Reset = m.openLine(ctrl, "reset", pins.Reset, gpio.ModeInputPullUp)

	m.rec = NewReconciler(ctx, m.lines, sink)

	if err := m.openMotion(ctx, ctrl, pins.Motion); err != nil {
		m.log.Warnw("motion line unavailable", "pin", pins.Motion, "error", err)
		m.status = StatusPartial
	}

	poller, err := NewPoller(ctx, "poll", interval, m.rec.OnPollTick)
	if err != nil {
		return nil, err
	}
	m.poller = poller

	m.log.Infow("gpio initialised",
		"motion", pins.Motion, "led", pins.LED, "door", pins.Door, "reset", pins.Reset,
		"poll", interval, "status", m.status)

	return m, nil
}

func (m *Monitor) openLine(ctrl gpio.Controller, name string, pin int, mode gpio.Mode) gpio.Line {
	line, err := ctrl.OpenLine(pin)
	if err != nil {
		m.log.Warnw("line unavailable", "line", name, "pin", pin, "error", err)
		m.status = StatusPartial
		return nil
	}
	if err := line.SetMode(mode); err != nil {
		m.log.Warnw("line mode failed", "line", name, "pin", pin, "mode", mode, "error", err)
		m.status = StatusPartial
		_ = line.Close()
		return nil
	}
	return line
}

func (m *Monitor) openMotion(ctx context.Context, ctrl gpio.Controller, pin int) error {
	line, err := ctrl.OpenEdgeLine(pin)
	if err != nil {
		return err
	}
	if err := line.SetMode(gpio.ModeInput); err != nil {
		_ = line.Close()
		return err
	}

	edge := NewEdgeSource(ctx, line)
	if err := edge.Start(m.rec.OnEdge); err != nil {
		_ = line.Close()
		return err
	}

	m.motion = line
	m.edge = edge
	return nil
}

// Run polls the door and reset lines until ctx is cancelled. A disabled
// Monitor only waits.
func (m *Monitor) Run(ctx context.Context) {
	if m.poller == nil {
		<-ctx.Done()
		return
	}
	m.poller.Run(ctx)
}

// Snapshot returns the current state.
func (m *Monitor) Snapshot() logic.Snapshot {
	return m.rec.Snapshot()
}

// Reconciler returns the underlying Reconciler.
func (m *Monitor) Reconciler() *Reconciler {
	return m.rec
}

// Status returns the GPIO status message.
func (m *Monitor) Status() string {
	return m.status
}

// Enabled reports whether a controller was available.
func (m *Monitor) Enabled() bool {
	return m.ctrl != nil
}

// Levels reads the motion, door and reset lines directly.
func (m *Monitor) Levels() (Levels, error) {
	var (
		lv   Levels
		errs []error
	)
	read := func(name string, l gpio.Line, dst *gpio.Level) {
		if l == nil {
			errs = append(errs, fmt.Errorf("%s: line unavailable", name))
			return
		}
		v, err := l.Read()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		*dst = v
	}

	var motion gpio.Line
	if m.motion != nil {
		motion = m.motion
	}
	read("motion", motion, &lv.Motion)
	read("door", m.lines.Door, &lv.Door)
	read("reset", m.lines.Reset, &lv.Reset)

	return lv, errors.Join(errs...)
}

// Close drives the LED low and releases all lines and the controller.
func (m *Monitor) Close() error {
	if m.ctrl == nil {
		return nil
	}

	var errs []error
	if m.lines.LED != nil {
		if err := m.lines.LED.Write(gpio.Low); err != nil {
			errs = append(errs, fmt.Errorf("led off: %w", err))
		}
	}

	var lines []gpio.Line
	if m.motion != nil {
		lines = append(lines, m.motion)
	}
	for _, l := range []gpio.Line{m.lines.LED, m.lines.Door, m.lines.Reset} {
		if l != nil {
			lines = append(lines, l)
		}
	}
	for _, l := range lines {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := m.ctrl.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
