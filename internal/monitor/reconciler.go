package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/pir-monitor/internal/gpio"
	"github.com/sweeney/pir-monitor/internal/logger"
	"github.com/sweeney/pir-monitor/internal/logic"
)

// Lines are the lines the Reconciler touches. Any of them may be nil when
// the line could not be opened; the matching update is then skipped.
type Lines struct {
	LED   gpio.Line
	Door  gpio.Line
	Reset gpio.Line
}

// Reconciler owns the sensor state. OnEdge and OnPollTick may be called
// concurrently from different goroutines. Snapshots reach the sink in
// sequence order, so the sink is called with the lock held and must not
// block; use a Dispatcher.
type Reconciler struct {
	mu    sync.Mutex
	state logic.State

	lines Lines
	sink  Sink
	now   func() time.Time
	log   *zap.SugaredLogger
}

// NewReconciler creates a Reconciler with zeroed state. A nil sink discards
// snapshots.
func NewReconciler(ctx context.Context, lines Lines, sink Sink) *Reconciler {
	if sink == nil {
		sink = discardSink{}
	}
	return &Reconciler{
		lines: lines,
		sink:  sink,
		now:   time.Now,
		log:   logger.FromContext(ctx).Named("reconciler"),
	}
}

// OnEdge applies a motion edge. A rising edge sets motion active, counts one
// event and drives the LED high; a falling edge clears motion and drives
// the LED low. The LED write is part of the same critical section as the
// state change. Any other edge value is a caller bug and panics.
func (r *Reconciler) OnEdge(edge gpio.Edge) {
	var (
		rising bool
		level  gpio.Level
	)
	switch edge {
	case gpio.EdgeRising:
		rising, level = true, gpio.High
	case gpio.EdgeFalling:
		rising, level = false, gpio.Low
	default:
		panic(fmt.Sprintf("monitor: OnEdge called with invalid edge %v", edge))
	}

	var ledErr error

	r.mu.Lock()
	r.state.ApplyMotion(rising, r.now())
	if r.lines.LED != nil {
		ledErr = r.lines.LED.Write(level)
	}
	snap := r.state.Publish()
	r.sink.Publish(snap)
	r.mu.Unlock()

	if ledErr != nil {
		r.log.Warnw("led write failed", "error", ledErr)
	}
	r.log.Debugw("edge", "edge", edge, "motion", snap.MotionActive, "count", snap.EventCount)
}

// OnPollTick reads the door and reset lines and applies them: the door is
// open when its line is high, and the counter is cleared when the reset
// line is low. A failed read skips only that field. A snapshot is always
// published, and read errors are returned joined.
func (r *Reconciler) OnPollTick() error {
	var (
		in   logic.TickInput
		errs []error
	)

	if r.lines.Door != nil {
		level, err := r.lines.Door.Read()
		if err != nil {
			errs = append(errs, fmt.Errorf("door: %w", err))
		} else {
			open := level == gpio.High
			in.DoorHigh = &open
		}
	}

	if r.lines.Reset != nil {
		level, err := r.lines.Reset.Read()
		if err != nil {
			errs = append(errs, fmt.Errorf("reset: %w", err))
		} else {
			pressed := level == gpio.Low
			in.ResetLow = &pressed
		}
	}

	r.mu.Lock()
	r.state.ApplyTick(in, r.now())
	r.sink.Publish(r.state.Publish())
	r.mu.Unlock()

	return errors.Join(errs...)
}

// Snapshot returns the current state.
func (r *Reconciler) Snapshot() logic.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Snapshot()
}
