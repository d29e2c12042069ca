package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sweeney/pir-monitor/internal/gpio"
	"github.com/sweeney/pir-monitor/internal/logic"
)

var testPins = Pins{
	Motion: gpio.DefaultPinMotion,
	LED:    gpio.DefaultPinLED,
	Door:   gpio.DefaultPinDoor,
	Reset:  gpio.DefaultPinReset,
}

func newFakeController() *gpio.FakeController {
	ctrl := gpio.NewFakeController()
	ctrl.Lines[testPins.Motion] = gpio.NewFakeLine(testPins.Motion, gpio.Low)
	ctrl.Lines[testPins.LED] = gpio.NewFakeLine(testPins.LED, gpio.Low)
	ctrl.Lines[testPins.Door] = gpio.NewFakeLine(testPins.Door, gpio.Low)
	ctrl.Lines[testPins.Reset] = gpio.NewFakeLine(testPins.Reset, gpio.High)
	return ctrl
}

func TestOpenConfiguresLines(t *testing.T) {
	ctrl := newFakeController()
	sink := &recordingSink{}

	m, err := Open(context.Background(), ctrl, testPins, time.Hour, sink)
	require.NoError(t, err)
	require.True(t, m.Enabled())
	require.Equal(t, StatusReady, m.Status())

	require.Equal(t, gpio.ModeOutput, ctrl.Line(testPins.LED).Mode())
	require.Equal(t, []gpio.Level{gpio.Low}, ctrl.Line(testPins.LED).Writes())
	require.Equal(t, gpio.ModeInputPullUp, ctrl.Line(testPins.Door).Mode())
	require.Equal(t, gpio.ModeInputPullUp, ctrl.Line(testPins.Reset).Mode())
	require.Equal(t, gpio.ModeInput, ctrl.Line(testPins.Motion).Mode())
	require.ElementsMatch(t,
		[]int{testPins.Motion, testPins.LED, testPins.Door, testPins.Reset}, ctrl.Opened())

	// Nothing is published until something happens.
	require.Empty(t, sink.all())
}

func TestOpenMotionEdgeReachesReconciler(t *testing.T) {
	ctrl := newFakeController()
	sink := &recordingSink{}

	m, err := Open(context.Background(), ctrl, testPins, time.Hour, sink)
	require.NoError(t, err)

	motion := ctrl.Line(testPins.Motion)
	require.True(t, motion.Trigger(gpio.EdgeRising))

	snap := m.Snapshot()
	require.True(t, snap.MotionActive)
	require.Equal(t, uint64(1), snap.EventCount)
	require.Equal(t, []gpio.Level{gpio.Low, gpio.High}, ctrl.Line(testPins.LED).Writes())

	require.True(t, motion.Trigger(gpio.EdgeFalling))
	require.False(t, m.Snapshot().MotionActive)
	require.Len(t, sink.all(), 2)
}

// TestDisabledMonitor covers a device without a GPIO controller: the state
// never leaves zero and no lines are touched.
func TestDisabledMonitor(t *testing.T) {
	sink := &recordingSink{}

	m, err := Open(context.Background(), nil, testPins, DefaultPollInterval, sink)
	require.NoError(t, err)
	require.False(t, m.Enabled())
	require.Equal(t, StatusUnavailable, m.Status())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(ctx)
	}()

	time.Sleep(5 * time.Millisecond)
	require.Equal(t, logic.Snapshot{}, m.Snapshot())
	require.Empty(t, sink.all())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	_, err = m.Levels()
	require.Error(t, err)
	require.NoError(t, m.Close())
}

func TestOpenRejectsInterval(t *testing.T) {
	_, err := Open(context.Background(), newFakeController(), testPins, 0, nil)
	require.ErrorIs(t, err, errInvalidInterval)
}

// TestOpenMotionFailureIsPartial checks that polling still works when the
// motion line cannot be requested.
func TestOpenMotionFailureIsPartial(t *testing.T) {
	ctrl := newFakeController()
	ctrl.OpenErrors[testPins.Motion] = errors.New("device or resource busy")

	m, err := Open(context.Background(), ctrl, testPins, time.Hour, nil)
	require.NoError(t, err)
	require.Equal(t, StatusPartial, m.Status())
	require.True(t, m.Enabled())

	ctrl.Line(testPins.Door).SetLevels(gpio.High)
	require.NoError(t, m.Reconciler().OnPollTick())
	require.True(t, m.Snapshot().DoorOpen)

	_, err = m.Levels()
	require.ErrorContains(t, err, "motion: line unavailable")
}

func TestOpenDoorFailureIsPartial(t *testing.T) {
	ctrl := newFakeController()
	ctrl.OpenErrors[testPins.Door] = errors.New("no such line")

	m, err := Open(context.Background(), ctrl, testPins, time.Hour, nil)
	require.NoError(t, err)
	require.Equal(t, StatusPartial, m.Status())

	// The door is skipped; the reset line is still honoured.
	ctrl.Line(testPins.Motion).Trigger(gpio.EdgeRising)
	ctrl.Line(testPins.Reset).SetLevels(gpio.Low)
	require.NoError(t, m.Reconciler().OnPollTick())

	snap := m.Snapshot()
	require.False(t, snap.DoorOpen)
	require.Zero(t, snap.EventCount)
}

func TestMonitorRunPolls(t *testing.T) {
	ctrl := newFakeController()
	sink := &recordingSink{}

	m, err := Open(context.Background(), ctrl, testPins, 2*time.Millisecond, sink)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	ctrl.Line(testPins.Door).SetLevels(gpio.High)
	require.Eventually(t, func() bool { return m.Snapshot().DoorOpen }, time.Second, time.Millisecond)

	ctrl.Line(testPins.Door).SetLevels(gpio.Low)
	require.Eventually(t, func() bool { return !m.Snapshot().DoorOpen }, time.Second, time.Millisecond)
}

func TestMonitorLevels(t *testing.T) {
	ctrl := newFakeController()
	ctrl.Line(testPins.Motion).SetLevels(gpio.High)
	ctrl.Line(testPins.Door).SetLevels(gpio.High)

	m, err := Open(context.Background(), ctrl, testPins, time.Hour, nil)
	require.NoError(t, err)

	lv, err := m.Levels()
	require.NoError(t, err)
	require.Equal(t, Levels{Motion: gpio.High, Door: gpio.High, Reset: gpio.High}, lv)

	ctrl.Line(testPins.Reset).SetReadError(errors.New("EIO"))
	_, err = m.Levels()
	require.ErrorContains(t, err, "reset:")
}

func TestMonitorClose(t *testing.T) {
	ctrl := newFakeController()

	m, err := Open(context.Background(), ctrl, testPins, time.Hour, nil)
	require.NoError(t, err)

	ctrl.Line(testPins.Motion).Trigger(gpio.EdgeRising)
	require.NoError(t, m.Close())

	led := ctrl.Line(testPins.LED)
	require.Equal(t, []gpio.Level{gpio.Low, gpio.High, gpio.Low}, led.Writes())
	for _, pin := range []int{testPins.Motion, testPins.LED, testPins.Door, testPins.Reset} {
		require.True(t, ctrl.Line(pin).Closed(), "pin %d not closed", pin)
	}
	require.True(t, ctrl.Closed())
}
