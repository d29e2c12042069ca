// Package logic contains pure business logic for motion/door state tracking.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Snapshot is a point-in-time copy of the sensor state.
// It is a value type with no references, so a held copy never changes.
type Snapshot struct {
	MotionActive bool
	DoorOpen     bool
	EventCount   uint64

	// Seq orders snapshots by publish time. 0 means never published.
	Seq uint64
	// Time is when the mutation that produced the snapshot completed.
	Time time.Time
}

// EventType represents a state transition event.
type EventType string

const (
	EventMotionOn     EventType = "MOTION_ON"
	EventMotionOff    EventType = "MOTION_OFF"
	EventDoorOpen     EventType = "DOOR_OPEN"
	EventDoorClosed   EventType = "DOOR_CLOSED"
	EventCounterReset EventType = "COUNTER_RESET"
)

// Event represents a state transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	State     Snapshot
}

// TickInput is what a poll tick observed. A nil field means the read failed
// and that field must not be updated.
type TickInput struct {
	DoorHigh *bool
	ResetLow *bool
}
