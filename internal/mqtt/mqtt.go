// Package mqtt publishes sensor state, transition events and lifecycle
// events to an MQTT broker, with a fake for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/pir-monitor/internal/logic"
)

// Topics.
const (
	// TopicState carries the latest snapshot, retained.
	TopicState = "home/pir/sensor/state"
	// TopicEvents carries transition events.
	TopicEvents = "home/pir/sensor/events"
	// TopicSystem carries lifecycle events.
	TopicSystem = "home/pir/sensor/system"
)

// System event names.
const (
	EventStartup     = "STARTUP"
	EventShutdown    = "SHUTDOWN"
	EventHeartbeat   = "HEARTBEAT"
	EventOffline     = "OFFLINE"
	EventReconnected = "RECONNECTED"
)

// Publisher publishes to MQTT.
type Publisher interface {
	// Publish sends a transition event.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishState sends the retained state snapshot.
	PublishState(snap logic.Snapshot) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g. "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g. "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload is the message published on TopicEvents.
type Payload struct {
	PIR EventPayload `json:"pir"`
}

// EventPayload contains the event details and the state after it.
type EventPayload struct {
	Timestamp  string `json:"timestamp"`
	Event      string `json:"event"`
	Motion     string `json:"motion"`
	Door       string `json:"door"`
	EventCount uint64 `json:"event_count"`
}

// StatePayload is the message published on TopicState.
type StatePayload struct {
	State StateInner `json:"state"`
}

// StateInner contains the snapshot fields.
type StateInner struct {
	Timestamp  string `json:"timestamp"`
	Seq        uint64 `json:"seq"`
	Motion     string `json:"motion"`
	Door       string `json:"door"`
	EventCount uint64 `json:"event_count"`
}

// MotionString renders the motion flag as ACTIVE or IDLE.
func MotionString(active bool) string {
	if active {
		return "ACTIVE"
	}
	return "IDLE"
}

// DoorString renders the door flag as OPEN or CLOSED.
func DoorString(open bool) string {
	if open {
		return "OPEN"
	}
	return "CLOSED"
}

// FormatPayload creates the JSON payload for a transition event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		PIR: EventPayload{
			Timestamp:  event.Timestamp.UTC().Format(time.RFC3339),
			Event:      string(event.Type),
			Motion:     MotionString(event.State.MotionActive),
			Door:       DoorString(event.State.DoorOpen),
			EventCount: event.State.EventCount,
		},
	}
	return json.Marshal(payload)
}

// FormatStatePayload creates the JSON payload for a state snapshot.
func FormatStatePayload(snap logic.Snapshot) ([]byte, error) {
	payload := StatePayload{
		State: StateInner{
			Timestamp:  snap.Time.UTC().Format(time.RFC3339),
			Seq:        snap.Seq,
			Motion:     MotionString(snap.MotionActive),
			Door:       DoorString(snap.DoorOpen),
			EventCount: snap.EventCount,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// NopPublisher discards everything. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(logic.Event) error         { return nil }
func (NopPublisher) PublishState(logic.Snapshot) error { return nil }
func (NopPublisher) PublishSystem(SystemEvent) error   { return nil }
func (NopPublisher) Close() error                      { return nil }
func (NopPublisher) IsConnected() bool                 { return false }
