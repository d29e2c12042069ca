package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Motion        string       `json:"motion"`
	Door          string       `json:"door"`
	EventCount    uint64       `json:"event_count"`
	Seq           uint64       `json:"seq"`
	GPIO          GPIOJSON     `json:"gpio"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// GPIOJSON reports the GPIO controller state.
type GPIOJSON struct {
	Enabled bool   `json:"enabled"`
	Status  string `json:"status"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	MotionPin   int    `json:"motion_pin"`
	LEDPin      int    `json:"led_pin"`
	DoorPin     int    `json:"door_pin"`
	ResetPin    int    `json:"reset_pin"`
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	WSBroker    string `json:"ws_broker,omitempty"`
}

// MotionText renders the motion flag.
func MotionText(active bool) string {
	if active {
		return "ACTIVE"
	}
	return "IDLE"
}

// DoorText renders the door flag.
func DoorText(open bool) string {
	if open {
		return "OPEN"
	}
	return "CLOSED"
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Motion:        MotionText(snap.Sensor.MotionActive),
		Door:          DoorText(snap.Sensor.DoorOpen),
		EventCount:    snap.Sensor.EventCount,
		Seq:           snap.Sensor.Seq,
		GPIO:          GPIOJSON{Enabled: snap.GPIOEnabled, Status: snap.GPIOStatus},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			MotionPin:   snap.Config.Pins.Motion,
			LEDPin:      snap.Config.Pins.LED,
			DoorPin:     snap.Config.Pins.Door,
			ResetPin:    snap.Config.Pins.Reset,
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			WSBroker:    snap.Config.WSBroker,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
