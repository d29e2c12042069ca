// Package status provides a thread-safe status tracker for the pir-monitor daemon.
// It is read by the HTTP handlers and fed by the monitor as a snapshot sink.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/pir-monitor/internal/logic"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Pins        Pins
	PollMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	WSBroker    string // Websocket broker URL for browser MQTT (empty = disabled)
}

// Pins are the configured line offsets.
type Pins struct {
	Motion int
	LED    int
	Door   int
	Reset  int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Sensor        logic.Snapshot
	GPIOStatus    string
	GPIOEnabled   bool
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Publish stores the latest sensor snapshot. Snapshots older than the
// one held are ignored.
func (t *Tracker) Publish(s logic.Snapshot) {
	t.mu.Lock()
	if s.Seq >= t.snap.Sensor.Seq {
		t.snap.Sensor = s
	}
	t.mu.Unlock()
}

// SetGPIO sets the GPIO status message and whether a controller is present.
func (t *Tracker) SetGPIO(status string, enabled bool) {
	t.mu.Lock()
	t.snap.GPIOStatus = status
	t.snap.GPIOEnabled = enabled
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
