package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/pir-monitor/internal/logic"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{PollMs: 500, Broker: "tcp://localhost:1883", HTTPAddr: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.PollMs != 500 {
		t.Errorf("Config.PollMs: got %d, want 500", snap.Config.PollMs)
	}
	if snap.Config.HTTPAddr != ":80" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":80")
	}
	if snap.Sensor != (logic.Snapshot{}) {
		t.Errorf("expected zero sensor state initially, got %+v", snap.Sensor)
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestPublishAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Publish(logic.Snapshot{MotionActive: true, DoorOpen: true, EventCount: 3, Seq: 7})

	snap := tr.Snapshot()
	if !snap.Sensor.MotionActive {
		t.Error("expected MotionActive=true")
	}
	if !snap.Sensor.DoorOpen {
		t.Error("expected DoorOpen=true")
	}
	if snap.Sensor.EventCount != 3 {
		t.Errorf("EventCount: got %d, want 3", snap.Sensor.EventCount)
	}
}

func TestPublishIgnoresOlderSnapshots(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Publish(logic.Snapshot{EventCount: 5, Seq: 10})
	tr.Publish(logic.Snapshot{EventCount: 4, Seq: 9})

	if got := tr.Snapshot().Sensor.EventCount; got != 5 {
		t.Errorf("EventCount: got %d, want 5 (older snapshot must not win)", got)
	}
}

func TestSetGPIO(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetGPIO("GPIO pin initialized correctly.", true)

	snap := tr.Snapshot()
	if snap.GPIOStatus != "GPIO pin initialized correctly." {
		t.Errorf("GPIOStatus: got %q", snap.GPIOStatus)
	}
	if !snap.GPIOEnabled {
		t.Error("expected GPIOEnabled=true")
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}

	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"})

	snap := tr.Snapshot()
	if snap.Network == nil {
		t.Fatal("expected non-nil Network")
	}
	if snap.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want %q", snap.Network.IP, "192.168.1.42")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Publish(logic.Snapshot{MotionActive: true, EventCount: 1, Seq: 1})

	snap1 := tr.Snapshot()

	tr.Publish(logic.Snapshot{MotionActive: false, EventCount: 1, Seq: 2})

	if !snap1.Sensor.MotionActive {
		t.Error("snapshot should be a copy; MotionActive was modified")
	}
}

func testSnapshot() Snapshot {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return Snapshot{
		Sensor:        logic.Snapshot{MotionActive: true, DoorOpen: false, EventCount: 5, Seq: 11},
		GPIOStatus:    "GPIO pin initialized correctly.",
		GPIOEnabled:   true,
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config: Config{
			Pins:        Pins{Motion: 5, LED: 6, Door: 13, Reset: 26},
			PollMs:      500,
			HeartbeatMs: 900000,
			Broker:      "tcp://localhost:1883",
			HTTPAddr:    ":80",
		},
	}
}

func TestFormatJSON(t *testing.T) {
	data := FormatJSON(testSnapshot())

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Motion != "ACTIVE" {
		t.Errorf("Motion: got %q, want ACTIVE", parsed.Status.Motion)
	}
	if parsed.Status.Door != "CLOSED" {
		t.Errorf("Door: got %q, want CLOSED", parsed.Status.Door)
	}
	if parsed.Status.EventCount != 5 {
		t.Errorf("EventCount: got %d, want 5", parsed.Status.EventCount)
	}
	if parsed.Status.Seq != 11 {
		t.Errorf("Seq: got %d, want 11", parsed.Status.Seq)
	}
	if !parsed.Status.GPIO.Enabled || parsed.Status.GPIO.Status != "GPIO pin initialized correctly." {
		t.Errorf("GPIO: got %+v", parsed.Status.GPIO)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
	if !parsed.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if parsed.Status.Config.DoorPin != 13 || parsed.Status.Config.PollMs != 500 {
		t.Errorf("Config: got %+v", parsed.Status.Config)
	}
	// Event and Reason should be omitted
	if parsed.Status.Event != "" {
		t.Errorf("expected empty Event for web format, got %q", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("expected empty Reason for web format, got %q", parsed.Status.Reason)
	}
}

func TestFormatJSONInitialState(t *testing.T) {
	snap := Snapshot{
		GPIOStatus: "There is no GPIO controller on this device.",
		StartTime:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:        time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Motion != "IDLE" {
		t.Errorf("Motion: got %q, want IDLE", parsed.Status.Motion)
	}
	if parsed.Status.Door != "CLOSED" {
		t.Errorf("Door: got %q, want CLOSED", parsed.Status.Door)
	}
	if parsed.Status.EventCount != 0 {
		t.Errorf("EventCount: got %d, want 0", parsed.Status.EventCount)
	}
	if parsed.Status.GPIO.Enabled {
		t.Error("expected GPIO.Enabled=false")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	data := FormatStatusEvent(testSnapshot(), "HEARTBEAT", "")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "HEARTBEAT" {
		t.Errorf("Event: got %q, want HEARTBEAT", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("Reason: got %q, want empty", parsed.Status.Reason)
	}
	if parsed.Status.Motion != "ACTIVE" {
		t.Errorf("Motion: got %q, want ACTIVE", parsed.Status.Motion)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
}

func TestFormatStatusEventShutdown(t *testing.T) {
	data := FormatStatusEvent(testSnapshot(), "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	data := FormatStatusEvent(testSnapshot(), "STARTUP", "")

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if _, exists := status["network"]; exists {
		t.Error("network should be omitted when nil")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := testSnapshot()
	snap.Network = &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if parsed.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", parsed.Status.Network.IP)
	}
	if parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network.SSID: got %q, want MyNet", parsed.Status.Network.SSID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 1000; i++ {
			tr.Publish(logic.Snapshot{MotionActive: i%2 == 0, EventCount: uint64(i), Seq: uint64(i)})
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetNetwork(&NetworkInfo{IP: "1.2.3.4"})
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()

	if got := tr.Snapshot().Sensor.Seq; got != 1000 {
		t.Errorf("final Seq: got %d, want 1000", got)
	}
}
