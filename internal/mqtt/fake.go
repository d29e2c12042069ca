package mqtt

import (
	"sync"

	"github.com/sweeney/pir-monitor/internal/logic"
)

// FakePublisher records published messages for test assertions.
// It is safe for concurrent use; read the recorded slices through the
// accessor methods while other goroutines may still publish.
type FakePublisher struct {
	mu sync.Mutex

	events         []logic.Event
	payloads       [][]byte
	states         []logic.Snapshot
	systemEvents   []SystemEvent
	systemPayloads [][]byte

	publishErr       error
	publishStateErr  error
	publishSystemErr error

	closed    bool
	connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the event.
func (f *FakePublisher) Publish(event logic.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.publishErr != nil {
		return f.publishErr
	}

	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.events = append(f.events, event)
	f.payloads = append(f.payloads, payload)
	return nil
}

// PublishState records the snapshot.
func (f *FakePublisher) PublishState(snap logic.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.publishStateErr != nil {
		return f.publishStateErr
	}
	f.states = append(f.states, snap)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.publishSystemErr != nil {
		return f.publishSystemErr
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.systemEvents = append(f.systemEvents, event)
	f.systemPayloads = append(f.systemPayloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// SetConnected controls the return value of IsConnected.
func (f *FakePublisher) SetConnected(connected bool) {
	f.mu.Lock()
	f.connected = connected
	f.mu.Unlock()
}

// SetPublishError makes Publish fail with err (nil clears it).
func (f *FakePublisher) SetPublishError(err error) {
	f.mu.Lock()
	f.publishErr = err
	f.mu.Unlock()
}

// SetPublishStateError makes PublishState fail with err (nil clears it).
func (f *FakePublisher) SetPublishStateError(err error) {
	f.mu.Lock()
	f.publishStateErr = err
	f.mu.Unlock()
}

// SetPublishSystemError makes PublishSystem fail with err (nil clears it).
func (f *FakePublisher) SetPublishSystemError(err error) {
	f.mu.Lock()
	f.publishSystemErr = err
	f.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (f *FakePublisher) Events() []logic.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logic.Event(nil), f.events...)
}

// Payloads returns a copy of the recorded event payloads.
func (f *FakePublisher) Payloads() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.payloads...)
}

// States returns a copy of the recorded snapshots.
func (f *FakePublisher) States() []logic.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logic.Snapshot(nil), f.states...)
}

// SystemEvents returns a copy of the recorded system events.
func (f *FakePublisher) SystemEvents() []SystemEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SystemEvent(nil), f.systemEvents...)
}

// SystemPayloads returns a copy of the recorded system payloads.
func (f *FakePublisher) SystemPayloads() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.systemPayloads...)
}

// Closed reports whether Close was called.
func (f *FakePublisher) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Reset clears everything recorded and configured.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = nil
	f.payloads = nil
	f.states = nil
	f.systemEvents = nil
	f.systemPayloads = nil
	f.publishErr = nil
	f.publishStateErr = nil
	f.publishSystemErr = nil
	f.closed = false
	f.connected = false
}
