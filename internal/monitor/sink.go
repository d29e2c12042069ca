// Package monitor reconciles the edge-triggered motion line and the polled
// door and reset lines into one state, and hands snapshots of it to sinks.
//
// Two goroutines mutate state: the GPIO event goroutine (via EdgeSource)
// and the Poller. Both go through Reconciler, which serializes them behind
// one mutex. Snapshots leave through a Dispatcher so a slow sink never
// delays either producer.
package monitor

import "github.com/sweeney/pir-monitor/internal/logic"

// Sink receives state snapshots.
type Sink interface {
	// Publish hands over a snapshot. Implementations used directly by the
	// Reconciler must not block.
	Publish(snap logic.Snapshot)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(logic.Snapshot)

// Publish calls f(snap).
func (f SinkFunc) Publish(snap logic.Snapshot) {
	f(snap)
}

type discardSink struct{}

func (discardSink) Publish(logic.Snapshot) {}
