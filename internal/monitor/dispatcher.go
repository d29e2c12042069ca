package monitor

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sweeney/pir-monitor/internal/logger"
	"github.com/sweeney/pir-monitor/internal/logic"
)

// DefaultQueueSize is the number of snapshots a Dispatcher holds before it
// starts dropping the oldest.
const DefaultQueueSize = 64

// Dispatcher is a Sink that queues snapshots and delivers them to
// downstream sinks on its own goroutine. Publish never blocks: when the
// queue is full the oldest snapshot is dropped, so the latest state always
// gets through.
type Dispatcher struct {
	mu       sync.Mutex
	queue    []logic.Snapshot
	capacity int
	dropped  uint64
	overflow bool // true if any snapshot was dropped since the queue last emptied

	notify chan struct{}
	sinks  []Sink
	log    *zap.SugaredLogger
}

// NewDispatcher creates a Dispatcher delivering to sinks in order.
// A capacity <= 0 uses DefaultQueueSize.
func NewDispatcher(ctx context.Context, capacity int, sinks ...Sink) *Dispatcher {
	if capacity <= 0 {
		capacity = DefaultQueueSize
	}
	return &Dispatcher{
		queue:    make([]logic.Snapshot, 0, capacity),
		capacity: capacity,
		notify:   make(chan struct{}, 1),
		sinks:    sinks,
		log:      logger.FromContext(ctx).Named("dispatch"),
	}
}

// Publish enqueues snap for delivery.
func (d *Dispatcher) Publish(snap logic.Snapshot) {
	var warn bool

	d.mu.Lock()
	if len(d.queue) == d.capacity {
		// Shift instead of reslicing so the backing array does not creep.
		copy(d.queue, d.queue[1:])
		d.queue = d.queue[:len(d.queue)-1]
		d.dropped++
		if !d.overflow {
			d.overflow = true
			warn = true
		}
	}
	d.queue = append(d.queue, snap)
	d.mu.Unlock()

	if warn {
		d.log.Warnf("queue full (%d snapshots), dropping oldest", d.capacity)
	}

	select {
	case d.notify <- struct{}{}:
	default:
	}
}

// Dropped returns how many snapshots were discarded because the queue was full.
func (d *Dispatcher) Dropped() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Run delivers queued snapshots until ctx is cancelled, then delivers
// whatever is still queued and returns.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case <-d.notify:
			d.drain()
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		batch := d.take()
		if len(batch) == 0 {
			return
		}
		for _, snap := range batch {
			for _, s := range d.sinks {
				d.deliver(s, snap)
			}
		}
	}
}

func (d *Dispatcher) take() []logic.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.queue) == 0 {
		return nil
	}
	batch := make([]logic.Snapshot, len(d.queue))
	copy(batch, d.queue)
	d.queue = d.queue[:0]
	d.overflow = false
	return batch
}

// deliver recovers a panicking sink so the others keep receiving snapshots.
func (d *Dispatcher) deliver(s Sink, snap logic.Snapshot) {
	defer func() {
		if rec := recover(); rec != nil {
			d.log.Errorw("sink panicked", "sink", fmt.Sprintf("%T", s), "panic", rec, "seq", snap.Seq)
		}
	}()
	s.Publish(snap)
}
