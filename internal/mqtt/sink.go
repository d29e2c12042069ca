package mqtt

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/sweeney/pir-monitor/internal/logger"
	"github.com/sweeney/pir-monitor/internal/logic"
)

// Sink turns the snapshot stream into MQTT messages: a transition event
// for each change since the previous snapshot and the retained state when
// anything changed. Snapshots that carry no change publish nothing.
// Publish errors are logged and dropped.
type Sink struct {
	pub Publisher
	log *zap.SugaredLogger

	mu   sync.Mutex
	prev logic.Snapshot
	seen bool
}

// NewSink creates a Sink publishing through pub.
func NewSink(ctx context.Context, pub Publisher) *Sink {
	return &Sink{
		pub: pub,
		log: logger.FromContext(ctx).Named("mqtt-sink"),
	}
}

// Publish implements monitor.Sink.
func (s *Sink) Publish(snap logic.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seen && snap.Seq <= s.prev.Seq {
		s.log.Debugw("stale snapshot ignored", "seq", snap.Seq, "last", s.prev.Seq)
		return
	}

	prev, first := s.prev, !s.seen
	s.prev, s.seen = snap, true

	if !first && logic.Equal(prev, snap) {
		return
	}

	for _, ev := range logic.Diff(prev, snap) {
		if err := s.pub.Publish(ev); err != nil {
			s.log.Warnw("publish event failed", "event", ev.Type, "error", err)
		}
	}
	if err := s.pub.PublishState(snap); err != nil {
		s.log.Warnw("publish state failed", "seq", snap.Seq, "error", err)
	}
}
