package mqtt

import "go.uber.org/zap"

// bufferedMsg is a serialized message waiting for a connection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages while the broker is unreachable. A retained message
// replaces any earlier retained message on the same topic, since the broker
// would only keep the last one anyway. When full, the oldest message is
// dropped. Not safe for concurrent use; the caller must synchronize.
type outbox struct {
	msgs     []bufferedMsg
	capacity int
	dropped  int
	overflow bool // set on the first drop, cleared by drain
	log      *zap.SugaredLogger
}

func newOutbox(capacity int, log *zap.SugaredLogger) *outbox {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &outbox{
		msgs:     make([]bufferedMsg, 0, capacity),
		capacity: capacity,
		log:      log,
	}
}

func (o *outbox) push(msg bufferedMsg) {
	if msg.retained {
		for i, m := range o.msgs {
			if m.retained && m.topic == msg.topic {
				o.msgs = append(o.msgs[:i], o.msgs[i+1:]...)
				break
			}
		}
	}

	if len(o.msgs) == o.capacity {
		if !o.overflow {
			o.log.Warnf("outbox full (%d messages), dropping oldest", o.capacity)
			o.overflow = true
		}
		o.dropped++
		copy(o.msgs, o.msgs[1:])
		o.msgs = o.msgs[:len(o.msgs)-1]
	}
	o.msgs = append(o.msgs, msg)
}

// drain returns the queued messages oldest first and empties the outbox.
func (o *outbox) drain() []bufferedMsg {
	if len(o.msgs) == 0 {
		return nil
	}
	out := make([]bufferedMsg, len(o.msgs))
	copy(out, o.msgs)
	o.msgs = o.msgs[:0]
	o.overflow = false
	return out
}

func (o *outbox) len() int {
	return len(o.msgs)
}
