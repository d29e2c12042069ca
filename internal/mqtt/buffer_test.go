package mqtt

import (
	"testing"
)

func eventMsg(i int) bufferedMsg {
	return bufferedMsg{topic: TopicEvents, payload: []byte{byte(i)}}
}

func TestOutboxEmptyDrain(t *testing.T) {
	o := newOutbox(10, nil)
	if got := o.drain(); got != nil {
		t.Errorf("drain of empty outbox: got %d messages, want nil", len(got))
	}
}

func TestOutboxKeepsOrder(t *testing.T) {
	o := newOutbox(10, nil)
	for i := 0; i < 5; i++ {
		o.push(eventMsg(i))
	}
	if o.len() != 5 {
		t.Fatalf("len: got %d, want 5", o.len())
	}

	got := o.drain()
	if len(got) != 5 {
		t.Fatalf("drain: got %d messages, want 5", len(got))
	}
	for i, m := range got {
		if m.payload[0] != byte(i) {
			t.Errorf("message %d: got payload %d", i, m.payload[0])
		}
	}
	if o.len() != 0 {
		t.Errorf("len after drain: got %d, want 0", o.len())
	}
}

func TestOutboxDropsOldest(t *testing.T) {
	o := newOutbox(5, nil)
	for i := 0; i < 8; i++ {
		o.push(eventMsg(i))
	}
	if o.dropped != 3 {
		t.Errorf("dropped: got %d, want 3", o.dropped)
	}

	got := o.drain()
	if len(got) != 5 {
		t.Fatalf("drain: got %d messages, want 5", len(got))
	}
	for i, m := range got {
		if want := byte(i + 3); m.payload[0] != want {
			t.Errorf("message %d: got payload %d, want %d", i, m.payload[0], want)
		}
	}
	if o.overflow {
		t.Error("overflow should reset on drain")
	}
}

func TestOutboxCoalescesRetained(t *testing.T) {
	o := newOutbox(10, nil)
	o.push(bufferedMsg{topic: TopicState, payload: []byte("s1"), qos: 1, retained: true})
	o.push(eventMsg(1))
	o.push(bufferedMsg{topic: TopicSystem, payload: []byte("startup"), qos: 1, retained: true})
	o.push(bufferedMsg{topic: TopicState, payload: []byte("s2"), qos: 1, retained: true})
	o.push(bufferedMsg{topic: TopicSystem, payload: []byte("heartbeat"), qos: 1})

	got := o.drain()
	want := []struct {
		topic   string
		payload string
	}{
		{TopicEvents, "\x01"},
		{TopicSystem, "startup"},
		{TopicState, "s2"},
		{TopicSystem, "heartbeat"},
	}
	if len(got) != len(want) {
		t.Fatalf("drain: got %d messages, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].topic != w.topic || string(got[i].payload) != w.payload {
			t.Errorf("message %d: got %s %q, want %s %q", i, got[i].topic, got[i].payload, w.topic, w.payload)
		}
	}
}

func TestOutboxMultipleCycles(t *testing.T) {
	o := newOutbox(5, nil)
	for i := 0; i < 3; i++ {
		o.push(eventMsg(i))
	}
	if got := o.drain(); len(got) != 3 {
		t.Fatalf("cycle 1: got %d messages, want 3", len(got))
	}

	for i := 10; i < 14; i++ {
		o.push(eventMsg(i))
	}
	got := o.drain()
	if len(got) != 4 {
		t.Fatalf("cycle 2: got %d messages, want 4", len(got))
	}
	for i, m := range got {
		if want := byte(10 + i); m.payload[0] != want {
			t.Errorf("cycle 2 message %d: got %d, want %d", i, m.payload[0], want)
		}
	}
}

func TestOutboxPreservesFields(t *testing.T) {
	o := newOutbox(10, nil)
	o.push(bufferedMsg{topic: TopicSystem, payload: []byte(`{"test":true}`), qos: 1, retained: true})

	got := o.drain()
	if len(got) != 1 {
		t.Fatalf("drain: got %d messages, want 1", len(got))
	}
	m := got[0]
	if m.topic != TopicSystem || string(m.payload) != `{"test":true}` || m.qos != 1 || !m.retained {
		t.Errorf("got %+v", m)
	}
}
