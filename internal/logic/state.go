package logic

import "time"

// State is the mutable sensor state. The zero value is the initial state:
// motion inactive, door closed, no events.
// Not safe for concurrent use; the owner serializes access.
type State struct {
	motionActive bool
	doorOpen     bool
	eventCount   uint64
	seq          uint64
	updated      time.Time
}

// ApplyMotion records a motion edge. A rising edge activates motion and
// counts one event; a falling edge deactivates motion.
func (s *State) ApplyMotion(rising bool, now time.Time) {
	if rising {
		s.motionActive = true
		s.eventCount++
	} else {
		s.motionActive = false
	}
	s.updated = now
}

// ApplyTick records one poll tick. The door is open when its line reads
// high. The counter is cleared whenever the reset line reads low, including
// on every tick while the button is held.
func (s *State) ApplyTick(in TickInput, now time.Time) {
	if in.DoorHigh != nil {
		s.doorOpen = *in.DoorHigh
	}
	if in.ResetLow != nil && *in.ResetLow {
		s.eventCount = 0
	}
	s.updated = now
}

// Publish advances the sequence number and returns the snapshot to publish.
func (s *State) Publish() Snapshot {
	s.seq++
	return s.Snapshot()
}

// Snapshot returns a copy of the state without advancing the sequence.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		MotionActive: s.motionActive,
		DoorOpen:     s.doorOpen,
		EventCount:   s.eventCount,
		Seq:          s.seq,
		Time:         s.updated,
	}
}

// Diff returns the transitions between two consecutive snapshots as seen by
// a consumer. Motion events come first, then door, then counter reset.
// Snapshots may have been skipped in between, so a MOTION_ON is also
// reported when the counter grew while motion stayed active.
func Diff(prev, next Snapshot) []Event {
	var events []Event
	emit := func(t EventType) {
		events = append(events, Event{Timestamp: next.Time, Type: t, State: next})
	}

	switch {
	case next.MotionActive && !prev.MotionActive:
		emit(EventMotionOn)
	case !next.MotionActive && prev.MotionActive:
		emit(EventMotionOff)
	case next.MotionActive && next.EventCount > prev.EventCount:
		emit(EventMotionOn)
	}

	if next.DoorOpen != prev.DoorOpen {
		if next.DoorOpen {
			emit(EventDoorOpen)
		} else {
			emit(EventDoorClosed)
		}
	}

	if next.EventCount == 0 && prev.EventCount > 0 {
		emit(EventCounterReset)
	}

	return events
}

// Equal reports whether two snapshots carry the same sensor state,
// ignoring sequence and time.
func Equal(a, b Snapshot) bool {
	return a.MotionActive == b.MotionActive &&
		a.DoorOpen == b.DoorOpen &&
		a.EventCount == b.EventCount
}
