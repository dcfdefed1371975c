package recyclebin

import (
	"mediasweep/internal/media"
	"mediasweep/internal/metrics"
)

// EventType identifies what changed in the store.
type EventType int

const (
	EventRecycled EventType = iota
	EventRestored
	EventDeleted
	EventEmptied
)

func (t EventType) String() string {
	switch t {
	case EventRecycled:
		return "recycled"
	case EventRestored:
		return "restored"
	case EventDeleted:
		return "deleted"
	case EventEmptied:
		return "emptied"
	default:
		return "unknown"
	}
}

// Event is sent to subscribers after a mutation has been applied.
type Event struct {
	Type  EventType
	Items []media.Item
	// Count and TotalSize describe the bin after the mutation.
	Count     int
	TotalSize int64
}

// Subscribe returns a channel receiving every future event. Sends never
// block: a subscriber whose buffer is full misses events. Call cancel to
// unsubscribe and close the channel.
func (s *Store) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once bool
	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if once {
			return
		}
		once = true
		delete(s.subs, id)
		close(ch)
	}
	return ch, cancel
}

func (s *Store) emit(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			metrics.RecycleBinEventsDropped.Inc()
		}
	}
}
