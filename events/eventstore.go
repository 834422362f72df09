package events

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// EventStore is the interface for storing and retrieving events.
type EventStore interface {
	Append(event Event) error
	LoadEvents(tableID int) ([]Event, error)
}

// InMemoryEventStore keeps the most recent events of each table in memory.
type InMemoryEventStore struct {
	events map[int][]Event
	limit  int
	mutex  sync.RWMutex

	rejected atomic.Int64
}

// NewInMemoryEventStore creates a store keeping at most limit events per table (0 means unbounded).
func NewInMemoryEventStore(limit int) *InMemoryEventStore {
	return &InMemoryEventStore{
		events: make(map[int][]Event),
		limit:  limit,
	}
}

// Append adds a new event to the store.
func (s *InMemoryEventStore) Append(event Event) error {
	tableID := GetTableID(event)
	if tableID < 0 {
		return fmt.Errorf("event %s has no tableID", event.EventName())
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	list := append(s.events[tableID], event)
	if s.limit > 0 && len(list) > s.limit {
		list = append([]Event(nil), list[len(list)-s.limit:]...)
	}
	s.events[tableID] = list
	return nil
}

// LoadEvents retrieves all events for the given tableID.
func (s *InMemoryEventStore) LoadEvents(tableID int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events := s.events[tableID]
	result := make([]Event, len(events))
	copy(result, events)
	return result, nil
}

// Emit appends the event. Events without a table id are counted in Rejected.
func (s *InMemoryEventStore) Emit(event Event) {
	if err := s.Append(event); err != nil {
		s.rejected.Add(1)
	}
}

// Rejected returns how many emitted events could not be stored
func (s *InMemoryEventStore) Rejected() int64 {
	return s.rejected.Load()
}
