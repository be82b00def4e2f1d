package gallery

import (
	"log/slog"
	"sync"
)

// Listener receives a snapshot after every dispatched action
type Listener func(State)

// Store owns the gallery state. Dispatch calls are applied one at a time in
// the order they acquire the store.
type Store struct {
	mu    sync.Mutex
	state State

	// dispatchMu orders whole dispatches, listener calls included
	dispatchMu sync.Mutex
	listeners  map[int]Listener
	order      []int
	nextID     int

	logger *slog.Logger
}

func NewStore(initial State, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if initial.index == nil {
		initial.setImages(initial.Images)
	}
	return &Store{
		state:     initial,
		listeners: make(map[int]Listener),
		logger:    logger,
	}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Dispatch applies a and returns the resulting snapshot. Listeners run
// after the state lock is released and must not call Dispatch themselves.
func (s *Store) Dispatch(a Action) State {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	s.state = Reduce(s.state, a)
	snapshot := s.state.Clone()
	listeners := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	s.logger.Debug("gallery action dispatched",
		"action", a.Name(),
		"images", len(snapshot.Images),
		"current", snapshot.CurrentImageUUID,
	)

	for _, l := range listeners {
		l(snapshot.Clone())
	}

	return snapshot
}

// Subscribe registers l and returns a function that removes it
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.order = append(s.order, id)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.listeners[id]; !ok {
			return
		}
		delete(s.listeners, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i:i], s.order[i+1:]...)
				break
			}
		}
	}
}
