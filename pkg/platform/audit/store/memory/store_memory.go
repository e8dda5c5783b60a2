package memory

import (
	"context"
	"sync"

	audit "orgguard/pkg/platform/audit"
)

// Store is an in-memory audit store for tests and development.
type Store struct {
	mu     sync.RWMutex
	events []audit.Event
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByInvocation returns records for one invocation in append order.
func (s *Store) ListByInvocation(_ context.Context, invocationID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Event
	for _, e := range s.events {
		if e.InvocationID == invocationID {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns every stored record in append order.
func (s *Store) All() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Event, len(s.events))
	copy(out, s.events)
	return out
}
