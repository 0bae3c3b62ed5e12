package tokens

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps the token pair in memory for tests and ephemeral
// sessions. It honors the same expiry contract as the persistent stores.
type InMemoryStore struct {
	mu   sync.RWMutex
	pair *Pair
	now  func() time.Time
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{now: time.Now}
}

// SetClock overrides the time source for expiry checks in tests.
func (s *InMemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *InMemoryStore) Get(_ context.Context, kind Kind) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pair == nil {
		return pick(Pair{}, kind, s.now())
	}
	return pick(*s.pair, kind, s.now())
}

func (s *InMemoryStore) Set(_ context.Context, pair Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = &pair
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = nil
	return nil
}
