package attempt

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists finished attempts.
type Store interface {
	Save(ctx context.Context, a Attempt) (string, error)
	Get(ctx context.Context, id string) (*Attempt, error)
	// List returns the most recent attempts first, without items.
	List(ctx context.Context, limit int) ([]Attempt, error)
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	attempts map[string]Attempt
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory attempt store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		attempts: make(map[string]Attempt),
	}
}

func (s *MemoryStore) Save(_ context.Context, a Attempt) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.FinishedAt.IsZero() {
		a.FinishedAt = time.Now()
	}
	a.Items = append([]Item(nil), a.Items...)
	s.attempts[a.ID] = a
	return a.ID, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.attempts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	a.Items = append([]Item(nil), a.Items...)
	return &a, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Attempt, 0, len(s.attempts))
	for _, a := range s.attempts {
		a.Items = nil
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FinishedAt.After(out[j].FinishedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
