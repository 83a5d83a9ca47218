// Package memory holds cart records in process memory. Carts do not survive
// a restart, which keeps the service usable when no Redis or Postgres is
// around, e.g. in tests and local development.
package memory

import (
	"context"
	"sync"

	"cart-service/internal/cart"
)

type Store struct {
	mu    sync.RWMutex
	carts map[string][]cart.Item
}

func NewStore() *Store {
	return &Store{carts: make(map[string][]cart.Item)}
}

func (s *Store) Load(ctx context.Context, ownerID string) ([]cart.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, ok := s.carts[ownerID]
	if !ok {
		return nil, nil
	}

	out := make([]cart.Item, len(items))
	copy(out, items)
	return out, nil
}

func (s *Store) Save(ctx context.Context, ownerID string, items []cart.Item) error {
	stored := make([]cart.Item, len(items))
	copy(stored, items)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[ownerID] = stored
	return nil
}

func (s *Store) Delete(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, ownerID)
	return nil
}
