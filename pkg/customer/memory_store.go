package customer

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store using an in-memory map.
// Safe for concurrent use; intended for tests and single-process setups.
type MemoryStore struct {
	mu        sync.RWMutex
	customers map[string]*Customer
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		customers: make(map[string]*Customer),
	}
}

// Get retrieves a customer by reference ID.
func (s *MemoryStore) Get(ctx context.Context, referenceID string) (*Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[referenceID]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	return c.clone(), nil
}

// Upsert creates or updates a customer keyed by ReferenceID.
func (s *MemoryStore) Upsert(ctx context.Context, c *Customer) (*Customer, error) {
	if c == nil || c.ReferenceID == "" {
		return nil, ErrMissingReferenceID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := c.clone()
	now := time.Now().UTC()
	if existing, ok := s.customers[c.ReferenceID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	s.customers[c.ReferenceID] = stored
	return stored.clone(), nil
}
