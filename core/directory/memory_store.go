package directory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tablerail/tablerail/core/auth"
	"github.com/tablerail/tablerail/core/tenant"
)

// MemoryStore is an in-process directory for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[int64]tenant.UserRecord
	tenants map[int64]struct{}
}

// NewMemoryStore returns an empty in-memory directory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[int64]tenant.UserRecord),
		tenants: make(map[int64]struct{}),
	}
}

// PutUser adds or replaces a user record.
func (s *MemoryStore) PutUser(record tenant.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[record.ID] = record
}

// PutTenant registers a restaurant id.
func (s *MemoryStore) PutTenant(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[id] = struct{}{}
}

func (s *MemoryStore) LookupUser(_ context.Context, id int64) (*tenant.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", auth.ErrUserNotFound, id)
	}
	out := record
	return &out, nil
}

func (s *MemoryStore) TenantExists(_ context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tenants[id]
	return ok, nil
}

// Close satisfies Store.
func (s *MemoryStore) Close() error { return nil }
