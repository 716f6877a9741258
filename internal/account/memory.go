package account

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu       sync.RWMutex
	accounts map[string]Account
	byNumber map[string]string
}

// NewMemoryStore creates a concurrency-safe in-memory store used in dev mode
// and unit tests. It honors the same compare-and-swap contract as the
// Postgres store.
func NewMemoryStore() Store {
	return &memoryStore{
		accounts: make(map[string]Account),
		byNumber: make(map[string]string),
	}
}

func (s *memoryStore) Create(_ context.Context, a Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[a.ID]; exists {
		return ErrDuplicateNumber
	}
	if _, exists := s.byNumber[a.Number]; exists {
		return ErrDuplicateNumber
	}
	s.accounts[a.ID] = a
	s.byNumber[a.Number] = a.ID
	return nil
}

func (s *memoryStore) Get(_ context.Context, id string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (s *memoryStore) GetByNumber(_ context.Context, number string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byNumber[number]
	if !ok {
		return Account{}, ErrNotFound
	}
	return s.accounts[id], nil
}

func (s *memoryStore) ListByOwner(_ context.Context, ownerID string) ([]Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Account, 0)
	for _, a := range s.accounts {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.accounts)), nil
}

func (s *memoryStore) Update(_ context.Context, a Account, expectedVersion int64) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.accounts[a.ID]
	if !ok {
		return Account{}, ErrNotFound
	}
	if stored.Version != expectedVersion {
		return Account{}, ErrVersionConflict
	}

	stored.Balance = a.Balance
	stored.Status = a.Status
	stored.ClosedAt = a.ClosedAt
	stored.Version = expectedVersion + 1
	s.accounts[a.ID] = stored
	return stored, nil
}
