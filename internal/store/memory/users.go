package memory

import (
	"context"
	"sync"

	"statusboard/internal/store"
)

// UserStore is a fixed directory of API key hashes loaded at startup.
type UserStore struct {
	mu     sync.RWMutex
	byHash map[string]store.User
}

// NewUserStore creates a directory from a key-hash to user mapping.
func NewUserStore(users map[string]store.User) *UserStore {
	byHash := make(map[string]store.User, len(users))
	for hash, u := range users {
		byHash[hash] = u
	}
	return &UserStore{byHash: byHash}
}

// AddUser registers a user under the given key hash.
func (s *UserStore) AddUser(hash string, u store.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byHash[hash] = u
}

// GetUserByAPIKeyHash returns nil, nil for unknown keys.
func (s *UserStore) GetUserByAPIKeyHash(_ context.Context, hash string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byHash[hash]
	if !ok {
		return nil, nil
	}
	return &u, nil
}
