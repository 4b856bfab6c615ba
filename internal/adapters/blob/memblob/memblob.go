// Package memblob is the in process blob store used with the memory backend
package memblob

import (
	"context"
	"sync"

	"mdms/internal/modkit/repokit"
	perr "mdms/internal/platform/errors"
	"mdms/internal/platform/store/memtx"
)

// Store maps keys to copies of the payload
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New returns an empty store
func New() *Store { return &Store{data: map[string][]byte{}} }

// Name reports the backend
func (*Store) Name() string { return "memory" }

// Put stores a copy of data, the entry is removed again if the tx rolls back
func (s *Store) Put(_ context.Context, q repokit.Queryer, key string, data []byte, _ string) error {
	cp := append([]byte(nil), data...)
	s.mu.Lock()
	if _, ok := s.data[key]; ok {
		s.mu.Unlock()
		return perr.DuplicateKeyf("blob %s exists", key)
	}
	s.data[key] = cp
	s.mu.Unlock()
	memtx.Undo(q, func() { _ = s.Discard(context.Background(), key) })
	return nil
}

// Get returns a copy of the payload
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.data[key]
	if !ok {
		return nil, perr.NotFoundf("blob %s not found", key)
	}
	return append([]byte(nil), b...), nil
}

// Discard drops key
func (s *Store) Discard(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Len reports how many payloads are held
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
