package repo

import (
	"context"
	"sync"

	"mdms/internal/core/fingerprint"
	"mdms/internal/modkit/repokit"
	"mdms/internal/platform/store/memtx"
	"mdms/internal/services/dedup/domain"

	"github.com/google/uuid"
)

// Memory is the in process fingerprint table
type Memory struct {
	mu   sync.RWMutex
	rows map[fingerprint.Hash]uuid.UUID
}

// NewMemory creates an empty memory repo binder
func NewMemory() *Memory { return &Memory{rows: map[fingerprint.Hash]uuid.UUID{}} }

// Bind ties the shared table to q
func (m *Memory) Bind(q repokit.Queryer) Repo { return memQueries{m: m, q: q} }

type memQueries struct {
	m *Memory
	q repokit.Queryer
}

func (r memQueries) Lookup(_ context.Context, h fingerprint.Hash) (uuid.UUID, bool, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	id, ok := r.m.rows[h]
	return id, ok, nil
}

func (r memQueries) RegisterIfAbsent(_ context.Context, h fingerprint.Hash, mediaID uuid.UUID) (domain.Claim, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if id, ok := r.m.rows[h]; ok {
		return domain.Claim{CanonicalID: id}, nil
	}
	r.m.rows[h] = mediaID
	memtx.Undo(r.q, func() {
		r.m.mu.Lock()
		delete(r.m.rows, h)
		r.m.mu.Unlock()
	})
	return domain.Claim{Registered: true, CanonicalID: mediaID}, nil
}
