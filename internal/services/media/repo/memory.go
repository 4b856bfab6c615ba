package repo

import (
	"context"
	"sync"

	"mdms/internal/modkit/repokit"
	perr "mdms/internal/platform/errors"
	"mdms/internal/platform/store/memtx"
	"mdms/internal/services/media/domain"

	"github.com/google/uuid"
)

// Memory is the in process media repo, every Bind shares one table
type Memory struct {
	mu    sync.RWMutex
	items map[uuid.UUID]domain.Item
}

// NewMemory creates an empty memory repo binder
func NewMemory() *Memory { return &Memory{items: map[uuid.UUID]domain.Item{}} }

// Bind ties the shared table to q so writes roll back with the tx
func (m *Memory) Bind(q repokit.Queryer) Repo { return memQueries{m: m, q: q} }

type memQueries struct {
	m *Memory
	q repokit.Queryer
}

func (r memQueries) Insert(_ context.Context, it domain.Item) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.items[it.ID]; ok {
		return perr.DuplicateKeyf("media %s exists", it.ID)
	}
	if it.Duplicate {
		if _, ok := r.m.items[it.CanonicalID]; !ok {
			return perr.InvalidArgf("canonical media %s missing", it.CanonicalID)
		}
	}
	r.m.items[it.ID] = it
	memtx.Undo(r.q, func() {
		r.m.mu.Lock()
		delete(r.m.items, it.ID)
		r.m.mu.Unlock()
	})
	return nil
}

func (r memQueries) Get(_ context.Context, id uuid.UUID) (domain.Item, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	it, ok := r.m.items[id]
	if !ok {
		return domain.Item{}, perr.NotFoundf("media %s not found", id)
	}
	return it, nil
}
