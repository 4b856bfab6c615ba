// Package service decides whether uploaded content is new
package service

import (
	"context"

	"mdms/internal/core/fingerprint"
	"mdms/internal/modkit/repokit"
	perr "mdms/internal/platform/errors"
	"mdms/internal/services/dedup/domain"
	"mdms/internal/services/dedup/repo"

	"github.com/google/uuid"
)

// Service defines the service contract for dedup
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner
	hasher fingerprint.Hasher
}

// Option tunes the service
type Option func(*Svc)

// WithHasher swaps the content hasher
func WithHasher(h fingerprint.Hasher) Option {
	return func(s *Svc) {
		if h != nil {
			s.hasher = h
		}
	}
}

// New creates a new dedup service, hashing defaults to exact BLAKE3
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], opts ...Option) *Svc {
	if db == nil {
		panic("dedup.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("dedup.Service requires a non nil Repo binder")
	}
	s := &Svc{Repo: binder.Bind(db), binder: binder, db: db, hasher: fingerprint.Exact{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Fingerprint hashes data with the configured hasher
func (s *Svc) Fingerprint(data []byte) fingerprint.Hash { return s.hasher.Sum(data) }

// Lookup reports the canonical media for h outside any tx
func (s *Svc) Lookup(ctx context.Context, h fingerprint.Hash) (uuid.UUID, bool, error) {
	return s.Repo.Lookup(ctx, h)
}

// RegisterIfAbsent claims h for mediaID inside the caller's tx
func (s *Svc) RegisterIfAbsent(ctx context.Context, q repokit.Queryer, h fingerprint.Hash, mediaID uuid.UUID) (domain.Claim, error) {
	if h.IsZero() {
		return domain.Claim{}, perr.InvalidArgf("fingerprint is empty")
	}
	if mediaID == uuid.Nil {
		return domain.Claim{}, perr.InvalidArgf("media id is required")
	}
	return s.binder.Bind(q).RegisterIfAbsent(ctx, h, mediaID)
}
