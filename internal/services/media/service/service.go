// Package service stores media items and serves their payloads
package service

import (
	"context"
	"time"

	"mdms/internal/modkit/repokit"
	perr "mdms/internal/platform/errors"
	"mdms/internal/platform/logger"
	"mdms/internal/services/media/domain"
	"mdms/internal/services/media/repo"

	"github.com/google/uuid"
)

// Service defines the service contract for media
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner
	blobs  domain.BlobStore
	now    func() time.Time
}

// New creates a new media service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], blobs domain.BlobStore) *Svc {
	if db == nil {
		panic("media.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("media.Service requires a non nil Repo binder")
	}
	if blobs == nil {
		panic("media.Service requires a non nil BlobStore")
	}
	return &Svc{Repo: binder.Bind(db), binder: binder, db: db, blobs: blobs, now: time.Now}
}

func (s *Svc) prepare(it domain.Item) domain.Item {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	if it.UploadedAt.IsZero() {
		it.UploadedAt = s.now().UTC()
	}
	if it.LocationSource == "" {
		it.LocationSource = domain.LocationUnknown
	}
	return it
}

// Store writes the item row and then the payload through q
// the row must exist first because media_blobs references it
func (s *Svc) Store(ctx context.Context, q repokit.Queryer, it domain.Item, data []byte) (domain.Item, error) {
	if len(data) == 0 {
		return domain.Item{}, perr.Validationf("media payload is empty")
	}
	it = s.prepare(it)
	it.Duplicate, it.CanonicalID = false, uuid.Nil
	it.HasPayload = true
	it.BlobKey = it.ID.String()
	it.Size = int64(len(data))

	if err := s.binder.Bind(q).Insert(ctx, it); err != nil {
		return domain.Item{}, err
	}
	if err := s.blobs.Put(ctx, q, it.BlobKey, data, it.ContentType); err != nil {
		return domain.Item{}, perr.WrapIf(err, perr.ErrorCodeStorage, "store media payload")
	}
	return it, nil
}

// RecordDuplicate writes a metadata only row for content already held by canonical
func (s *Svc) RecordDuplicate(ctx context.Context, q repokit.Queryer, it domain.Item, canonical uuid.UUID) (domain.Item, error) {
	if canonical == uuid.Nil {
		return domain.Item{}, perr.InvalidArgf("duplicate needs a canonical media id")
	}
	it = s.prepare(it)
	it.Duplicate, it.CanonicalID = true, canonical
	it.HasPayload = false
	it.BlobKey = ""

	if err := s.binder.Bind(q).Insert(ctx, it); err != nil {
		return domain.Item{}, err
	}
	return it, nil
}

// Abandon drops payload bytes of an item whose tx did not commit
func (s *Svc) Abandon(ctx context.Context, it domain.Item) {
	if !it.HasPayload || it.BlobKey == "" {
		return
	}
	if err := s.blobs.Discard(context.WithoutCancel(ctx), it.BlobKey); err != nil {
		logger.C(ctx).Warn().Err(err).
			Str("media_id", it.ID.String()).
			Str("blob", s.blobs.Name()).
			Msg("discard abandoned payload")
	}
}

// Get returns item metadata
func (s *Svc) Get(ctx context.Context, id uuid.UUID) (domain.Item, error) {
	return s.Repo.Get(ctx, id)
}

// Retrieve returns the payload, metadata only items are not found
func (s *Svc) Retrieve(ctx context.Context, id uuid.UUID) (domain.Payload, error) {
	it, err := s.Repo.Get(ctx, id)
	if err != nil {
		return domain.Payload{}, err
	}
	if !it.HasPayload {
		return domain.Payload{}, perr.NotFoundf("media %s has no payload", id)
	}
	data, err := s.blobs.Get(ctx, it.BlobKey)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.Payload{}, perr.NotFoundf("media %s payload missing", id)
		}
		return domain.Payload{}, perr.WrapIf(err, perr.ErrorCodeStorage, "read media payload")
	}
	return domain.Payload{Data: data, ContentType: it.ContentType, FileName: it.FileName}, nil
}
