// Package repo persists media item metadata
package repo

import (
	"context"
	"time"

	"mdms/internal/core/fingerprint"
	"mdms/internal/core/geo"
	"mdms/internal/core/mediakind"
	"mdms/internal/modkit/repokit"
	perr "mdms/internal/platform/errors"
	"mdms/internal/platform/store"
	"mdms/internal/services/media/domain"

	"github.com/google/uuid"
)

// Repo defines the repository contract for media items
type Repo interface {
	Insert(ctx context.Context, it domain.Item) error
	Get(ctx context.Context, id uuid.UUID) (domain.Item, error)
}

type (
	// PG implements the Repo interface using Postgres
	PG struct{}

	// queries holds the database query methods
	queries struct{ q repokit.Queryer }
)

// NewPG creates a new Postgres repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Postgres queryer to the Repo implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) Insert(ctx context.Context, it domain.Item) error {
	const sql = `
insert into media_items (
  id, kind, content_hash, content_type, file_name, size_bytes,
  lat, lng, location_source, duplicate, canonical_media_id, has_payload, blob_key, uploaded_at
) values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`
	var lat, lng *float64
	if it.Location != nil {
		lat, lng = &it.Location.Lat, &it.Location.Lng
	}
	canonical := uuid.NullUUID{UUID: it.CanonicalID, Valid: it.Duplicate}
	_, err := r.q.Exec(ctx, sql,
		it.ID, string(it.Kind), it.Hash.Bytes(), it.ContentType, it.FileName, it.Size,
		lat, lng, string(it.LocationSource), it.Duplicate, canonical, it.HasPayload, it.BlobKey, it.UploadedAt,
	)
	if err != nil {
		return perr.FromPostgres(err, "insert media item")
	}
	return nil
}

func (r *queries) Get(ctx context.Context, id uuid.UUID) (domain.Item, error) {
	const sql = `
select id, kind, content_hash, content_type, file_name, size_bytes,
       lat, lng, location_source, duplicate, canonical_media_id, has_payload, blob_key, uploaded_at
from media_items
where id = $1
`
	it, err := store.One(ctx, r.q, scanItem, sql, id)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.Item{}, perr.NotFoundf("media %s not found", id)
		}
		return domain.Item{}, perr.FromPostgres(err, "get media item")
	}
	return it, nil
}

func scanItem(row store.Row) (domain.Item, error) {
	var (
		it        domain.Item
		kind, src string
		hash      []byte
		lat, lng  *float64
		canonical uuid.NullUUID
		uploaded  time.Time
	)
	if err := row.Scan(
		&it.ID,
		&kind,
		&hash,
		&it.ContentType,
		&it.FileName,
		&it.Size,
		&lat,
		&lng,
		&src,
		&it.Duplicate,
		&canonical,
		&it.HasPayload,
		&it.BlobKey,
		&uploaded,
	); err != nil {
		return domain.Item{}, err
	}
	h, err := fingerprint.FromBytes(hash)
	if err != nil {
		return domain.Item{}, err
	}
	it.Kind = mediakind.Name(kind)
	it.Hash = h
	it.LocationSource = domain.LocationSource(src)
	it.UploadedAt = uploaded.UTC()
	if lat != nil && lng != nil {
		it.Location = &geo.Point{Lat: *lat, Lng: *lng}
	}
	if canonical.Valid {
		it.CanonicalID = canonical.UUID
	}
	return it, nil
}
