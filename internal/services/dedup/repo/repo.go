// Package repo persists content fingerprints
package repo

import (
	"context"

	"mdms/internal/core/fingerprint"
	"mdms/internal/modkit/repokit"
	perr "mdms/internal/platform/errors"
	"mdms/internal/platform/store"
	"mdms/internal/services/dedup/domain"

	"github.com/google/uuid"
)

// Repo defines the repository contract for fingerprints
type Repo interface {
	Lookup(ctx context.Context, h fingerprint.Hash) (uuid.UUID, bool, error)
	RegisterIfAbsent(ctx context.Context, h fingerprint.Hash, mediaID uuid.UUID) (domain.Claim, error)
}

type (
	// PG implements the Repo interface using Postgres
	PG struct{}

	queries struct{ q repokit.Queryer }
)

// NewPG creates a new Postgres repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Postgres queryer to the Repo implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) Lookup(ctx context.Context, h fingerprint.Hash) (uuid.UUID, bool, error) {
	id, err := store.Scalar[uuid.UUID](ctx, r.q, `select media_id from fingerprints where hash = $1`, h.Bytes())
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, perr.FromPostgres(err, "lookup fingerprint")
	}
	return id, true, nil
}

// RegisterIfAbsent inserts or reports the existing owner in one statement
// a concurrent winner that committed after the statement snapshot is read by the fallback select
func (r *queries) RegisterIfAbsent(ctx context.Context, h fingerprint.Hash, mediaID uuid.UUID) (domain.Claim, error) {
	const sql = `
with ins as (
  insert into fingerprints (hash, media_id) values ($1, $2)
  on conflict (hash) do nothing
  returning media_id
)
select media_id, true from ins
union all
select media_id, false from fingerprints where hash = $1 and not exists (select 1 from ins)
`
	c, err := store.One(ctx, r.q, scanClaim, sql, h.Bytes(), mediaID)
	if err == nil {
		return c, nil
	}
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		return domain.Claim{}, perr.FromPostgres(err, "register fingerprint")
	}

	id, found, err := r.Lookup(ctx, h)
	if err != nil {
		return domain.Claim{}, err
	}
	if !found {
		return domain.Claim{}, perr.DBf("fingerprint %s neither inserted nor found", h)
	}
	return domain.Claim{CanonicalID: id}, nil
}

func scanClaim(row store.Row) (domain.Claim, error) {
	var c domain.Claim
	if err := row.Scan(&c.CanonicalID, &c.Registered); err != nil {
		return domain.Claim{}, err
	}
	return c, nil
}
