// Package pgblob keeps media payloads in the media_blobs bytea table
// writes join the caller's transaction
package pgblob

import (
	"context"

	"mdms/internal/modkit/repokit"
	perr "mdms/internal/platform/errors"
	"mdms/internal/platform/store"

	"github.com/google/uuid"
)

// Store reads through db and writes through the tx handle it is given
type Store struct {
	db repokit.Queryer
}

// New returns a pg backed blob store
func New(db repokit.Queryer) *Store {
	if db == nil {
		panic("pgblob: nil Queryer")
	}
	return &Store{db: db}
}

// Name reports the backend
func (*Store) Name() string { return "pg" }

// Put inserts the payload row, key is the media id
func (*Store) Put(ctx context.Context, q repokit.Queryer, key string, data []byte, _ string) error {
	id, err := uuid.Parse(key)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "pgblob: key %q is not a media id", key)
	}
	if _, err := q.Exec(ctx, `insert into media_blobs (media_id, data) values ($1, $2)`, id, data); err != nil {
		return perr.Wrap(err, perr.ErrorCodeStorage, "pgblob: put")
	}
	return nil
}

// Get reads the payload, unknown keys are not found
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	id, err := uuid.Parse(key)
	if err != nil {
		return nil, perr.NotFoundf("blob %q not found", key)
	}
	data, err := store.Scalar[[]byte](ctx, s.db, `select data from media_blobs where media_id = $1`, id)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return nil, perr.NotFoundf("blob %s not found", id)
		}
		return nil, perr.Wrap(err, perr.ErrorCodeStorage, "pgblob: get")
	}
	return data, nil
}

// Discard is a no op, the rolled back tx already dropped the row
func (*Store) Discard(context.Context, string) error { return nil }
