package repo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mdms/internal/core/fingerprint"
	perr "mdms/internal/platform/errors"
	"mdms/internal/platform/store"

	"github.com/google/uuid"
)

// scripted answers the claim statement with claimRows and the lookup with lookupID
type scripted struct {
	claimRows [][2]any
	lookupID  uuid.UUID
	queries   []string
}

func (s *scripted) Exec(context.Context, string, ...any) (store.CommandTag, error) {
	return nil, errors.New("unexpected exec")
}

func (s *scripted) Query(_ context.Context, sql string, _ ...any) (store.Rows, error) {
	s.queries = append(s.queries, sql)
	return &claimRows{rows: s.claimRows}, nil
}

func (s *scripted) QueryRow(_ context.Context, sql string, _ ...any) store.Row {
	s.queries = append(s.queries, sql)
	return idRow{id: s.lookupID}
}

type claimRows struct {
	rows [][2]any
	i    int
}

func (r *claimRows) Next() bool { r.i++; return r.i <= len(r.rows) }
func (r *claimRows) Scan(dest ...any) error {
	row := r.rows[r.i-1]
	*dest[0].(*uuid.UUID) = row[0].(uuid.UUID)
	*dest[1].(*bool) = row[1].(bool)
	return nil
}
func (r *claimRows) Err() error        { return nil }
func (r *claimRows) Close()            {}
func (r *claimRows) Columns() []string { return []string{"media_id", "registered"} }

type idRow struct{ id uuid.UUID }

func (r idRow) Scan(dest ...any) error {
	if r.id == uuid.Nil {
		return perr.ErrNotFound
	}
	*dest[0].(*uuid.UUID) = r.id
	return nil
}

func TestRegisterIfAbsent_Inserted(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	q := &scripted{claimRows: [][2]any{{id, true}}}
	c, err := NewPG().Bind(q).RegisterIfAbsent(context.Background(), fingerprint.Sum([]byte("a")), id)
	if err != nil || !c.Registered || c.CanonicalID != id {
		t.Fatalf("claim = %+v, %v", c, err)
	}
	if !strings.Contains(q.queries[0], "on conflict (hash) do nothing") {
		t.Fatalf("sql = %s", q.queries[0])
	}
}

func TestRegisterIfAbsent_ExistingRow(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	q := &scripted{claimRows: [][2]any{{owner, false}}}
	c, err := NewPG().Bind(q).RegisterIfAbsent(context.Background(), fingerprint.Sum([]byte("a")), uuid.New())
	if err != nil || c.Registered || c.CanonicalID != owner {
		t.Fatalf("claim = %+v, %v", c, err)
	}
}

func TestRegisterIfAbsent_FallsBackToLookup(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	q := &scripted{lookupID: owner}
	c, err := NewPG().Bind(q).RegisterIfAbsent(context.Background(), fingerprint.Sum([]byte("a")), uuid.New())
	if err != nil || c.Registered || c.CanonicalID != owner {
		t.Fatalf("claim = %+v, %v", c, err)
	}
	if len(q.queries) != 2 {
		t.Fatalf("queries = %d, want claim then lookup", len(q.queries))
	}
}

func TestRegisterIfAbsent_VanishedRow(t *testing.T) {
	t.Parallel()

	q := &scripted{}
	_, err := NewPG().Bind(q).RegisterIfAbsent(context.Background(), fingerprint.Sum([]byte("a")), uuid.New())
	if !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("err = %v", err)
	}
}

func TestLookupMissing(t *testing.T) {
	t.Parallel()

	_, found, err := NewPG().Bind(&scripted{}).Lookup(context.Background(), fingerprint.Sum([]byte("a")))
	if err != nil || found {
		t.Fatalf("found=%v err=%v", found, err)
	}
}
