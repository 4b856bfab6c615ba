// Package migrate applies the embedded schema to postgres
// files run in name order, each inside its own transaction, and are recorded in schema_migrations
package migrate

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"mdms/internal/platform/logger"
	"mdms/internal/platform/store"
)

//go:embed sql/*.sql
var files embed.FS

// lockKey serialises concurrent api starts against the same database
const lockKey int64 = 0x6d646d73 // "mdms"

// Migration is one embedded sql file
type Migration struct {
	Version string
	SQL     string
}

// List returns the embedded migrations sorted by version
func List() ([]Migration, error) {
	return load(files)
}

func load(fsys fs.FS) ([]Migration, error) {
	names, err := fs.Glob(fsys, "sql/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	out := make([]Migration, 0, len(names))
	for _, n := range names {
		b, err := fs.ReadFile(fsys, n)
		if err != nil {
			return nil, fmt.Errorf("migrate: read %s: %w", n, err)
		}
		v := strings.TrimSuffix(strings.TrimPrefix(n, "sql/"), ".sql")
		out = append(out, Migration{Version: v, SQL: string(b)})
	}
	return out, nil
}

// Up applies every migration not yet recorded and returns the versions it ran
func Up(ctx context.Context, db store.TxRunner) ([]string, error) {
	ms, err := List()
	if err != nil {
		return nil, err
	}
	return apply(ctx, db, ms)
}

func apply(ctx context.Context, db store.TxRunner, ms []Migration) ([]string, error) {
	log := logger.Named("migrate")

	if _, err := db.Exec(ctx, `create table if not exists schema_migrations (
    version    text primary key,
    applied_at timestamptz not null default now()
)`); err != nil {
		return nil, fmt.Errorf("migrate: bootstrap: %w", err)
	}

	var ran []string
	for _, m := range ms {
		applied := false
		err := db.Tx(ctx, func(q store.RowQuerier) error {
			if _, err := q.Exec(ctx, `select pg_advisory_xact_lock($1)`, lockKey); err != nil {
				return err
			}
			var n int
			if err := q.QueryRow(ctx, `select count(*) from schema_migrations where version = $1`, m.Version).Scan(&n); err != nil {
				return err
			}
			if n > 0 {
				return nil
			}
			if _, err := q.Exec(ctx, m.SQL); err != nil {
				return err
			}
			if _, err := q.Exec(ctx, `insert into schema_migrations (version) values ($1)`, m.Version); err != nil {
				return err
			}
			applied = true
			return nil
		})
		if err != nil {
			return ran, fmt.Errorf("migrate: %s: %w", m.Version, err)
		}
		if applied {
			log.Info().Str("version", m.Version).Msg("migration applied")
			ran = append(ran, m.Version)
		}
	}
	return ran, nil
}
