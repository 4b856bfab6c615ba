//go:build integration_pg

package pg

import (
	"context"
	"testing"
	"time"

	"mdms/internal/platform/testkit"
)

func TestOpen_Integration(t *testing.T) {
	dsn := testkit.StartPostgres(t)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	p, err := Open(ctx, Config{URL: dsn, MaxConns: 2, AppName: "mdms-pg-integration"}, nil, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(p.Close)

	var app string
	if err := p.Pool.QueryRow(ctx, `select current_setting('application_name')`).Scan(&app); err != nil {
		t.Fatalf("application_name: %v", err)
	}
	if app != "mdms-pg-integration" {
		t.Fatalf("application_name = %q", app)
	}

	// advisory xact locks are what the ticket writer leans on
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, `select pg_advisory_xact_lock($1)`, int64(42)); err != nil {
		t.Fatalf("advisory lock: %v", err)
	}
	var held bool
	if err := tx.QueryRow(ctx, `select count(*) > 0 from pg_locks where locktype = 'advisory'`).Scan(&held); err != nil || !held {
		t.Fatalf("advisory lock not visible: held=%v err=%v", held, err)
	}
}
