package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"mdms/internal/platform/testkit"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestOpen_ParseError(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{URL: "://bad"}, nil, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestOpen_NewPoolError(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &newPool, func(context.Context, *pgxpool.Config) (*pgxpool.Pool, error) {
		return nil, errors.New("boom")
	})

	if _, err := Open(context.Background(), Config{URL: "postgres://u:p@h:5432/mdms"}, nil, nil); err == nil {
		t.Fatalf("expected newPool error")
	}
}

func TestOpen_AppliesConfig(t *testing.T) {
	testkit.Serial(t)

	var seen *pgxpool.Config
	testkit.Swap(t, &newPool, func(_ context.Context, pc *pgxpool.Config) (*pgxpool.Pool, error) {
		seen = pc
		return &pgxpool.Pool{}, nil
	})

	cfg := Config{URL: "postgres://u:p@h:5432/mdms?sslmode=disable", MaxConns: 7, SlowMs: 250, AppName: "mdms-api"}
	p, err := Open(context.Background(), cfg, nil, func(pc *pgxpool.Config) { pc.MinConns = 2 })
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if p.SlowMs != 250 || p.Pool == nil {
		t.Fatalf("unexpected client %+v", p)
	}
	if seen.MaxConns != 7 || seen.MinConns != 2 {
		t.Fatalf("pool sizing not applied: max=%d min=%d", seen.MaxConns, seen.MinConns)
	}
	if seen.MaxConnIdleTime != 5*time.Minute {
		t.Fatalf("idle time = %v", seen.MaxConnIdleTime)
	}
	if got := seen.ConnConfig.RuntimeParams["application_name"]; got != "mdms-api" {
		t.Fatalf("application_name = %q", got)
	}
}

func TestClose_NilSafe(t *testing.T) {
	t.Parallel()

	var p *PG
	p.Close()
	(&PG{}).Close()
}
