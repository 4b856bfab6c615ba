package store

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestOpen_NothingEnabled(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var zl zerolog.Logger
	s, err := Open(ctx, Config{}, WithLogger(zl))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if s.PG != nil || s.CH != nil || s.Memory {
		t.Fatalf("unexpected seams: %#v", s)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close on empty store: %v", err)
	}
}

func TestOpen_PGBadURL(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), Config{PG: PGConfig{Enabled: true, URL: "://bad"}})
	if err == nil || s != nil {
		t.Fatalf("expected Open error and nil store, got %#v, %v", s, err)
	}
}

func TestOpen_CHBadURL(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), Config{CH: CHConfig{Enabled: true}})
	if err == nil || s != nil {
		t.Fatalf("expected Open error for empty clickhouse url, got %#v, %v", s, err)
	}
}

func TestOpen_OptionError(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{}, WithMemory(nil)); err == nil {
		t.Fatalf("expected option error to stop Open")
	}
}

type closingCH struct {
	fakeCH
	closed bool
}

func (c *closingCH) Close() error { c.closed = true; return nil }

func TestClose_ClosesCH(t *testing.T) {
	t.Parallel()

	c := &closingCH{}
	s := &Store{CH: c}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !c.closed {
		t.Fatalf("clickhouse seam not closed")
	}
}
