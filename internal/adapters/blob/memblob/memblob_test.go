package memblob

import (
	"context"
	"errors"
	"testing"

	"mdms/internal/modkit/repokit"
	perr "mdms/internal/platform/errors"
	"mdms/internal/platform/store/memtx"
)

func TestPutGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	data := []byte("payload")
	if err := s.Put(ctx, memtx.New(), "k", data, "image/png"); err != nil {
		t.Fatal(err)
	}
	data[0] = 'X'

	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "payload" {
		t.Fatalf("get = %q %v", got, err)
	}
	got[0] = 'Y'
	if again, _ := s.Get(ctx, "k"); string(again) != "payload" {
		t.Fatalf("stored bytes were aliased: %q", again)
	}

	if err := s.Put(ctx, memtx.New(), "k", data, ""); !perr.IsCode(err, perr.ErrorCodeDuplicateKey) {
		t.Fatalf("second put err = %v", err)
	}
	if _, err := s.Get(ctx, "missing"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}

func TestRollbackDropsPayload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := memtx.New()
	s := New()
	err := db.Tx(ctx, func(q repokit.Queryer) error {
		if err := s.Put(ctx, q, "k", []byte("x"), ""); err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil || s.Len() != 0 {
		t.Fatalf("err=%v len=%d", err, s.Len())
	}

	if err := db.Tx(ctx, func(q repokit.Queryer) error { return s.Put(ctx, q, "k", []byte("x"), "") }); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Fatalf("committed payload missing")
	}
	_ = s.Discard(ctx, "k")
	if s.Len() != 0 || s.Name() != "memory" {
		t.Fatalf("discard left %d", s.Len())
	}
}
