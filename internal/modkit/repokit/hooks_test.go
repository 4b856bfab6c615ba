package repokit

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	perr "mdms/internal/platform/errors"
	"mdms/internal/platform/store"

	"github.com/jackc/pgx/v5/pgconn"
)

// txQ records statements run inside the tx
type txQ struct {
	stmts   []string
	execErr error
}

func (q *txQ) Exec(_ context.Context, sql string, _ ...any) (store.CommandTag, error) {
	q.stmts = append(q.stmts, sql)
	return nil, q.execErr
}
func (q *txQ) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (q *txQ) QueryRow(context.Context, string, ...any) store.Row        { return nil }

type txRunner struct {
	txQ
	q       *txQ
	txCalls int
	pingErr error
}

func (r *txRunner) Tx(_ context.Context, fn func(Queryer) error) error {
	r.txCalls++
	return fn(r.q)
}

func (r *txRunner) Ping(context.Context) error { return r.pingErr }

func TestWithBeginHooks_Order(t *testing.T) {
	t.Parallel()

	q := &txQ{}
	inner := &txRunner{q: q}
	var seq []string
	hook := func(name string) BeginHook {
		return func(_ context.Context, got Queryer) error {
			if got != q {
				t.Fatalf("%s got a different Queryer", name)
			}
			seq = append(seq, name)
			return nil
		}
	}

	db := WithBeginHooks(inner, hook("a"), hook("b"))
	if err := db.Tx(context.Background(), func(Queryer) error { seq = append(seq, "fn"); return nil }); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(seq, []string{"a", "b", "fn"}) || inner.txCalls != 1 {
		t.Fatalf("seq=%v txCalls=%d", seq, inner.txCalls)
	}
}

func TestWithBeginHooks_FailingHookSkipsFn(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	db := WithBeginHooks(&txRunner{q: &txQ{}}, func(context.Context, Queryer) error { return boom })
	ran := false
	err := db.Tx(context.Background(), func(Queryer) error { ran = true; return nil })
	if !errors.Is(err, boom) || ran {
		t.Fatalf("err=%v ran=%v", err, ran)
	}
}

func TestWithBeginHooks_NoHooksAndPing(t *testing.T) {
	t.Parallel()

	inner := &txRunner{q: &txQ{}, pingErr: errors.New("down")}
	if got := WithBeginHooks(inner); got != TxRunner(inner) {
		t.Fatalf("no hooks should return inner")
	}
	db := WithBeginHooks(inner, LockTimeout(time.Second))
	p, ok := db.(interface{ Ping(context.Context) error })
	if !ok || p.Ping(context.Background()) == nil {
		t.Fatalf("ping should forward to inner")
	}
}

func TestLockTimeout(t *testing.T) {
	t.Parallel()

	q := &txQ{}
	db := WithBeginHooks(&txRunner{q: q}, LockTimeout(1500*time.Millisecond))
	if err := db.Tx(context.Background(), func(Queryer) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if len(q.stmts) != 1 || q.stmts[0] != "set local lock_timeout = '1500ms'" {
		t.Fatalf("stmts = %v", q.stmts)
	}

	q.execErr = &pgconn.PgError{Code: "25P01"}
	err := db.Tx(context.Background(), func(Queryer) error { t.Fatal("fn ran after a failed hook"); return nil })
	if !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("err = %v", err)
	}
}
