package repokit

import (
	"context"
	"fmt"
	"time"

	perr "mdms/internal/platform/errors"
)

// BeginHook runs first inside a transaction with the tx bound Queryer
type BeginHook func(ctx context.Context, q Queryer) error

// WithBeginHooks wraps inner so every Tx runs hooks before fn, a failing hook rolls the tx back
func WithBeginHooks(inner TxRunner, hooks ...BeginHook) TxRunner {
	if len(hooks) == 0 {
		return inner
	}
	return hookedTx{TxRunner: inner, hooks: hooks}
}

type hookedTx struct {
	TxRunner
	hooks []BeginHook
}

// Tx starts a tx on the inner runner then runs the hooks before fn
func (h hookedTx) Tx(ctx context.Context, fn func(q Queryer) error) error {
	return h.TxRunner.Tx(ctx, func(q Queryer) error {
		for _, hk := range h.hooks {
			if err := hk(ctx, q); err != nil {
				return err
			}
		}
		return fn(q)
	})
}

// Ping forwards to the inner runner so readiness checks still reach the store
func (h hookedTx) Ping(ctx context.Context) error {
	if p, ok := h.TxRunner.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// LockTimeout caps each lock wait in the tx, an expired wait fails with 55P03
func LockTimeout(d time.Duration) BeginHook {
	stmt := fmt.Sprintf("set local lock_timeout = '%dms'", max(d.Milliseconds(), 1))
	return func(ctx context.Context, q Queryer) error {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return perr.FromPostgres(err, "set lock timeout")
		}
		return nil
	}
}
