// Package memtx is an in process TxRunner for the memory backed repos
// transactions are serialized by one mutex and roll back through registered undo funcs
package memtx

import (
	"context"
	"errors"
	"sync"

	"mdms/internal/platform/store"
)

// ErrNoSQL is returned when something tries to run sql against the memory backend
var ErrNoSQL = errors.New("memtx: sql is not supported by the memory backend")

// Runner serializes transactions over memory repos
type Runner struct {
	mu sync.Mutex
}

var _ store.TxRunner = (*Runner)(nil)

// New returns a ready Runner
func New() *Runner { return &Runner{} }

// Tx runs fn while holding the runner lock, undo funcs run in reverse order when fn fails
func (r *Runner) Tx(ctx context.Context, fn func(q store.RowQuerier) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	q := &Querier{}
	if err := fn(q); err != nil {
		q.rollback()
		return err
	}
	return nil
}

// Ping always succeeds
func (r *Runner) Ping(context.Context) error { return nil }

func (r *Runner) Exec(context.Context, string, ...any) (store.CommandTag, error) {
	return nil, ErrNoSQL
}

func (r *Runner) Query(context.Context, string, ...any) (store.Rows, error) {
	return nil, ErrNoSQL
}

func (r *Runner) QueryRow(context.Context, string, ...any) store.Row { return errRow{} }

// Querier is the tx bound handle memory repos receive inside Tx
type Querier struct {
	undo []func()
}

var _ store.RowQuerier = (*Querier)(nil)

// OnRollback registers fn to run if the surrounding tx fails
func (q *Querier) OnRollback(fn func()) { q.undo = append(q.undo, fn) }

func (q *Querier) rollback() {
	for i := len(q.undo) - 1; i >= 0; i-- {
		q.undo[i]()
	}
	q.undo = nil
}

func (q *Querier) Exec(context.Context, string, ...any) (store.CommandTag, error) {
	return nil, ErrNoSQL
}

func (q *Querier) Query(context.Context, string, ...any) (store.Rows, error) {
	return nil, ErrNoSQL
}

func (q *Querier) QueryRow(context.Context, string, ...any) store.Row { return errRow{} }

// Undo registers fn on q when q is a memtx tx handle, otherwise it is dropped
// writes made outside a tx cannot be rolled back
func Undo(q store.RowQuerier, fn func()) {
	if mq, ok := q.(*Querier); ok {
		mq.OnRollback(fn)
	}
}

type errRow struct{}

func (errRow) Scan(...any) error { return ErrNoSQL }
