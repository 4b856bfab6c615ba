// Package guardrails holds the time budgets and retry loop for per file ingestion
package guardrails

import (
	"context"
	"math/rand"
	"time"

	perr "mdms/internal/platform/errors"
)

// Timeouts bounds the phases of one file, zero means no extra limit at that level
type Timeouts struct {
	// File is the overall budget for one file from sniff to commit
	File time.Duration

	// DB caps one commit attempt
	DB time.Duration
}

// ForFile returns a context bounded by File without extending any parent deadline
func ForFile(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.File)
}

// ForDB returns a sub context for one commit attempt
func ForDB(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.DB)
}

// Remaining returns the time until the deadline on ctx or zero when none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout takes the tighter of d and the parent remainder
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}

// Retry runs fn up to attempts times while it fails with a retryable store error
// backoff is exponential from base with jitter and capped at 5s
func Retry(ctx context.Context, attempts int, base time.Duration, fn func(attempt int) error) error {
	attempts = max(attempts, 1)
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	var last error
	for i := range attempts {
		last = fn(i)
		if last == nil || !perr.IsRetryable(last) || i == attempts-1 {
			return last
		}
		d := min(base<<i, 5*time.Second)
		j := d/2 + time.Duration(rand.Int63n(int64(d/2)+1))
		if err := sleepCtx(ctx, j); err != nil {
			return last
		}
	}
	return last
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
