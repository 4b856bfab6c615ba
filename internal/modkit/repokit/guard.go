package repokit

import (
	"context"
	"fmt"
	"time"
)

// startupBudget bounds boot checks when ctx carries no deadline
const startupBudget = 5 * time.Second

type pinger interface {
	Ping(context.Context) error
}

type guarder interface {
	Guard(context.Context) error
}

// MustPing panics if a backend is missing or does not answer a Ping
func MustPing(ctx context.Context, name string, p pinger) {
	if p == nil {
		panic(fmt.Sprintf("%s: nil dependency", name))
	}
	ctx, cancel := bounded(ctx)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		panic(fmt.Sprintf("%s ping failed: %v", name, err))
	}
}

// MustGuard pings every configured backend of st and panics with the joined failures
func MustGuard(ctx context.Context, st guarder) {
	ctx, cancel := bounded(ctx)
	defer cancel()
	if err := st.Guard(ctx); err != nil {
		panic(fmt.Errorf("dependency guard failed: %w", err))
	}
}

func bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, startupBudget)
}
