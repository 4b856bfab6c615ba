package domain

import (
	"context"

	"mdms/internal/modkit/repokit"
)

// Engine folds detections into tickets inside the caller's tx
type Engine interface {
	Apply(ctx context.Context, q repokit.Queryer, in Input) ([]Outcome, error)
}
