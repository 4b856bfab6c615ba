package domain

import (
	"context"

	"mdms/internal/modkit/repokit"

	"github.com/google/uuid"
)

// TxPort is the write side used inside an ingestion tx
type TxPort interface {
	// LockCells takes tx scoped advisory locks on keys in the given order
	LockCells(ctx context.Context, q repokit.Queryer, keys []int64) error
	Candidates(ctx context.Context, q repokit.Queryer, in CandidateQuery) ([]Candidate, error)
	Create(ctx context.Context, q repokit.Queryer, t Ticket) error
	CreateSubTicket(ctx context.Context, q repokit.Queryer, s SubTicket) error

	// IncrementMedia links mediaID to an accepting sub ticket and bumps media_count
	IncrementMedia(ctx context.Context, q repokit.Queryer, subID, mediaID uuid.UUID) error

	// IncrementRejected bumps rejected_count on every sub ticket linked to canonical
	// and returns the touched ticket ids
	IncrementRejected(ctx context.Context, q repokit.Queryer, canonical uuid.UUID) ([]uuid.UUID, error)
}

// ServicePort is the full ticket store surface
type ServicePort interface {
	TxPort
	Get(ctx context.Context, id uuid.UUID) (Ticket, error)
	Snapshot(ctx context.Context, ids []uuid.UUID) ([]Ticket, error)
	List(ctx context.Context, f Filter) (Page, error)
	UpdateStatus(ctx context.Context, subID uuid.UUID, to Status) (SubTicket, error)
}
