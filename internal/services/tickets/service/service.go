// Package service is the ticket store, lifecycle updates are single row compare and set
package service

import (
	"context"
	"time"

	"mdms/internal/modkit/repokit"
	perr "mdms/internal/platform/errors"
	"mdms/internal/platform/logger"
	"mdms/internal/services/tickets/domain"
	"mdms/internal/services/tickets/repo"

	"github.com/google/uuid"
)

// Service defines the service contract for tickets
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner
	now    func() time.Time
}

// New creates a new tickets service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo]) *Svc {
	if db == nil {
		panic("tickets.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("tickets.Service requires a non nil Repo binder")
	}
	return &Svc{Repo: binder.Bind(db), binder: binder, db: db, now: time.Now}
}

func (s *Svc) clock() time.Time { return s.now().UTC() }

// LockCells takes the cell locks inside q's tx
func (s *Svc) LockCells(ctx context.Context, q repokit.Queryer, keys []int64) error {
	return s.binder.Bind(q).LockCells(ctx, keys)
}

// Candidates lists tickets near a detection
func (s *Svc) Candidates(ctx context.Context, q repokit.Queryer, in domain.CandidateQuery) ([]domain.Candidate, error) {
	return s.binder.Bind(q).Candidates(ctx, in)
}

// Create inserts a ticket without sub tickets
func (s *Svc) Create(ctx context.Context, q repokit.Queryer, t domain.Ticket) error {
	if t.ID == uuid.Nil {
		return perr.InvalidArgf("ticket id is required")
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.clock()
	}
	return s.binder.Bind(q).InsertTicket(ctx, t)
}

// CreateSubTicket inserts an open sub ticket with zero counters
func (s *Svc) CreateSubTicket(ctx context.Context, q repokit.Queryer, st domain.SubTicket) error {
	if st.ID == uuid.Nil || st.TicketID == uuid.Nil {
		return perr.InvalidArgf("sub ticket and ticket ids are required")
	}
	if !st.IssueType.Valid() {
		return perr.WithField(perr.Validationf("unknown issue type %q", st.IssueType), "issue_type")
	}
	now := s.clock()
	if st.CreatedAt.IsZero() {
		st.CreatedAt = now
	}
	st.Status = domain.StatusOpen
	st.MediaCount, st.RejectedCount = 0, 0
	st.UpdatedAt = st.CreatedAt
	return s.binder.Bind(q).InsertSubTicket(ctx, st)
}

// IncrementMedia links media to an accepting sub ticket, linking twice is a no op
func (s *Svc) IncrementMedia(ctx context.Context, q repokit.Queryer, subID, mediaID uuid.UUID) error {
	return s.binder.Bind(q).AttachMedia(ctx, subID, mediaID, s.clock())
}

// IncrementRejected records a duplicate upload against the canonical media's sub tickets
func (s *Svc) IncrementRejected(ctx context.Context, q repokit.Queryer, canonical uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.binder.Bind(q).BumpRejected(ctx, canonical, s.clock())
	if err != nil {
		return nil, err
	}
	return uniq(ids), nil
}

// Get returns one ticket with every sub ticket in creation order
func (s *Svc) Get(ctx context.Context, id uuid.UUID) (domain.Ticket, error) {
	ts, err := s.Repo.Tickets(ctx, []uuid.UUID{id}, nil)
	if err != nil {
		return domain.Ticket{}, err
	}
	if len(ts) == 0 {
		return domain.Ticket{}, perr.NotFoundf("ticket %s not found", id)
	}
	return ts[0], nil
}

// Snapshot loads the current state of ids in first seen order
func (s *Svc) Snapshot(ctx context.Context, ids []uuid.UUID) ([]domain.Ticket, error) {
	return s.Repo.Tickets(ctx, uniq(ids), nil)
}

// List returns a newest first page of tickets with their matching sub tickets
func (s *Svc) List(ctx context.Context, f domain.Filter) (domain.Page, error) {
	f = f.Normalize()
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return domain.Page{}, perr.WithField(perr.Validationf("from must be before to"), "from")
	}
	ids, total, err := s.Repo.ListIDs(ctx, f)
	if err != nil {
		return domain.Page{}, err
	}
	ts, err := s.Repo.Tickets(ctx, ids, &f)
	if err != nil {
		return domain.Page{}, err
	}
	return domain.Page{Tickets: ts, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

// UpdateStatus moves a sub ticket one step forward
// a concurrent move between the read and the write surfaces as an invalid transition
func (s *Svc) UpdateStatus(ctx context.Context, subID uuid.UUID, to domain.Status) (domain.SubTicket, error) {
	cur, err := s.Repo.SubTicket(ctx, subID)
	if err != nil {
		return domain.SubTicket{}, err
	}
	if err := domain.CheckTransition(cur.Status, to); err != nil {
		return domain.SubTicket{}, err
	}
	out, err := s.Repo.SetStatus(ctx, subID, cur.Status, to, s.clock())
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.SubTicket{}, perr.InvalidTransitionf("sub ticket %s changed status concurrently", subID)
		}
		return domain.SubTicket{}, err
	}
	logger.C(ctx).Info().
		Str("sub_ticket_id", subID.String()).
		Str("from", string(cur.Status)).
		Str("to", string(to)).
		Msg("sub ticket status changed")
	return out, nil
}

func uniq(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
