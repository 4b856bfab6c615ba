package module

import (
	"context"

	"mdms/internal/modkit/repokit"
	ticketsdom "mdms/internal/services/tickets/domain"
	ticketssvc "mdms/internal/services/tickets/service"

	"github.com/google/uuid"
)

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// adaptTicketPort adapts the tickets service to the domain port interface
type adaptTicketPort struct{ svc ticketssvc.Service }

var _ ticketsdom.ServicePort = adaptTicketPort{}

func (a adaptTicketPort) LockCells(ctx context.Context, q repokit.Queryer, keys []int64) error {
	return a.svc.LockCells(ctx, q, keys)
}

func (a adaptTicketPort) Candidates(ctx context.Context, q repokit.Queryer, in ticketsdom.CandidateQuery) ([]ticketsdom.Candidate, error) {
	return a.svc.Candidates(ctx, q, in)
}

func (a adaptTicketPort) Create(ctx context.Context, q repokit.Queryer, t ticketsdom.Ticket) error {
	return a.svc.Create(ctx, q, t)
}

func (a adaptTicketPort) CreateSubTicket(ctx context.Context, q repokit.Queryer, s ticketsdom.SubTicket) error {
	return a.svc.CreateSubTicket(ctx, q, s)
}

func (a adaptTicketPort) IncrementMedia(ctx context.Context, q repokit.Queryer, subID, mediaID uuid.UUID) error {
	return a.svc.IncrementMedia(ctx, q, subID, mediaID)
}

func (a adaptTicketPort) IncrementRejected(ctx context.Context, q repokit.Queryer, canonical uuid.UUID) ([]uuid.UUID, error) {
	return a.svc.IncrementRejected(ctx, q, canonical)
}

func (a adaptTicketPort) Get(ctx context.Context, id uuid.UUID) (ticketsdom.Ticket, error) {
	return a.svc.Get(ctx, id)
}

func (a adaptTicketPort) Snapshot(ctx context.Context, ids []uuid.UUID) ([]ticketsdom.Ticket, error) {
	return a.svc.Snapshot(ctx, ids)
}

func (a adaptTicketPort) List(ctx context.Context, f ticketsdom.Filter) (ticketsdom.Page, error) {
	return a.svc.List(ctx, f)
}

func (a adaptTicketPort) UpdateStatus(ctx context.Context, subID uuid.UUID, to ticketsdom.Status) (ticketsdom.SubTicket, error) {
	return a.svc.UpdateStatus(ctx, subID, to)
}
