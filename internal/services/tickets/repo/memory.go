package repo

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"mdms/internal/modkit/repokit"
	perr "mdms/internal/platform/errors"
	"mdms/internal/platform/store/memtx"
	"mdms/internal/services/tickets/domain"

	"github.com/google/uuid"
)

// Memory is the in process ticket store, every Bind shares the same tables
// memtx serializes transactions so LockCells has nothing to do
type Memory struct {
	mu      sync.RWMutex
	tickets map[uuid.UUID]domain.Ticket
	subs    map[uuid.UUID]domain.SubTicket
	order   map[uuid.UUID][]uuid.UUID // ticket -> sub ids in creation order
	links   map[uuid.UUID][]uuid.UUID // sub -> media ids in link order
}

// NewMemory creates an empty memory repo binder
func NewMemory() *Memory {
	return &Memory{
		tickets: map[uuid.UUID]domain.Ticket{},
		subs:    map[uuid.UUID]domain.SubTicket{},
		order:   map[uuid.UUID][]uuid.UUID{},
		links:   map[uuid.UUID][]uuid.UUID{},
	}
}

// Bind ties the shared tables to q
func (m *Memory) Bind(q repokit.Queryer) Repo { return memQueries{m: m, q: q} }

type memQueries struct {
	m *Memory
	q repokit.Queryer
}

func (r memQueries) undo(fn func()) {
	memtx.Undo(r.q, func() {
		r.m.mu.Lock()
		fn()
		r.m.mu.Unlock()
	})
}

func (r memQueries) LockCells(context.Context, []int64) error { return nil }

func (r memQueries) Candidates(_ context.Context, in domain.CandidateQuery) ([]domain.Candidate, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var out []domain.Candidate
	for _, t := range r.m.tickets {
		if t.Location == nil || !in.Box.Contains(*t.Location) || t.CreatedAt.Before(in.Since) {
			continue
		}
		c := domain.Candidate{TicketID: t.ID, Location: *t.Location, CreatedAt: t.CreatedAt}
		for _, sid := range r.m.order[t.ID] {
			if s := r.m.subs[sid]; s.IssueType == in.IssueType {
				c.SubID, c.SubStatus = s.ID, s.Status
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func (r memQueries) InsertTicket(_ context.Context, t domain.Ticket) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.tickets[t.ID]; ok {
		return perr.DuplicateKeyf("ticket %s exists", t.ID)
	}
	t.SubTickets = nil
	r.m.tickets[t.ID] = t
	r.undo(func() { delete(r.m.tickets, t.ID) })
	return nil
}

func (r memQueries) InsertSubTicket(_ context.Context, s domain.SubTicket) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.tickets[s.TicketID]; !ok {
		return perr.InvalidArgf("ticket %s missing", s.TicketID)
	}
	if _, ok := r.m.subs[s.ID]; ok {
		return perr.DuplicateKeyf("sub ticket %s exists", s.ID)
	}
	for _, sid := range r.m.order[s.TicketID] {
		if r.m.subs[sid].IssueType == s.IssueType {
			return perr.DuplicateKeyf("ticket %s already has a %s sub ticket", s.TicketID, s.IssueType)
		}
	}
	s.MediaIDs = nil
	r.m.subs[s.ID] = s
	r.m.order[s.TicketID] = append(r.m.order[s.TicketID], s.ID)
	r.undo(func() {
		delete(r.m.subs, s.ID)
		ids := r.m.order[s.TicketID]
		r.m.order[s.TicketID] = slices.DeleteFunc(slices.Clone(ids), func(id uuid.UUID) bool { return id == s.ID })
	})
	return nil
}

func (r memQueries) AttachMedia(_ context.Context, subID, mediaID uuid.UUID, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.subs[subID]
	if !ok {
		return perr.InvalidArgf("sub ticket %s missing", subID)
	}
	if slices.Contains(r.m.links[subID], mediaID) {
		return nil
	}
	if !s.Status.Accepting() {
		// resolved since the candidate read, a rerun picks a fresh ticket
		return perr.MarkRetryable(perr.InvalidTransitionf("sub ticket %s no longer accepts media", subID))
	}
	prev, prevLinks := s, r.m.links[subID]
	s.MediaCount++
	s.UpdatedAt = at
	r.m.subs[subID] = s
	r.m.links[subID] = append(slices.Clone(prevLinks), mediaID)
	r.undo(func() {
		r.m.subs[subID] = prev
		r.m.links[subID] = prevLinks
	})
	return nil
}

func (r memQueries) BumpRejected(_ context.Context, canonical uuid.UUID, at time.Time) ([]uuid.UUID, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var touched []uuid.UUID
	for sid, media := range r.m.links {
		if !slices.Contains(media, canonical) {
			continue
		}
		prev := r.m.subs[sid]
		s := prev
		s.RejectedCount++
		s.UpdatedAt = at
		r.m.subs[sid] = s
		touched = append(touched, s.TicketID)
		r.undo(func() { r.m.subs[sid] = prev })
	}
	return touched, nil
}

func (r memQueries) ListIDs(_ context.Context, f domain.Filter) ([]uuid.UUID, int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var matched []domain.Ticket
	for _, t := range r.m.tickets {
		for _, sid := range r.m.order[t.ID] {
			if f.Matches(r.m.subs[sid]) {
				matched = append(matched, t)
				break
			}
		}
	}
	slices.SortFunc(matched, func(a, b domain.Ticket) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID.String(), a.ID.String())
	})
	total := len(matched)
	lo := min(f.Offset(), total)
	hi := min(lo+f.PageSize, total)
	ids := make([]uuid.UUID, 0, hi-lo)
	for _, t := range matched[lo:hi] {
		ids = append(ids, t.ID)
	}
	return ids, total, nil
}

func (r memQueries) Tickets(_ context.Context, ids []uuid.UUID, f *domain.Filter) ([]domain.Ticket, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]domain.Ticket, 0, len(ids))
	for _, id := range ids {
		t, ok := r.m.tickets[id]
		if !ok {
			continue
		}
		t.SubTickets = []domain.SubTicket{}
		for _, sid := range r.m.order[id] {
			s := r.m.subs[sid]
			if f != nil && !f.Matches(s) {
				continue
			}
			s.MediaIDs = append([]uuid.UUID{}, r.m.links[sid]...)
			t.SubTickets = append(t.SubTickets, s)
		}
		out = append(out, t)
	}
	return out, nil
}

func (r memQueries) SubTicket(_ context.Context, id uuid.UUID) (domain.SubTicket, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	s, ok := r.m.subs[id]
	if !ok {
		return domain.SubTicket{}, perr.NotFoundf("sub ticket %s not found", id)
	}
	s.MediaIDs = append([]uuid.UUID{}, r.m.links[id]...)
	return s, nil
}

func (r memQueries) SetStatus(_ context.Context, id uuid.UUID, from, to domain.Status, at time.Time) (domain.SubTicket, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.subs[id]
	if !ok || s.Status != from {
		return domain.SubTicket{}, perr.NotFoundf("sub ticket %s not in %s", id, from)
	}
	prev := s
	s.Status, s.UpdatedAt = to, at
	r.m.subs[id] = s
	r.undo(func() { r.m.subs[id] = prev })
	s.MediaIDs = append([]uuid.UUID{}, r.m.links[id]...)
	return s, nil
}
