// Package repo persists tickets, sub tickets and their media links
package repo

import (
	"context"
	"time"

	"mdms/internal/core/geo"
	"mdms/internal/core/issuetype"
	"mdms/internal/modkit/repokit"
	perr "mdms/internal/platform/errors"
	"mdms/internal/platform/store"
	"mdms/internal/services/tickets/domain"

	"github.com/google/uuid"
)

// Repo defines the repository contract for tickets
type Repo interface {
	LockCells(ctx context.Context, keys []int64) error
	Candidates(ctx context.Context, in domain.CandidateQuery) ([]domain.Candidate, error)
	InsertTicket(ctx context.Context, t domain.Ticket) error
	InsertSubTicket(ctx context.Context, s domain.SubTicket) error
	AttachMedia(ctx context.Context, subID, mediaID uuid.UUID, at time.Time) error
	BumpRejected(ctx context.Context, canonical uuid.UUID, at time.Time) ([]uuid.UUID, error)

	// ListIDs returns one page of ticket ids matching f newest first and the total match count
	ListIDs(ctx context.Context, f domain.Filter) ([]uuid.UUID, int, error)

	// Tickets loads ids in the given order, sub tickets not matching f are left out when f is set
	Tickets(ctx context.Context, ids []uuid.UUID, f *domain.Filter) ([]domain.Ticket, error)

	SubTicket(ctx context.Context, id uuid.UUID) (domain.SubTicket, error)

	// SetStatus moves id from -> to only if it is still in from, otherwise not found
	SetStatus(ctx context.Context, id uuid.UUID, from, to domain.Status, at time.Time) (domain.SubTicket, error)
}

type (
	// PG implements the Repo interface using Postgres
	PG struct{}

	queries struct{ q repokit.Queryer }
)

// NewPG creates a new Postgres repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Postgres queryer to the Repo implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) LockCells(ctx context.Context, keys []int64) error {
	for _, k := range keys {
		if _, err := r.q.Exec(ctx, `select pg_advisory_xact_lock($1)`, k); err != nil {
			return perr.FromPostgres(err, "lock ticket cell")
		}
	}
	return nil
}

func (r *queries) Candidates(ctx context.Context, in domain.CandidateQuery) ([]domain.Candidate, error) {
	const sql = `
select t.id, t.lat, t.lng, t.created_at, s.id, coalesce(s.status, '')
from tickets t
left join sub_tickets s on s.ticket_id = t.id and s.issue_type = $6
where t.lat between $1 and $2
  and t.lng between $3 and $4
  and t.created_at >= $5
`
	out, err := store.Many(ctx, r.q, scanCandidate, sql,
		in.Box.MinLat, in.Box.MaxLat, in.Box.MinLng, in.Box.MaxLng, in.Since, string(in.IssueType))
	if err != nil {
		return nil, perr.FromPostgres(err, "find candidate tickets")
	}
	return out, nil
}

func scanCandidate(row store.Row) (domain.Candidate, error) {
	var (
		c      domain.Candidate
		sub    uuid.NullUUID
		status string
	)
	if err := row.Scan(&c.TicketID, &c.Location.Lat, &c.Location.Lng, &c.CreatedAt, &sub, &status); err != nil {
		return domain.Candidate{}, err
	}
	c.SubID = sub.UUID
	c.SubStatus = domain.Status(status)
	return c, nil
}

func (r *queries) InsertTicket(ctx context.Context, t domain.Ticket) error {
	lat, lng := split(t.Location)
	_, err := r.q.Exec(ctx, `insert into tickets (id, lat, lng, created_at) values ($1, $2, $3, $4)`,
		t.ID, lat, lng, t.CreatedAt)
	return perr.FromPostgres(err, "insert ticket")
}

func (r *queries) InsertSubTicket(ctx context.Context, s domain.SubTicket) error {
	const sql = `
insert into sub_tickets (id, ticket_id, issue_type, authority, status, media_count, rejected_count, lat, lng, created_at, updated_at)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
	lat, lng := split(s.Location)
	_, err := r.q.Exec(ctx, sql, s.ID, s.TicketID, string(s.IssueType), s.Authority, string(s.Status),
		s.MediaCount, s.RejectedCount, lat, lng, s.CreatedAt, s.UpdatedAt)
	return perr.FromPostgres(err, "insert sub ticket")
}

func (r *queries) AttachMedia(ctx context.Context, subID, mediaID uuid.UUID, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
insert into sub_ticket_media (sub_ticket_id, media_id, linked_at) values ($1, $2, $3)
on conflict do nothing`, subID, mediaID, at)
	if err != nil {
		return perr.FromPostgres(err, "link sub ticket media")
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	err = store.ExecOne(ctx, r.q, `
update sub_tickets set media_count = media_count + 1, updated_at = $2
where id = $1 and status in ('open', 'in_progress')`, subID, at)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		// resolved since the candidate read, a rerun picks a fresh ticket
		return perr.MarkRetryable(perr.InvalidTransitionf("sub ticket %s no longer accepts media", subID))
	}
	return perr.FromPostgres(err, "count sub ticket media")
}

func (r *queries) BumpRejected(ctx context.Context, canonical uuid.UUID, at time.Time) ([]uuid.UUID, error) {
	const sql = `
update sub_tickets s set rejected_count = s.rejected_count + 1, updated_at = $2
from sub_ticket_media m
where m.sub_ticket_id = s.id and m.media_id = $1
returning s.ticket_id
`
	ids, err := store.Many(ctx, r.q, scanID, sql, canonical, at)
	if err != nil {
		return nil, perr.FromPostgres(err, "count rejected duplicate")
	}
	return ids, nil
}

func (r *queries) ListIDs(ctx context.Context, f domain.Filter) ([]uuid.UUID, int, error) {
	const where = `
from tickets t
where exists (
  select 1 from sub_tickets s
  where s.ticket_id = t.id
    and ($1::text is null or s.status = $1)
    and ($2::text is null or s.issue_type = $2)
    and ($3::timestamptz is null or s.created_at >= $3)
    and ($4::timestamptz is null or s.created_at < $4)
)
`
	args := filterArgs(f)
	total, err := store.Scalar[int64](ctx, r.q, `select count(*) `+where, args...)
	if err != nil {
		return nil, 0, perr.FromPostgres(err, "count tickets")
	}
	ids, err := store.Many(ctx, r.q, scanID,
		`select t.id `+where+` order by t.created_at desc, t.id desc limit $5 offset $6`,
		append(args, f.PageSize, f.Offset())...)
	if err != nil {
		return nil, 0, perr.FromPostgres(err, "list tickets")
	}
	return ids, int(total), nil
}

func filterArgs(f domain.Filter) []any {
	var status, issue *string
	if f.Status != nil {
		v := string(*f.Status)
		status = &v
	}
	if f.IssueType != nil {
		v := string(*f.IssueType)
		issue = &v
	}
	return []any{status, issue, f.From, f.To}
}

func (r *queries) Tickets(ctx context.Context, ids []uuid.UUID, f *domain.Filter) ([]domain.Ticket, error) {
	if len(ids) == 0 {
		return []domain.Ticket{}, nil
	}
	keys := strs(ids)

	ts, err := store.Many(ctx, r.q, scanTicket,
		`select id, lat, lng, created_at from tickets where id = any($1::uuid[])`, keys)
	if err != nil {
		return nil, perr.FromPostgres(err, "load tickets")
	}
	subs, err := store.Many(ctx, r.q, scanSub, `
select `+subCols+` from sub_tickets
where ticket_id = any($1::uuid[])
order by seq`, keys)
	if err != nil {
		return nil, perr.FromPostgres(err, "load sub tickets")
	}
	links, err := store.Many(ctx, r.q, scanLink, `
select m.sub_ticket_id, m.media_id
from sub_ticket_media m
join sub_tickets s on s.id = m.sub_ticket_id
where s.ticket_id = any($1::uuid[])
order by m.linked_at, m.media_id`, keys)
	if err != nil {
		return nil, perr.FromPostgres(err, "load sub ticket media")
	}
	return assemble(ids, ts, subs, links, f), nil
}

const subCols = `id, ticket_id, issue_type, authority, status, media_count, rejected_count, lat, lng, created_at, updated_at`

func (r *queries) SubTicket(ctx context.Context, id uuid.UUID) (domain.SubTicket, error) {
	s, err := store.One(ctx, r.q, scanSub, `select `+subCols+` from sub_tickets where id = $1`, id)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.SubTicket{}, perr.NotFoundf("sub ticket %s not found", id)
		}
		return domain.SubTicket{}, perr.FromPostgres(err, "get sub ticket")
	}
	return s, nil
}

func (r *queries) SetStatus(ctx context.Context, id uuid.UUID, from, to domain.Status, at time.Time) (domain.SubTicket, error) {
	s, err := store.One(ctx, r.q, scanSub, `
update sub_tickets set status = $3, updated_at = $4
where id = $1 and status = $2
returning `+subCols, id, string(from), string(to), at)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.SubTicket{}, perr.NotFoundf("sub ticket %s not in %s", id, from)
		}
		return domain.SubTicket{}, perr.FromPostgres(err, "update sub ticket status")
	}
	return s, nil
}

func scanID(row store.Row) (uuid.UUID, error) {
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

func scanTicket(row store.Row) (domain.Ticket, error) {
	var (
		t        domain.Ticket
		lat, lng *float64
	)
	if err := row.Scan(&t.ID, &lat, &lng, &t.CreatedAt); err != nil {
		return domain.Ticket{}, err
	}
	t.Location = join(lat, lng)
	return t, nil
}

func scanSub(row store.Row) (domain.SubTicket, error) {
	var (
		s               domain.SubTicket
		issue, status   string
		lat, lng        *float64
		media, rejected int32
	)
	if err := row.Scan(&s.ID, &s.TicketID, &issue, &s.Authority, &status, &media, &rejected,
		&lat, &lng, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return domain.SubTicket{}, err
	}
	s.IssueType = issuetype.Type(issue)
	s.Status = domain.Status(status)
	s.MediaCount, s.RejectedCount = int(media), int(rejected)
	s.Location = join(lat, lng)
	return s, nil
}

type link struct{ sub, media uuid.UUID }

func scanLink(row store.Row) (link, error) {
	var l link
	err := row.Scan(&l.sub, &l.media)
	return l, err
}

// assemble orders tickets as ids and nests subs and links under them
func assemble(ids []uuid.UUID, ts []domain.Ticket, subs []domain.SubTicket, links []link, f *domain.Filter) []domain.Ticket {
	media := make(map[uuid.UUID][]uuid.UUID, len(subs))
	for _, l := range links {
		media[l.sub] = append(media[l.sub], l.media)
	}
	bySub := make(map[uuid.UUID][]domain.SubTicket, len(ts))
	for _, s := range subs {
		if f != nil && !f.Matches(s) {
			continue
		}
		s.MediaIDs = media[s.ID]
		if s.MediaIDs == nil {
			s.MediaIDs = []uuid.UUID{}
		}
		bySub[s.TicketID] = append(bySub[s.TicketID], s)
	}
	byID := make(map[uuid.UUID]domain.Ticket, len(ts))
	for _, t := range ts {
		byID[t.ID] = t
	}
	out := make([]domain.Ticket, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			continue
		}
		t.SubTickets = bySub[id]
		if t.SubTickets == nil {
			t.SubTickets = []domain.SubTicket{}
		}
		out = append(out, t)
	}
	return out
}

func split(p *geo.Point) (lat, lng *float64) {
	if p == nil {
		return nil, nil
	}
	a, b := p.Lat, p.Lng
	return &a, &b
}

func join(lat, lng *float64) *geo.Point {
	if lat == nil || lng == nil {
		return nil
	}
	return &geo.Point{Lat: *lat, Lng: *lng}
}

func strs(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
