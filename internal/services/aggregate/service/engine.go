// Package service is the ticket aggregation engine
package service

import (
	"context"
	"slices"
	"time"

	"mdms/internal/core/authority"
	"mdms/internal/core/geo"
	"mdms/internal/core/issuetype"
	"mdms/internal/modkit/repokit"
	"mdms/internal/platform/config"
	perr "mdms/internal/platform/errors"
	"mdms/internal/platform/logger"
	"mdms/internal/services/aggregate/domain"
	tickets "mdms/internal/services/tickets/domain"

	"github.com/google/uuid"
)

// Engine implements domain.Engine over the ticket store
type Engine struct {
	tickets tickets.TxPort
	mapping authority.Mapping
	cfg     domain.Config
	grid    geo.Grid
	now     func() time.Time
	newID   func() uuid.UUID
}

var _ domain.Engine = (*Engine)(nil)

// ConfigFrom reads CORE_AGGREGATE_ settings
func ConfigFrom(c config.Conf) domain.Config {
	ac := c.Prefix("CORE_AGGREGATE_")
	return domain.Config{
		RadiusM:       ac.MayFloat64("RADIUS_M", domain.DefaultRadiusM),
		Window:        ac.MayDuration("WINDOW", domain.DefaultWindow),
		LockNamespace: ac.MayString("LOCK_NAMESPACE", domain.DefaultLockNamespace),
	}.Normalize()
}

// New wires an engine, the lock grid edge equals the merge radius
func New(t tickets.TxPort, m authority.Mapping, cfg domain.Config) *Engine {
	if t == nil {
		panic("aggregate.Engine requires a non nil ticket port")
	}
	cfg = cfg.Normalize()
	return &Engine{
		tickets: t,
		mapping: m,
		cfg:     cfg,
		grid:    geo.Grid{EdgeM: cfg.RadiusM},
		now:     time.Now,
		newID:   uuid.New,
	}
}

// Config returns the normalized settings
func (e *Engine) Config() domain.Config { return e.cfg }

// Apply folds every detection of one media item into tickets inside q's tx
// located input takes the cell locks before any lookup, detections without a location share one new ticket
func (e *Engine) Apply(ctx context.Context, q repokit.Queryer, in domain.Input) ([]domain.Outcome, error) {
	if in.MediaID == uuid.Nil {
		return nil, perr.InvalidArgf("aggregate: media id is required")
	}
	if len(in.Detections) == 0 {
		return nil, nil
	}
	if in.At.IsZero() {
		in.At = e.now().UTC()
	}

	var loc *geo.Point
	if in.Location != nil && in.Location.Valid() {
		p := *in.Location
		loc = &p
		if err := e.tickets.LockCells(ctx, q, geo.LockKeys(e.cfg.LockNamespace, e.grid, p)); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeDB, "aggregate: lock cells")
		}
	}

	var (
		own  uuid.UUID
		seen = make(map[issuetype.Type]bool, len(in.Detections))
		out  = make([]domain.Outcome, 0, len(in.Detections))
	)
	for _, d := range in.Detections {
		if seen[d.IssueType] {
			continue
		}
		seen[d.IssueType] = true

		var (
			c   tickets.Candidate
			hit bool
			err error
		)
		switch {
		case loc != nil:
			c, hit, err = e.nearest(ctx, q, *loc, in.At, d.IssueType)
			if err != nil {
				return nil, err
			}
		case own != uuid.Nil:
			c, hit = tickets.Candidate{TicketID: own}, true
		}

		o, err := e.apply(ctx, q, in, loc, d.IssueType, c, hit)
		if err != nil {
			return nil, err
		}
		if loc == nil {
			own = o.TicketID
		}
		out = append(out, o)
	}
	return out, nil
}

func (e *Engine) apply(ctx context.Context, q repokit.Queryer, in domain.Input, loc *geo.Point, it issuetype.Type, c tickets.Candidate, hit bool) (domain.Outcome, error) {
	o := domain.Outcome{
		Action:    domain.Decide(hit, c.SubID != uuid.Nil),
		TicketID:  c.TicketID,
		IssueType: it,
	}

	switch o.Action {
	case domain.ActionCreateTicket:
		o.TicketID = e.newID()
		if err := e.tickets.Create(ctx, q, tickets.Ticket{ID: o.TicketID, Location: loc, CreatedAt: in.At}); err != nil {
			return o, err
		}
		fallthrough
	case domain.ActionCreateSubTicket:
		o.SubTicketID = e.newID()
		o.Authority = e.mapping.For(it)
		if err := e.tickets.CreateSubTicket(ctx, q, tickets.SubTicket{
			ID:        o.SubTicketID,
			TicketID:  o.TicketID,
			IssueType: it,
			Authority: o.Authority,
			Location:  loc,
			CreatedAt: in.At,
		}); err != nil {
			return o, err
		}
	case domain.ActionAttachMedia:
		o.SubTicketID = c.SubID
	}

	if err := e.tickets.IncrementMedia(ctx, q, o.SubTicketID, in.MediaID); err != nil {
		return o, err
	}

	logger.C(ctx).Debug().
		Str("media_id", in.MediaID.String()).
		Str("ticket_id", o.TicketID.String()).
		Str("sub_ticket_id", o.SubTicketID.String()).
		Str("issue_type", string(it)).
		Str("action", string(o.Action)).
		Msg("aggregate")
	return o, nil
}

// nearest picks the closest accepting candidate within the radius, ties go to the oldest
func (e *Engine) nearest(ctx context.Context, q repokit.Queryer, p geo.Point, at time.Time, it issuetype.Type) (tickets.Candidate, bool, error) {
	cands, err := e.tickets.Candidates(ctx, q, tickets.CandidateQuery{
		Box:       geo.Around(p, e.cfg.RadiusM),
		Since:     at.Add(-e.cfg.Window),
		IssueType: it,
	})
	if err != nil {
		return tickets.Candidate{}, false, err
	}

	type scored struct {
		c tickets.Candidate
		d float64
	}
	in := make([]scored, 0, len(cands))
	for _, c := range cands {
		if c.SubID != uuid.Nil && !c.SubStatus.Accepting() {
			continue
		}
		if d := geo.Distance(p, c.Location); d <= e.cfg.RadiusM {
			in = append(in, scored{c: c, d: d})
		}
	}
	if len(in) == 0 {
		return tickets.Candidate{}, false, nil
	}
	best := slices.MinFunc(in, func(a, b scored) int {
		switch {
		case a.d != b.d:
			if a.d < b.d {
				return -1
			}
			return 1
		case !a.c.CreatedAt.Equal(b.c.CreatedAt):
			return a.c.CreatedAt.Compare(b.c.CreatedAt)
		default:
			return compareID(a.c.TicketID, b.c.TicketID)
		}
	})
	return best.c, true, nil
}

func compareID(a, b uuid.UUID) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
