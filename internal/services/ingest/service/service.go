// Package service is the batch ingestion gateway
// each file commits its fingerprint, media row and ticket changes in one tx
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mdms/internal/core/fingerprint"
	"mdms/internal/core/geo"
	"mdms/internal/core/issuetype"
	"mdms/internal/core/mediakind"
	"mdms/internal/core/photo"
	"mdms/internal/modkit/repokit"
	perr "mdms/internal/platform/errors"
	"mdms/internal/platform/logger"
	"mdms/internal/platform/store"
	aggregate "mdms/internal/services/aggregate/domain"
	dedup "mdms/internal/services/dedup/domain"
	detect "mdms/internal/services/detect/domain"
	"mdms/internal/services/ingest/domain"
	"mdms/internal/services/ingest/guardrails"
	media "mdms/internal/services/media/domain"
	tickets "mdms/internal/services/tickets/domain"

	"github.com/google/uuid"
)

// Config holds the batch limits and per file budgets
type Config struct {
	MaxBatch     int   // files past this index are rejected with batch_limit
	MaxFileBytes int64 // larger files are rejected with file_too_large
	Workers      int   // concurrent file groups per batch

	FileTimeout time.Duration
	DBTimeout   time.Duration
	Retries     int // commit attempts on serialization or deadlock errors
	RetryBase   time.Duration
}

// defaults
const (
	DefaultMaxBatch     = 20
	DefaultMaxFileBytes = 25 << 20
	DefaultWorkers      = 4
	DefaultRetries      = 3
)

func (c Config) normalize() Config {
	if c.MaxBatch <= 0 {
		c.MaxBatch = DefaultMaxBatch
	}
	if c.MaxFileBytes <= 0 {
		c.MaxFileBytes = DefaultMaxFileBytes
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Retries <= 0 {
		c.Retries = DefaultRetries
	}
	return c
}

// Ports are the collaborators one file flows through
type Ports struct {
	Dedup     dedup.ServicePort
	Detect    detect.ServicePort
	Media     media.ServicePort
	Tickets   tickets.ServicePort
	Aggregate aggregate.Engine
	Events    domain.EventSink
}

// Service implements domain.ServicePort
type Service struct {
	db  repokit.TxRunner
	p   Ports
	cfg Config
	tos guardrails.Timeouts
	now func() time.Time
}

var _ domain.ServicePort = (*Service)(nil)

// New wires the gateway, a nil event sink drops events
func New(db repokit.TxRunner, p Ports, cfg Config) *Service {
	if db == nil {
		panic("ingest.Service requires a non nil TxRunner")
	}
	if p.Dedup == nil || p.Detect == nil || p.Media == nil || p.Tickets == nil || p.Aggregate == nil {
		panic("ingest.Service requires dedup, detect, media, tickets and aggregate ports")
	}
	if p.Events == nil {
		p.Events = Discard{}
	}
	cfg = cfg.normalize()
	return &Service{
		db:  db,
		p:   p,
		cfg: cfg,
		tos: guardrails.Timeouts{File: cfg.FileTimeout, DB: cfg.DBTimeout},
		now: time.Now,
	}
}

// Limits returns the normalized batch limits
func (s *Service) Limits() Config { return s.cfg }

// file is one upload after the cheap checks
type file struct {
	index int
	up    domain.Upload
	kind  mediakind.Kind
	hash  fingerprint.Hash
	loc   *geo.Point
	src   media.LocationSource
	issue issuetype.Type // set when the citizen picked the type, detection is skipped
}

// result is what one file contributes to the batch
type result struct {
	accepted *domain.Accepted
	rejected *domain.Rejected
	touched  []uuid.UUID
	event    domain.Event
	err      error
}

// SubmitBatch ingests files, per file failures are reported in the result and never abort the batch
func (s *Service) SubmitBatch(ctx context.Context, files []domain.Upload) (domain.BatchResult, error) {
	if len(files) == 0 {
		return domain.BatchResult{}, perr.WithField(perr.Validationf("batch has no files"), "files")
	}
	if err := s.ping(ctx); err != nil {
		return domain.BatchResult{}, err
	}

	batchID := uuid.New()
	ctx = logger.WithBatch(ctx, batchID.String())
	start := s.now()

	results := make([]result, len(files))
	var groups [][]file
	byHash := map[fingerprint.Hash]int{}
	for i, up := range files {
		f, r := s.admit(i, up)
		if r != nil {
			results[i] = *r
			continue
		}
		if g, ok := byHash[f.hash]; ok {
			groups[g] = append(groups[g], f)
			continue
		}
		byHash[f.hash] = len(groups)
		groups = append(groups, []file{f})
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.cfg.Workers)
	for _, g := range groups {
		sem <- struct{}{}
		wg.Add(1)
		go func(g []file) {
			defer func() { <-sem; wg.Done() }()
			s.runGroup(ctx, g, results)
		}(g)
	}
	wg.Wait()

	out := s.assemble(ctx, batchID, results)
	s.emit(ctx, batchID, results)

	logger.C(ctx).Info().
		Int("files", len(files)).
		Int("accepted", len(out.Accepted)).
		Int("rejected", len(out.Rejected)).
		Int("duplicates", out.DuplicatesFound).
		Int("tickets", len(out.TicketsCreated)).
		Dur("elapsed", time.Since(start)).
		Msg("batch done")
	return out, nil
}

// ping reports an unreachable store before anything is written
func (s *Service) ping(ctx context.Context) error {
	if p, ok := s.db.(store.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return perr.Wrap(err, perr.ErrorCodeUnavailable, "store unreachable")
		}
	}
	return nil
}

// admit runs the checks that need no store, a non nil result rejects the file
func (s *Service) admit(i int, up domain.Upload) (file, *result) {
	f := file{index: i, up: up, src: media.LocationUnknown}
	if i >= s.cfg.MaxBatch {
		return f, reject(f, domain.ReasonBatchLimit, fmt.Sprintf("batch accepts at most %d files", s.cfg.MaxBatch))
	}
	if up.LocationErr != nil {
		return f, reject(f, domain.ReasonInvalidInput, up.LocationErr.Error())
	}
	if up.TooLarge || int64(len(up.Data)) > s.cfg.MaxFileBytes || up.Size > s.cfg.MaxFileBytes {
		return f, reject(f, domain.ReasonFileTooLarge, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileBytes))
	}
	k, err := mediakind.Sniff(up.Data)
	if err != nil {
		return f, reject(f, domain.ReasonFor(err), err.Error())
	}
	f.kind = k
	f.hash = s.p.Dedup.Fingerprint(up.Data)

	switch {
	case up.Location != nil && up.Location.Valid():
		p := *up.Location
		f.loc, f.src = &p, media.LocationAttached
	case k.Name() == mediakind.NameImage:
		if p, ok := photo.Location(up.Data); ok {
			f.loc, f.src = &p, media.LocationExif
		}
	}
	return f, nil
}

// runGroup handles identical content in upload order
// later copies become duplicates of the first, or share its failure
func (s *Service) runGroup(ctx context.Context, g []file, results []result) {
	first := s.process(ctx, g[0])
	results[g[0].index] = first
	for _, f := range g[1:] {
		if first.rejected != nil && first.rejected.Reason != domain.ReasonDuplicate {
			r := reject(f, first.rejected.Reason, first.rejected.Message)
			results[f.index] = *r
			s.logOutcome(ctx, *r)
			continue
		}
		results[f.index] = s.process(ctx, f)
	}
}

// process takes one admitted file through dedup, detection and the commit
func (s *Service) process(ctx context.Context, f file) result {
	began := s.now()
	fctx, cancel := guardrails.ForFile(ctx, s.tos)
	defer cancel()

	done := func(r result) result {
		r.event.Elapsed = s.now().Sub(began)
		s.logOutcome(ctx, r)
		return r
	}

	id := uuid.New()
	var dets []detect.Detection
	if f.issue != "" {
		dets = []detect.Detection{{MediaID: id, IssueType: f.issue, Confidence: 1}}
	} else {
		_, known, err := s.p.Dedup.Lookup(fctx, f.hash)
		if err != nil {
			r := reject(f, domain.ReasonStorage, err.Error())
			r.err = err
			return done(*r)
		}
		if !known {
			dets, err = s.p.Detect.Detect(fctx, detect.Media{
				ID: id, Hash: f.hash, Kind: f.kind, Data: f.up.Data, FileName: f.up.FileName,
			})
			if err != nil {
				return done(*fail(f, err))
			}
			if len(dets) == 0 {
				return done(*reject(f, domain.ReasonNoDetection, "no issue was detected in the file"))
			}
		}
	}

	item := media.Item{
		ID:             id,
		Kind:           f.kind.Name(),
		Hash:           f.hash,
		ContentType:    f.kind.ContentType(),
		FileName:       f.up.FileName,
		Size:           int64(len(f.up.Data)),
		Location:       f.loc,
		LocationSource: f.src,
		UploadedAt:     began.UTC(),
	}

	var (
		claim    dedup.Claim
		stored   media.Item
		outcomes []aggregate.Outcome
		touched  []uuid.UUID
	)
	err := guardrails.Retry(fctx, s.cfg.Retries, s.cfg.RetryBase, func(attempt int) error {
		if attempt > 0 {
			logger.C(ctx).Debug().Int("file", f.index).Int("attempt", attempt).Msg("retrying file commit")
			// drop what a failed attempt wrote outside the tx, this one may commit as a duplicate
			s.p.Media.Abandon(ctx, stored)
			stored = media.Item{}
		}
		dctx, dcancel := guardrails.ForDB(fctx, s.tos)
		defer dcancel()
		return s.db.Tx(dctx, func(q repokit.Queryer) error {
			var err error
			outcomes, touched = nil, nil
			claim, err = s.p.Dedup.RegisterIfAbsent(dctx, q, f.hash, id)
			if err != nil {
				return err
			}
			if !claim.Registered {
				if _, err := s.p.Media.RecordDuplicate(dctx, q, item, claim.CanonicalID); err != nil {
					return err
				}
				touched, err = s.p.Tickets.IncrementRejected(dctx, q, claim.CanonicalID)
				return err
			}
			if len(dets) == 0 {
				// the pre check saw this hash, fingerprints are never deleted
				return perr.Conflictf("fingerprint %s vanished after lookup", f.hash)
			}
			it, err := s.p.Media.Store(dctx, q, item, f.up.Data)
			if err != nil {
				return err
			}
			stored = it
			outcomes, err = s.p.Aggregate.Apply(dctx, q, aggregate.Input{
				MediaID:    id,
				Location:   f.loc,
				At:         item.UploadedAt,
				Detections: dets,
			})
			return err
		})
	})
	if err != nil {
		s.p.Media.Abandon(ctx, stored)
		return done(*fail(f, err))
	}

	if !claim.Registered {
		r := reject(f, domain.ReasonDuplicate, "complaint is already registered")
		r.rejected.MediaID = &id
		canonical := claim.CanonicalID
		r.rejected.CanonicalMediaID = &canonical
		r.rejected.TicketIDs = touched
		r.touched = touched
		r.event.MediaID = id
		r.event.Outcome = domain.OutcomeDuplicate
		r.event.TicketIDs = touched
		return done(*r)
	}

	acc := &domain.Accepted{
		Index:          f.index,
		FileName:       f.up.FileName,
		MediaID:        id,
		Kind:           f.kind.Name(),
		LocationSource: f.src,
		Detections:     dets,
		Outcomes:       outcomes,
	}
	r := result{accepted: acc, event: domain.Event{
		FileIndex: f.index,
		FileName:  f.up.FileName,
		MediaID:   id,
		Outcome:   domain.OutcomeAccepted,
	}}
	for _, o := range outcomes {
		r.touched = append(r.touched, o.TicketID)
		r.event.IssueTypes = append(r.event.IssueTypes, o.IssueType)
	}
	r.event.TicketIDs = unique(r.touched)
	return done(r)
}

// fail rejects f with the reason derived from err and keeps err for single file callers
func fail(f file, err error) *result {
	r := reject(f, domain.ReasonFor(err), err.Error())
	r.err = err
	return r
}

func reject(f file, reason domain.Reason, msg string) *result {
	return &result{
		rejected: &domain.Rejected{Index: f.index, FileName: f.up.FileName, Reason: reason, Message: msg},
		event: domain.Event{
			FileIndex: f.index,
			FileName:  f.up.FileName,
			Outcome:   domain.OutcomeRejected,
			Reason:    reason,
		},
	}
}

func (s *Service) logOutcome(ctx context.Context, r result) {
	ev := logger.C(ctx).Info()
	if r.rejected != nil && r.rejected.Reason != domain.ReasonDuplicate {
		ev = logger.C(ctx).Warn().Str("reason", string(r.rejected.Reason)).Str("error", r.rejected.Message)
	}
	ev.Int("file", r.event.FileIndex).
		Str("file_name", r.event.FileName).
		Str("media_id", r.event.MediaID.String()).
		Str("outcome", string(r.event.Outcome)).
		Int("tickets", len(r.touched)).
		Msg("file ingested")
}

// assemble orders the per file results and snapshots every touched ticket
func (s *Service) assemble(ctx context.Context, batchID uuid.UUID, results []result) domain.BatchResult {
	out := domain.BatchResult{
		BatchID:        batchID,
		TicketsCreated: []tickets.Ticket{},
		Accepted:       []domain.Accepted{},
		Rejected:       []domain.Rejected{},
	}
	var touched []uuid.UUID
	failed := 0
	for _, r := range results {
		switch {
		case r.accepted != nil:
			out.Accepted = append(out.Accepted, *r.accepted)
		case r.rejected != nil:
			out.Rejected = append(out.Rejected, *r.rejected)
			if r.rejected.Reason == domain.ReasonDuplicate {
				out.DuplicatesFound++
			} else {
				failed++
			}
		}
		touched = append(touched, r.touched...)
	}

	if ids := unique(touched); len(ids) > 0 {
		// committed files stay committed, a failed read only empties the snapshot
		snap, err := s.p.Tickets.Snapshot(context.WithoutCancel(ctx), ids)
		if err != nil {
			logger.C(ctx).Error().Err(err).Int("tickets", len(ids)).Msg("ticket snapshot failed")
		} else {
			out.TicketsCreated = snap
		}
	}
	out.Message = message(out.DuplicatesFound, failed)
	return out
}

// message is the non blocking notice shown with the batch result
func message(duplicates, failed int) string {
	switch {
	case duplicates > 0 && failed > 0:
		return fmt.Sprintf("%d file(s) were not registered because the complaint is already registered. %d file(s) could not be processed. Thanks for your concern!", duplicates, failed)
	case duplicates > 0:
		return fmt.Sprintf("%d file(s) were not registered because the complaint is already registered. Thanks for your concern!", duplicates)
	case failed > 0:
		return fmt.Sprintf("%d file(s) could not be processed, see rejected for details", failed)
	default:
		return "ok"
	}
}

func (s *Service) emit(ctx context.Context, batchID uuid.UUID, results []result) {
	at := s.now().UTC()
	events := make([]domain.Event, 0, len(results))
	for _, r := range results {
		ev := r.event
		ev.At, ev.BatchID = at, batchID
		events = append(events, ev)
	}
	if err := s.p.Events.Emit(context.WithoutCancel(ctx), events); err != nil {
		logger.C(ctx).Warn().Err(err).Int("events", len(events)).Msg("ingest events dropped")
	}
}

func unique(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Discard is the event sink used when analytics are off
type Discard struct{}

// Emit drops events
func (Discard) Emit(context.Context, []domain.Event) error { return nil }
