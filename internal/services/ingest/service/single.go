package service

import (
	"context"

	"mdms/internal/core/issuetype"
	"mdms/internal/core/mediakind"
	"mdms/internal/core/photo"
	perr "mdms/internal/platform/errors"
	"mdms/internal/platform/logger"
	"mdms/internal/services/ingest/domain"
	media "mdms/internal/services/media/domain"

	"github.com/google/uuid"
)

const duplicateNotice = "This complaint is already registered. Thanks for your concern."

// SubmitOne files one image under the issue type the citizen picked
// it shares dedup, aggregation and the per file commit with SubmitBatch
func (s *Service) SubmitOne(ctx context.Context, c domain.Complaint) (domain.ComplaintResult, error) {
	t, ok := issuetype.Parse(c.IssueType)
	if !ok {
		return domain.ComplaintResult{}, perr.WithField(perr.Validationf("invalid issue type %q", c.IssueType), "issue_type")
	}
	if c.Location != nil && !c.Location.Valid() {
		c.Location = nil
	}
	f, err := s.admitOne(c)
	if err != nil {
		return domain.ComplaintResult{}, err
	}
	f.issue = t
	if err := s.ping(ctx); err != nil {
		return domain.ComplaintResult{}, err
	}

	batchID := uuid.New()
	ctx = logger.WithBatch(ctx, batchID.String())
	r := s.process(ctx, f)
	s.emit(ctx, batchID, []result{r})

	out := domain.ComplaintResult{IssueType: t, GPS: gpsOf(f)}
	switch {
	case r.accepted != nil:
		o := r.accepted.Outcomes[0]
		out.Status = domain.ComplaintSuccess
		out.Message = "ok"
		out.MediaID = r.accepted.MediaID
		out.TicketID, out.SubTicketID = &o.TicketID, &o.SubTicketID
		out.Authority = o.Authority
		// committed stays committed, a failed read only drops the snapshot
		if tk, err := s.p.Tickets.Get(context.WithoutCancel(ctx), o.TicketID); err != nil {
			logger.C(ctx).Error().Err(err).Str("ticket_id", o.TicketID.String()).Msg("ticket snapshot failed")
		} else {
			out.Ticket = &tk
		}
		return out, nil
	case r.rejected != nil && r.rejected.Reason == domain.ReasonDuplicate:
		out.Status = domain.ComplaintDuplicate
		out.Message = duplicateNotice
		out.MediaID = *r.rejected.MediaID
		out.CanonicalMediaID = r.rejected.CanonicalMediaID
		out.TicketIDs = r.rejected.TicketIDs
		return out, nil
	case r.err != nil:
		return domain.ComplaintResult{}, r.err
	default:
		return domain.ComplaintResult{}, perr.Internalf("complaint rejected: %s", r.rejected.Message)
	}
}

// admitOne checks a single complaint, exif wins over the attached location
func (s *Service) admitOne(c domain.Complaint) (file, error) {
	up := domain.Upload{FileName: c.FileName, Data: c.Data, Size: c.Size, TooLarge: c.TooLarge}
	f := file{up: up, src: media.LocationUnknown}
	if c.TooLarge || int64(len(c.Data)) > s.cfg.MaxFileBytes || c.Size > s.cfg.MaxFileBytes {
		return f, perr.WithField(perr.TooLargef("file exceeds %d bytes", s.cfg.MaxFileBytes), "file")
	}
	k, err := mediakind.Sniff(c.Data)
	if err != nil {
		return f, perr.WithField(err, "file")
	}
	if k.Name() != mediakind.NameImage {
		return f, perr.WithField(perr.UnsupportedMediaf("only image files are allowed, got %s", k.ContentType()), "file")
	}
	f.kind = k
	f.hash = s.p.Dedup.Fingerprint(c.Data)

	if p, ok := photo.Location(c.Data); ok {
		f.loc, f.src = &p, media.LocationExif
	} else if c.Location != nil {
		p := *c.Location
		f.loc, f.src = &p, media.LocationAttached
	}
	return f, nil
}

func gpsOf(f file) domain.GPS {
	g := domain.GPS{Source: f.src}
	if f.loc != nil {
		lat, lng := f.loc.Lat, f.loc.Lng
		g.Latitude, g.Longitude = &lat, &lng
	}
	return g
}
