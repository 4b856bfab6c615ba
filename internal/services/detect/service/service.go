// Package service runs detection for ingestion, one detector call per content hash at a time
package service

import (
	"context"
	"errors"
	"time"

	"mdms/internal/core/issuetype"
	"mdms/internal/core/mediakind"
	"mdms/internal/core/photo"
	perr "mdms/internal/platform/errors"
	"mdms/internal/platform/logger"
	"mdms/internal/services/detect/domain"

	"golang.org/x/sync/singleflight"
)

// Config for the detect service
type Config struct {
	Timeout       time.Duration
	MinConfidence float64
	ImageMaxSide  int
	JPEGQuality   int
}

// Service implements domain.ServicePort
type Service struct {
	Det    domain.Detector
	Cfg    Config
	shrink photo.Shrinker
	flight singleflight.Group
}

var _ domain.ServicePort = (*Service)(nil)

// New constructs a detect service around a backend
func New(det domain.Detector, cfg Config) *Service {
	if det == nil {
		panic("detect.Service requires a non nil Detector")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		cfg.MinConfidence = 0.25
	}
	return &Service{
		Det:    det,
		Cfg:    cfg,
		shrink: photo.NewShrinker(cfg.ImageMaxSide, cfg.JPEGQuality),
	}
}

// Detect classifies m, concurrent calls for the same hash share one backend call
// the shared call is detached from any one caller so a leaving caller does not fail the rest
func (s *Service) Detect(ctx context.Context, m domain.Media) ([]domain.Detection, error) {
	if m.Kind == nil || len(m.Data) == 0 {
		return nil, perr.InvalidArgf("detect: media kind and payload are required")
	}
	key := m.Hash.Hex()
	if m.Hash.IsZero() {
		key = m.ID.String()
	}

	ch := s.flight.DoChan(key, func() (any, error) {
		return s.call(context.WithoutCancel(ctx), m)
	})
	select {
	case <-ctx.Done():
		return nil, perr.Wrap(ctx.Err(), perr.ErrorCodeDetectionTimeout, "detect: caller gave up")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		raws := res.Val.([]domain.Raw)
		if res.Shared {
			logger.C(ctx).Debug().Str("hash", key).Msg("detection shared with a concurrent upload")
		}
		return s.fold(ctx, m, raws)
	}
}

func (s *Service) call(ctx context.Context, m domain.Media) ([]domain.Raw, error) {
	if _, ok := m.Kind.(mediakind.Image); ok {
		out, changed, err := s.shrink.Shrink(m.Data)
		switch {
		case err != nil:
			// the backend may still decode formats imaging cannot
			logger.C(ctx).Debug().Err(err).Msg("image pre processing skipped")
		case changed:
			m.Data = out
			m.Kind = mediakind.Image{MIME: "image/jpeg", Ext: ".jpg"}
		}
	}

	cctx, cancel := context.WithTimeout(ctx, s.Cfg.Timeout)
	defer cancel()

	start := time.Now()
	raws, err := s.Det.Detect(cctx, m)
	if err != nil {
		if errors.Is(cctx.Err(), context.DeadlineExceeded) && !perr.IsCode(err, perr.ErrorCodeDetectionTimeout) {
			err = perr.Wrapf(err, perr.ErrorCodeDetectionTimeout, "detect: %s exceeded %s", s.Det.Name(), s.Cfg.Timeout)
		}
		return nil, err
	}
	logger.C(ctx).Debug().
		Str("backend", s.Det.Name()).
		Int("raw", len(raws)).
		Dur("latency", time.Since(start)).
		Msg("detector returned")
	return raws, nil
}

// fold validates raws, maps classes onto the closed set and collapses per issue type
func (s *Service) fold(ctx context.Context, m domain.Media, raws []domain.Raw) ([]domain.Detection, error) {
	kept := make([]domain.Detection, 0, len(raws))
	for i, r := range raws {
		if r.Class == "" {
			return nil, perr.DetectionFailedf("detect: detection %d has no class", i)
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			return nil, perr.DetectionFailedf("detect: detection %d confidence %v outside [0,1]", i, r.Confidence)
		}
		t, ok := issuetype.Parse(r.Class)
		if !ok {
			logger.C(ctx).Debug().Str("class", r.Class).Msg("dropping class outside the issue set")
			continue
		}
		if r.Confidence < s.Cfg.MinConfidence {
			continue
		}
		kept = append(kept, domain.Detection{
			MediaID:    m.ID,
			IssueType:  t,
			Confidence: r.Confidence,
			BBox:       r.BBox,
			Frame:      r.Frame,
		})
	}
	return Collapse(kept), nil
}

// Collapse keeps one detection per issue type in first seen order
// the highest confidence wins and the earliest frame is kept
func Collapse(xs []domain.Detection) []domain.Detection {
	idx := make(map[issuetype.Type]int, len(xs))
	out := make([]domain.Detection, 0, len(xs))
	for _, d := range xs {
		i, seen := idx[d.IssueType]
		if !seen {
			idx[d.IssueType] = len(out)
			out = append(out, d)
			continue
		}
		cur := &out[i]
		frame := earliest(cur.Frame, d.Frame)
		if d.Confidence > cur.Confidence {
			cur.Confidence, cur.BBox = d.Confidence, d.BBox
		}
		cur.Frame = frame
	}
	return out
}

func earliest(a, b *int) *int {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b < *a:
		return b
	}
	return a
}
