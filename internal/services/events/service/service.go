// Package service is the ingest event sink
package service

import (
	"context"
	"time"

	perr "mdms/internal/platform/errors"
	"mdms/internal/platform/logger"
	"mdms/internal/services/events/repo"
	ingest "mdms/internal/services/ingest/domain"
)

// Config for the sink
type Config struct {
	Chunk   int           // events per insert, <=0 -> 500
	Timeout time.Duration // per insert, <=0 -> 5s
}

// Sink implements ingest.EventSink over a repo writer
type Sink struct {
	w   repo.Writer
	cfg Config
}

var _ ingest.EventSink = (*Sink)(nil)

// New constructs a sink
func New(w repo.Writer, cfg Config) *Sink {
	if w == nil {
		panic("events.Sink requires a non nil Writer")
	}
	if cfg.Chunk <= 0 {
		cfg.Chunk = 500
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Sink{w: w, cfg: cfg}
}

// Emit writes events in chunks, the first failing chunk stops the rest
func (s *Sink) Emit(ctx context.Context, events []ingest.Event) error {
	for start := 0; start < len(events); start += s.cfg.Chunk {
		end := min(start+s.cfg.Chunk, len(events))
		cctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		err := s.w.Append(cctx, events[start:end])
		cancel()
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeStorage, "events: append to %s", s.w.Name())
		}
	}
	if len(events) > 0 {
		logger.C(ctx).Debug().Str("sink", s.w.Name()).Int("events", len(events)).Msg("ingest events written")
	}
	return nil
}
