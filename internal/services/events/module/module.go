// Package module implements the ingest events module
package module

import (
	"context"
	"net/http"
	"time"

	"mdms/internal/modkit"
	"mdms/internal/modkit/httpkit"
	"mdms/internal/platform/config"
	"mdms/internal/services/events/repo"
	"mdms/internal/services/events/service"
	ingest "mdms/internal/services/ingest/domain"
)

// Options holds configuration settings for the events module
type Options struct {
	Table   string
	Ensure  bool
	Chunk   int
	Timeout time.Duration
}

// FromConfig reads SERVICE_CLICKHOUSE_ sink settings
func FromConfig(cfg config.Conf) Options {
	ch := cfg.Prefix("SERVICE_CLICKHOUSE_")
	return Options{
		Table:   ch.MayString("EVENTS_TABLE", repo.DefaultTable),
		Ensure:  ch.MayBool("EVENTS_ENSURE", true),
		Chunk:   ch.MayInt("EVENTS_CHUNK", 500),
		Timeout: ch.MayDuration("EVENTS_TIMEOUT", 5*time.Second),
	}
}

// Ports exposed by the events module
type Ports struct {
	Sink ingest.EventSink
}

// Module implements modkit.Module
type Module struct {
	ports Ports
	name  string
}

// New builds the sink, without a clickhouse backend events are dropped
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("events")}, opts...)...)
	o := FromConfig(deps.Cfg)

	var w repo.Writer = repo.Nop{}
	if deps.CH != nil {
		ch := repo.NewCH(deps.CH, o.Table)
		w = ch
		if o.Ensure {
			ctx, cancel := context.WithTimeout(context.Background(), o.Timeout)
			if err := ch.Ensure(ctx); err != nil {
				deps.Log.Warn().Err(err).Str("table", o.Table).Msg("ingest events table not ensured")
			}
			cancel()
		}
	}
	deps.Log.Info().Str("sink", w.Name()).Msg("ingest events ready")

	return &Module{
		ports: Ports{Sink: service.New(w, service.Config{Chunk: o.Chunk, Timeout: o.Timeout})},
		name:  b.Name,
	}
}

// Sink returns the event sink
func (m *Module) Sink() ingest.EventSink { return m.ports.Sink }

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Middlewares satisfies modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(_ httpkit.Router) {}
