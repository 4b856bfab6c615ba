// Package module wires batch ingestion into the API using modkit
package module

import (
	"net/http"

	"mdms/internal/core/authority"
	modkit "mdms/internal/modkit"
	"mdms/internal/modkit/httpkit"
	"mdms/internal/modkit/repokit"
	"mdms/internal/modkit/swaggerkit"
	str "mdms/internal/platform/strings"
	aggsvc "mdms/internal/services/aggregate/service"
	deduprepo "mdms/internal/services/dedup/repo"
	dedupsvc "mdms/internal/services/dedup/service"
	detect "mdms/internal/services/detect/domain"
	"mdms/internal/services/ingest/domain"
	ingesthttp "mdms/internal/services/ingest/http"
	"mdms/internal/services/ingest/service"
	media "mdms/internal/services/media/domain"
	tickets "mdms/internal/services/tickets/domain"
)

// Ports declares what ingestion needs from the modules it drives
type Ports struct {
	Media     media.ServicePort
	Tickets   tickets.ServicePort
	Detect    detect.ServicePort
	Events    domain.EventSink
	Authority authority.Mapping
}

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     any
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc *service.Service
}

// New constructs the ingest module, dedup and the aggregation engine are owned here
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("ingest"),
		modkit.WithPrefix("/complaints"),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Media == nil || injected.Tickets == nil || injected.Detect == nil {
		panic("ingest module requires media, tickets and detect ports")
	}

	o := FromConfig(deps.Cfg)
	dd := dedupsvc.New(deps.PG, modkit.Binder[deduprepo.Repo](deps, deduprepo.NewPG(), deduprepo.NewMemory()))
	agg := aggsvc.New(injected.Tickets, injected.Authority, aggsvc.ConfigFrom(deps.Cfg))

	svc := service.New(txRunner(deps, o), service.Ports{
		Dedup:     dd,
		Detect:    injected.Detect,
		Media:     injected.Media,
		Tickets:   injected.Tickets,
		Aggregate: agg,
		Events:    injected.Events,
	}, o.service())

	lim := svc.Limits()
	deps.Log.Info().
		Int("max_batch", lim.MaxBatch).
		Int64("max_file_bytes", lim.MaxFileBytes).
		Int("workers", lim.Workers).
		Float64("radius_m", agg.Config().RadiusM).
		Dur("window", agg.Config().Window).
		Msg("ingest ready")

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = domain.ServicePort(svc)
	swaggerkit.Register("ingest.issue_type", ingesthttp.IssueTypeDoc)

	external := b.Register
	m.register = func(r httpkit.Router) {
		ingesthttp.Register(r, m.svc, ingesthttp.Limits{MaxBodyBytes: o.MaxBodyBytes, MaxFileBytes: lim.MaxFileBytes})
		if external != nil {
			external(r)
		}
	}
	return m
}

// txRunner is the runner for per file commits, on postgres a stuck cell lock fails fast and the commit retries
func txRunner(deps modkit.Deps, o Options) repokit.TxRunner {
	if deps.Memory || o.LockTimeout <= 0 {
		return deps.PG
	}
	return repokit.WithBeginHooks(deps.PG, repokit.LockTimeout(o.LockTimeout))
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Gateway returns the batch service for non http callers
func (m *Module) Gateway() domain.ServicePort { return m.svc }

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
