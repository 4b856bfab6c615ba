// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"net/http"
	"time"

	"mdms/internal/core/authority"
	modkit "mdms/internal/modkit"
	"mdms/internal/modkit/httpkit"
	str "mdms/internal/platform/strings"

	metahttp "mdms/internal/services/meta/http"
)

// ServiceName is reported by health and service
const ServiceName = "mdms-api"

// Info describes the running configuration served under /meta
type Info struct {
	Detector  string
	Blobs     string
	Authority authority.Mapping
}

// Module implements the modkit.Module interface
type Module struct {
	deps      modkit.Deps
	name      string
	prefix    string
	mws       []func(http.Handler) http.Handler
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	authority authority.Mapping
	startedAt time.Time
}

// New constructs a meta module with the provided dependencies and options
func New(deps modkit.Deps, info Info, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		authority: info.Authority,
		startedAt: time.Now(),
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		metahttp.Register(r, metahttp.Deps{
			ServiceName: ServiceName,
			StartedAt:   m.startedAt,
			PG:          deps.PG,
			CH:          deps.CH,
			Detector:    info.Detector,
			Blobs:       info.Blobs,
		})
		if external != nil {
			external(r)
		}
	}

	return m
}

// MountRoutes implements the modkit.Module interface
// the authority table sits beside the prefix, at the api root
func (m *Module) MountRoutes(r httpkit.Router) {
	metahttp.RegisterAuthorities(r, m.authority)
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

// Name implements the modkit.Module interface
func (m *Module) Name() string { return str.MustString(m.name, "meta") }

// Prefix implements the modkit.Module interface
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares implements the modkit.Module interface
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
