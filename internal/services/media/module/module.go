// Package module wires media into the API using modkit
package module

import (
	"net/http"

	modkit "mdms/internal/modkit"
	"mdms/internal/modkit/httpkit"
	str "mdms/internal/platform/strings"
	"mdms/internal/services/media/domain"
	mediahttp "mdms/internal/services/media/http"
	mediarepo "mdms/internal/services/media/repo"
	mediasvc "mdms/internal/services/media/service"
)

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

	svc mediasvc.Service
}

// New constructs a media module, blobs decides where payload bytes live
func New(deps modkit.Deps, blobs domain.BlobStore, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("media"), modkit.WithPrefix("/media")}, opts...)...)

	binder := modkit.Binder[mediarepo.Repo](deps, mediarepo.NewPG(), mediarepo.NewMemory())
	svc := mediasvc.New(deps.PG, binder, blobs)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = adaptMediaPort{svc: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		mediahttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
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

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }
