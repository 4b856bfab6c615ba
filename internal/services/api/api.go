// Package api provides the HTTP API for the application
package api

import (
	"context"
	"strings"

	"mdms/internal/adapters/blob/memblob"
	"mdms/internal/adapters/blob/pgblob"
	"mdms/internal/adapters/blob/s3blob"
	"mdms/internal/core/authority"
	"mdms/internal/platform/config"
	perr "mdms/internal/platform/errors"
	"mdms/internal/platform/logger"
	phttp "mdms/internal/platform/net/http"
	"mdms/internal/platform/store"

	"mdms/internal/modkit"
	"mdms/internal/modkit/httpkit"
	"mdms/internal/modkit/module"
	"mdms/internal/modkit/swaggerkit"

	detectdom "mdms/internal/services/detect/domain"
	detectmod "mdms/internal/services/detect/module"
	eventsmod "mdms/internal/services/events/module"
	ingestdom "mdms/internal/services/ingest/domain"
	ingestmod "mdms/internal/services/ingest/module"
	mediadom "mdms/internal/services/media/domain"
	mediamod "mdms/internal/services/media/module"
	metamod "mdms/internal/services/meta/module"
	ticketsdom "mdms/internal/services/tickets/domain"
	ticketsmod "mdms/internal/services/tickets/module"
)

// blob backends
const (
	BlobPG     = "pg"
	BlobS3     = "s3"
	BlobMemory = "memory"
)

// Options are the API options
type Options struct {
	Config         config.Conf // root view, modules apply their own prefixes
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
	Stack          httpkit.StackOptions

	// Blobs holds payload bytes, nil picks one from CORE_MEDIA_BLOB
	Blobs mediadom.BlobStore
	// AuthorityFile is a yaml routing table, empty keeps the built in one
	AuthorityFile string
	// Detector replaces the configured detector backend
	Detector detectdom.Detector
}

// Stack is the set of constructed modules and the ingestion entry point
type Stack struct {
	Modules []module.Module
	Gateway ingestdom.ServicePort
}

// Build constructs every module and wires their ports together
func Build(ctx context.Context, opt Options) (Stack, error) {
	if opt.Store == nil {
		return Stack{}, perr.InvalidArgf("api: nil store")
	}
	deps := modkit.FromStore(opt.Store, opt.Config)
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}

	mapping := authority.Default()
	if opt.AuthorityFile != "" {
		m, err := authority.Load(opt.AuthorityFile)
		if err != nil {
			return Stack{}, err
		}
		mapping = m
	}

	blobs := opt.Blobs
	if blobs == nil {
		b, err := Blobs(ctx, opt.Config, opt.Store)
		if err != nil {
			return Stack{}, err
		}
		blobs = b
	}

	var detOpts []modkit.Option
	if opt.Detector != nil {
		detOpts = append(detOpts, detectmod.WithDetector(opt.Detector))
	}
	detect := detectmod.New(deps, detectmod.Options{}, detOpts...)
	media := mediamod.New(deps, blobs)
	tickets := ticketsmod.New(deps)
	events := eventsmod.New(deps)

	// ingestion drives the other modules through their ports
	ingest := ingestmod.New(deps, modkit.WithPorts(ingestmod.Ports{
		Media:     module.MustPortsOf[mediadom.ServicePort](media),
		Tickets:   module.MustPortsOf[ticketsdom.ServicePort](tickets),
		Detect:    module.MustPortsOf[detectdom.ServicePort](detect),
		Events:    module.MustPortsOf[ingestdom.EventSink](events),
		Authority: mapping,
	}))

	meta := metamod.New(deps, metamod.Info{
		Detector:  detect.Backend(),
		Blobs:     blobs.Name(),
		Authority: mapping,
	})

	return Stack{
		Modules: []module.Module{meta, detect, media, tickets, events, ingest},
		Gateway: module.MustPortsOf[ingestdom.ServicePort](ingest),
	}, nil
}

// Blobs picks the payload store named by CORE_MEDIA_BLOB
func Blobs(ctx context.Context, root config.Conf, st *store.Store) (mediadom.BlobStore, error) {
	kind := strings.ToLower(root.Prefix("CORE_MEDIA_").MayEnum("BLOB", BlobPG, BlobPG, BlobS3, BlobMemory))
	if st.Memory && kind == BlobPG {
		kind = BlobMemory
	}
	switch kind {
	case BlobS3:
		return s3blob.New(ctx, s3blob.ConfigFrom(root.Prefix("SERVICE_S3_")))
	case BlobMemory:
		return memblob.New(), nil
	default:
		if st.PG == nil {
			return nil, perr.InvalidArgf("pg blob store needs postgres")
		}
		return pgblob.New(st.PG), nil
	}
}

// Mount builds the modules and mounts them onto the given router
func Mount(ctx context.Context, r phttp.Router, opt Options) (Stack, error) {
	stack, err := Build(ctx, opt)
	if err != nil {
		return Stack{}, err
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(opt.Stack), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range stack.Modules {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
	return stack, nil
}
