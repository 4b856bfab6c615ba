// Package module implements the detect module
package module

import (
	"net/http"

	"mdms/internal/adapters/detector/vision"
	"mdms/internal/adapters/detector/yolo"
	"mdms/internal/modkit"
	"mdms/internal/modkit/httpkit"
	"mdms/internal/services/detect/domain"
	"mdms/internal/services/detect/service"
)

// Ports exposed by the detect module
type Ports struct {
	Detector domain.ServicePort
}

// Module implements modkit.Module
type Module struct {
	deps    modkit.Deps
	ports   Ports
	backend string
}

// WithDetector injects a backend instead of building one from Options
func WithDetector(d domain.Detector) modkit.Option { return modkit.WithPorts(d) }

// New constructs a new detect module, zero fields in overrides keep the configured value
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("detect"),
	}, opts...)...)

	cfg := merge(FromConfig(deps.Cfg), overrides)

	det, ok := b.Ports.(domain.Detector)
	if !ok || det == nil {
		var err error
		if det, err = build(cfg); err != nil {
			panic(err)
		}
	}

	svc := service.New(det, service.Config{
		Timeout:       cfg.Timeout,
		MinConfidence: cfg.MinConfidence,
		ImageMaxSide:  cfg.ImageMaxSide,
		JPEGQuality:   cfg.JPEGQuality,
	})
	deps.Log.Info().
		Str("backend", det.Name()).
		Dur("timeout", cfg.Timeout).
		Float64("min_confidence", cfg.MinConfidence).
		Msg("detector ready")

	return &Module{deps: deps, ports: Ports{Detector: svc}, backend: det.Name()}
}

func build(o Options) (domain.Detector, error) {
	if o.Backend == BackendVision {
		return vision.New(vision.Options{APIKey: o.OpenAIKey, Model: o.OpenAIModel, BaseURL: o.OpenAIURL})
	}
	return yolo.New(yolo.Options{BaseURL: o.URL, MaxRetries: o.MaxRetries})
}

func merge(cfg, o Options) Options {
	if o.Backend != "" {
		cfg.Backend = o.Backend
	}
	if o.URL != "" {
		cfg.URL = o.URL
	}
	if o.Timeout != 0 {
		cfg.Timeout = o.Timeout
	}
	if o.MinConfidence != 0 {
		cfg.MinConfidence = o.MinConfidence
	}
	if o.ImageMaxSide != 0 {
		cfg.ImageMaxSide = o.ImageMaxSide
	}
	if o.JPEGQuality != 0 {
		cfg.JPEGQuality = o.JPEGQuality
	}
	if o.MaxRetries != 0 {
		cfg.MaxRetries = o.MaxRetries
	}
	if o.OpenAIKey != "" {
		cfg.OpenAIKey = o.OpenAIKey
	}
	if o.OpenAIModel != "" {
		cfg.OpenAIModel = o.OpenAIModel
	}
	if o.OpenAIURL != "" {
		cfg.OpenAIURL = o.OpenAIURL
	}
	return cfg
}

// Backend names the detector in use
func (m *Module) Backend() string { return m.backend }

// Name satisfies modkit.Module
func (m *Module) Name() string { return "detect" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares satisfies modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(_ httpkit.Router) {}
