package domain

import "context"

// Detector is a detection backend
type Detector interface {
	Detect(ctx context.Context, m Media) ([]Raw, error)
	Name() string
}

// ServicePort is what ingestion calls, results are filtered and collapsed per issue type
type ServicePort interface {
	Detect(ctx context.Context, m Media) ([]Detection, error)
}
