package domain

import "context"

// ServicePort is the ingestion gateway
type ServicePort interface {
	SubmitBatch(ctx context.Context, files []Upload) (BatchResult, error)

	// SubmitOne files one image under a chosen issue type, failures are returned as errors
	SubmitOne(ctx context.Context, c Complaint) (ComplaintResult, error)
}

// EventSink receives per file events after a batch, failures never fail the batch
type EventSink interface {
	Emit(ctx context.Context, events []Event) error
}
