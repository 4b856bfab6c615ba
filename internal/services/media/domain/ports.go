package domain

import (
	"context"

	"mdms/internal/modkit/repokit"

	"github.com/google/uuid"
)

// ServicePort is what ingestion and the http layer need from media
type ServicePort interface {
	// Store writes the payload and the item row with q, the row is visible after commit
	Store(ctx context.Context, q repokit.Queryer, it Item, data []byte) (Item, error)

	// RecordDuplicate writes a metadata only row pointing at canonical
	RecordDuplicate(ctx context.Context, q repokit.Queryer, it Item, canonical uuid.UUID) (Item, error)

	// Abandon releases payload bytes written outside the tx after the tx failed
	Abandon(ctx context.Context, it Item)

	Get(ctx context.Context, id uuid.UUID) (Item, error)
	Retrieve(ctx context.Context, id uuid.UUID) (Payload, error)
}

// BlobStore keeps payload bytes
// stores that cannot join the sql tx write immediately and undo in Discard
type BlobStore interface {
	Put(ctx context.Context, q repokit.Queryer, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Discard(ctx context.Context, key string) error
	Name() string
}
