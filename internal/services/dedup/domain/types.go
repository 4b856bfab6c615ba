// Package domain holds the dedup contract, one canonical media item per content hash
package domain

import (
	"context"

	"mdms/internal/core/fingerprint"
	"mdms/internal/modkit/repokit"

	"github.com/google/uuid"
)

// Claim is the outcome of registering a hash
// Registered is true when the caller's media id became canonical
type Claim struct {
	Registered  bool
	CanonicalID uuid.UUID
}

// ServicePort is what ingestion needs from dedup
type ServicePort interface {
	// Fingerprint hashes payload bytes
	Fingerprint(data []byte) fingerprint.Hash

	// Lookup is a non locking pre check, found content skips detection
	Lookup(ctx context.Context, h fingerprint.Hash) (uuid.UUID, bool, error)

	// RegisterIfAbsent claims h for mediaID within q, exactly one caller per hash wins
	RegisterIfAbsent(ctx context.Context, q repokit.Queryer, h fingerprint.Hash, mediaID uuid.UUID) (Claim, error)
}
