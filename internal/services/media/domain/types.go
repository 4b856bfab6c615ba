// Package domain holds the media item model and the ports around it
package domain

import (
	"time"

	"mdms/internal/core/fingerprint"
	"mdms/internal/core/geo"
	"mdms/internal/core/mediakind"

	"github.com/google/uuid"
)

// LocationSource records where a media item's coordinates came from
type LocationSource string

// location sources
const (
	LocationAttached LocationSource = "attached"
	LocationExif     LocationSource = "exif"
	LocationUnknown  LocationSource = "unknown"
)

// Item is one stored upload, payload bytes live in the blob store
// duplicates are metadata only and point at their canonical item
type Item struct {
	ID             uuid.UUID
	Kind           mediakind.Name
	Hash           fingerprint.Hash
	ContentType    string
	FileName       string
	Size           int64
	Location       *geo.Point
	LocationSource LocationSource
	Duplicate      bool
	CanonicalID    uuid.UUID // uuid.Nil unless Duplicate
	HasPayload     bool
	BlobKey        string
	UploadedAt     time.Time
}

// Payload is the retrievable content of an item
type Payload struct {
	Data        []byte
	ContentType string
	FileName    string
}

// Info is the json view of an item
type Info struct {
	ID             uuid.UUID      `json:"id"`
	Kind           mediakind.Name `json:"kind"`
	ContentHash    string         `json:"content_hash"`
	ContentType    string         `json:"content_type"`
	FileName       string         `json:"file_name"`
	Size           int64          `json:"size_bytes"`
	Latitude       *float64       `json:"latitude"`
	Longitude      *float64       `json:"longitude"`
	LocationSource LocationSource `json:"location_source"`
	Duplicate      bool           `json:"duplicate"`
	CanonicalID    *uuid.UUID     `json:"canonical_media_id,omitempty"`
	UploadedAt     time.Time      `json:"uploaded_at"`
}

// ToInfo converts an item to its json view
func (it Item) ToInfo() Info {
	out := Info{
		ID:             it.ID,
		Kind:           it.Kind,
		ContentHash:    it.Hash.Hex(),
		ContentType:    it.ContentType,
		FileName:       it.FileName,
		Size:           it.Size,
		LocationSource: it.LocationSource,
		Duplicate:      it.Duplicate,
		UploadedAt:     it.UploadedAt,
	}
	if it.Location != nil {
		lat, lng := it.Location.Lat, it.Location.Lng
		out.Latitude, out.Longitude = &lat, &lng
	}
	if it.Duplicate {
		id := it.CanonicalID
		out.CanonicalID = &id
	}
	return out
}
