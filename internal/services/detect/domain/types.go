// Package domain holds detection types and the detector ports
package domain

import (
	"mdms/internal/core/fingerprint"
	"mdms/internal/core/issuetype"
	"mdms/internal/core/mediakind"

	"github.com/google/uuid"
)

// BBox is a detector bounding box in source pixel coordinates
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Media is one payload handed to a detector
type Media struct {
	ID       uuid.UUID
	Hash     fingerprint.Hash
	Kind     mediakind.Kind
	Data     []byte
	FileName string
}

// Raw is a detector result before folding onto the closed issue type set
type Raw struct {
	Class      string
	Confidence float64
	BBox       *BBox
	Frame      *int
}

// Detection is a validated per media finding
type Detection struct {
	MediaID    uuid.UUID      `json:"media_item_id"`
	IssueType  issuetype.Type `json:"issue_type"`
	Confidence float64        `json:"confidence"`
	BBox       *BBox          `json:"bbox,omitempty"`
	Frame      *int           `json:"frame,omitempty"`
}
