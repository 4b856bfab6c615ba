// Package domain holds the batch ingestion model
package domain

import (
	"time"

	"mdms/internal/core/geo"
	"mdms/internal/core/issuetype"
	"mdms/internal/core/mediakind"
	perr "mdms/internal/platform/errors"
	aggregate "mdms/internal/services/aggregate/domain"
	detect "mdms/internal/services/detect/domain"
	media "mdms/internal/services/media/domain"
	tickets "mdms/internal/services/tickets/domain"

	"github.com/google/uuid"
)

// Upload is one file of a batch as received
// TooLarge is set by transports that stopped reading past the size cap
// LocationErr is set when the attached coordinates did not parse, only that file is rejected
type Upload struct {
	FileName    string
	Data        []byte
	Size        int64
	TooLarge    bool
	Location    *geo.Point
	LocationErr error
}

// Complaint is a single image filed under an issue type the citizen picked, no detector runs
type Complaint struct {
	FileName  string
	Data      []byte
	Size      int64
	TooLarge  bool
	IssueType string
	Location  *geo.Point
}

// Reason is the machine readable cause of a rejected file
type Reason string

// rejection reasons
const (
	ReasonBatchLimit       Reason = "batch_limit"
	ReasonFileTooLarge     Reason = "file_too_large"
	ReasonUnsupportedMedia Reason = "unsupported_media_type"
	ReasonDuplicate        Reason = "duplicate"
	ReasonNoDetection      Reason = "no_detection"
	ReasonDetectionTimeout Reason = "detection_timeout"
	ReasonDetectionFailed  Reason = "detection_failed"
	ReasonStorage          Reason = "storage_failure"
	ReasonInvalidInput     Reason = "invalid_input"
	ReasonInternal         Reason = "internal_error"
)

// ReasonFor maps a per file error onto a rejection reason
// ReasonDuplicate is never derived from an error, only the dedup claim sets it
func ReasonFor(err error) Reason {
	switch perr.CodeOf(err) {
	case perr.ErrorCodeTooLarge:
		return ReasonFileTooLarge
	case perr.ErrorCodeUnsupportedMedia:
		return ReasonUnsupportedMedia
	case perr.ErrorCodeDetectionTimeout:
		return ReasonDetectionTimeout
	case perr.ErrorCodeDetectionFailed:
		return ReasonDetectionFailed
	case perr.ErrorCodeStorage, perr.ErrorCodeDB, perr.ErrorCodeUnavailable, perr.ErrorCodeDuplicateKey:
		// unique violations inside the commit are store failures
		return ReasonStorage
	case perr.ErrorCodeValidation, perr.ErrorCodeInvalidArgument:
		return ReasonInvalidInput
	default:
		return ReasonInternal
	}
}

// Accepted describes a file that produced tickets
type Accepted struct {
	Index          int                 `json:"index"`
	FileName       string              `json:"file_name"`
	MediaID        uuid.UUID           `json:"media_item_id"`
	Kind           mediakind.Name      `json:"kind"`
	LocationSource media.LocationSource `json:"location_source"`
	Detections     []detect.Detection  `json:"detections"`
	Outcomes       []aggregate.Outcome `json:"outcomes"`
}

// Rejected describes a file that committed nothing, or only duplicate metadata
type Rejected struct {
	Index            int         `json:"index"`
	FileName         string      `json:"file_name"`
	Reason           Reason      `json:"reason"`
	Message          string      `json:"message"`
	MediaID          *uuid.UUID  `json:"media_item_id,omitempty"`
	CanonicalMediaID *uuid.UUID  `json:"canonical_media_id,omitempty"`
	TicketIDs        []uuid.UUID `json:"ticket_ids,omitempty"`
}

// BatchResult is the response to one batch
type BatchResult struct {
	BatchID         uuid.UUID        `json:"batch_id"`
	TicketsCreated  []tickets.Ticket `json:"tickets_created"`
	Accepted        []Accepted       `json:"accepted"`
	Rejected        []Rejected       `json:"rejected"`
	DuplicatesFound int              `json:"duplicates_found"`
	Message         string           `json:"message"`
}

// complaint statuses
const (
	ComplaintSuccess   = "success"
	ComplaintDuplicate = "duplicate"
)

// GPS is the location a complaint was filed under, nil coordinates when unknown
type GPS struct {
	Latitude  *float64             `json:"latitude"`
	Longitude *float64             `json:"longitude"`
	Source    media.LocationSource `json:"source"`
}

// ComplaintResult is the response to one complaint
type ComplaintResult struct {
	Status           string          `json:"status"`
	Message          string          `json:"message"`
	MediaID          uuid.UUID       `json:"media_item_id"`
	IssueType        issuetype.Type  `json:"issue_type"`
	GPS              GPS             `json:"gps"`
	TicketID         *uuid.UUID      `json:"ticket_id,omitempty"`
	SubTicketID      *uuid.UUID      `json:"sub_id,omitempty"`
	Authority        string          `json:"authority,omitempty"`
	Ticket           *tickets.Ticket `json:"ticket,omitempty"`
	CanonicalMediaID *uuid.UUID      `json:"canonical_media_id,omitempty"`
	TicketIDs        []uuid.UUID     `json:"ticket_ids,omitempty"`
}

// Outcome is the event level result of one file
type Outcome string

// outcomes
const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeRejected  Outcome = "rejected"
)

// Event is one per file analytics record
type Event struct {
	At         time.Time
	BatchID    uuid.UUID
	FileIndex  int
	FileName   string
	MediaID    uuid.UUID
	Outcome    Outcome
	Reason     Reason
	IssueTypes []issuetype.Type
	TicketIDs  []uuid.UUID
	Elapsed    time.Duration
}
