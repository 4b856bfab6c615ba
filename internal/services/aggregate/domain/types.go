// Package domain holds the ticket aggregation types and its decision table
package domain

import (
	"time"

	"mdms/internal/core/geo"
	"mdms/internal/core/issuetype"
	detect "mdms/internal/services/detect/domain"

	"github.com/google/uuid"
)

// Action is what the engine did with one detection
type Action string

// actions
const (
	ActionCreateTicket    Action = "create_ticket"
	ActionCreateSubTicket Action = "create_sub_ticket"
	ActionAttachMedia     Action = "attach_media"
)

// Decide is the aggregation state table keyed by (ticket found, sub ticket present)
//
//	(false, *)     -> create ticket
//	(true, false)  -> create sub ticket
//	(true, true)   -> attach media
func Decide(ticketFound, subPresent bool) Action {
	switch {
	case !ticketFound:
		return ActionCreateTicket
	case !subPresent:
		return ActionCreateSubTicket
	default:
		return ActionAttachMedia
	}
}

// Input is one novel media item and its collapsed detections
type Input struct {
	MediaID    uuid.UUID
	Location   *geo.Point
	At         time.Time
	Detections []detect.Detection
}

// Outcome reports where one detection landed
type Outcome struct {
	Action      Action         `json:"action"`
	TicketID    uuid.UUID      `json:"ticket_id"`
	SubTicketID uuid.UUID      `json:"sub_ticket_id"`
	IssueType   issuetype.Type `json:"issue_type"`
	Authority   string         `json:"authority"`
}

// Config tunes grouping
type Config struct {
	// RadiusM is the merge radius in metres, also the lock grid edge
	RadiusM float64
	// Window bounds how old a candidate ticket may be
	Window time.Duration
	// LockNamespace separates aggregation locks from other advisory lock users
	LockNamespace string
}

// defaults
const (
	DefaultRadiusM       = 20.0
	DefaultWindow        = 720 * time.Hour
	DefaultLockNamespace = "mdms.aggregate"
)

// Normalize fills zero and invalid fields with defaults
func (c Config) Normalize() Config {
	if c.RadiusM <= 0 {
		c.RadiusM = DefaultRadiusM
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.LockNamespace == "" {
		c.LockNamespace = DefaultLockNamespace
	}
	return c
}
