// Package domain holds tickets, sub tickets and their lifecycle
package domain

import (
	"time"

	"mdms/internal/core/geo"
	"mdms/internal/core/issuetype"
	perr "mdms/internal/platform/errors"

	"github.com/google/uuid"
)

// Status is the sub ticket lifecycle state
type Status string

// lifecycle, one step at a time
const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

var chain = []Status{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}

// ParseStatus validates a wire status
func ParseStatus(s string) (Status, error) {
	for _, x := range chain {
		if string(x) == s {
			return x, nil
		}
	}
	return "", perr.WithField(perr.Validationf("unknown status %q", s), "status")
}

// Next is the only status s may move to, ok is false at the end of the chain
func (s Status) Next() (Status, bool) {
	for i, x := range chain {
		if x == s && i+1 < len(chain) {
			return chain[i+1], true
		}
	}
	return "", false
}

// Accepting reports whether media may still attach to a sub ticket in s
func (s Status) Accepting() bool { return s == StatusOpen || s == StatusInProgress }

// CheckTransition rejects anything but a single forward step
func CheckTransition(from, to Status) error {
	next, ok := from.Next()
	if !ok || next != to {
		return perr.InvalidTransitionf("cannot move sub ticket from %s to %s", from, to)
	}
	return nil
}

// SubTicket is one issue type at one ticket location
type SubTicket struct {
	ID            uuid.UUID      `json:"id"`
	TicketID      uuid.UUID      `json:"ticket_id"`
	IssueType     issuetype.Type `json:"issue_type"`
	Authority     string         `json:"authority"`
	Status        Status         `json:"status"`
	MediaCount    int            `json:"media_count"`
	RejectedCount int            `json:"rejected_count"`
	Location      *geo.Point     `json:"location"`
	MediaIDs      []uuid.UUID    `json:"media_ids"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Ticket groups sub tickets at one location, sub tickets are in creation order
type Ticket struct {
	ID         uuid.UUID   `json:"id"`
	Location   *geo.Point  `json:"location"`
	CreatedAt  time.Time   `json:"created_at"`
	SubTickets []SubTicket `json:"sub_tickets"`
}

// Candidate is a nearby ticket the aggregation engine may merge into
// SubID is uuid.Nil when the ticket has no sub ticket of the queried issue type
type Candidate struct {
	TicketID  uuid.UUID
	Location  geo.Point
	CreatedAt time.Time
	SubID     uuid.UUID
	SubStatus Status
}

// CandidateQuery selects tickets inside Box created at or after Since
type CandidateQuery struct {
	Box       geo.Box
	Since     time.Time
	IssueType issuetype.Type
}

// list paging bounds
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Filter narrows List, filters apply to sub tickets
type Filter struct {
	Status    *Status
	IssueType *issuetype.Type
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// Normalize applies paging defaults and bounds
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

// Offset is the row offset of the page
func (f Filter) Offset() int { return (f.Page - 1) * f.PageSize }

// Matches reports whether s passes the sub ticket filters
func (f Filter) Matches(s SubTicket) bool {
	if f.Status != nil && s.Status != *f.Status {
		return false
	}
	if f.IssueType != nil && s.IssueType != *f.IssueType {
		return false
	}
	if f.From != nil && s.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !s.CreatedAt.Before(*f.To) {
		return false
	}
	return true
}

// Page is one window of List results ordered newest first
type Page struct {
	Tickets  []Ticket
	Total    int
	Page     int
	PageSize int
}
