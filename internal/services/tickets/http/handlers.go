// Package http provides http transport for tickets
package http

import (
	stdhttp "net/http"
	"time"

	"mdms/internal/core/issuetype"
	"mdms/internal/modkit/httpkit"
	perr "mdms/internal/platform/errors"
	"mdms/internal/services/tickets/domain"
	svc "mdms/internal/services/tickets/service"
)

// Register mounts ticket endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	httpkit.GetQuery[ListInput](r, "/", h.list)
	httpkit.Get(r, "/{id}", h.get)
	httpkit.PatchJSON[StatusInput](r, "/sub/{sub_id}/status", h.status)
}

type handlers struct{ svc svc.Service }

// ListInput is the ticket list query
type ListInput struct {
	Status    string     `query:"status" validate:"omitempty,oneof=open in_progress resolved closed"`
	IssueType string     `query:"issue_type"`
	From      *time.Time `query:"from"`
	To        *time.Time `query:"to"`
	Page      *int       `query:"page" validate:"omitempty,min=1"`
	PageSize  *int       `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// StatusInput is the status change body
type StatusInput struct {
	Status string `json:"status" validate:"required,oneof=open in_progress resolved closed"`
}

func (in ListInput) filter() (domain.Filter, error) {
	f := domain.Filter{From: in.From, To: in.To}
	if in.Page != nil {
		f.Page = *in.Page
	}
	if in.PageSize != nil {
		f.PageSize = *in.PageSize
	}
	if in.Status != "" {
		st, err := domain.ParseStatus(in.Status)
		if err != nil {
			return f, err
		}
		f.Status = &st
	}
	if in.IssueType != "" {
		t, ok := issuetype.Parse(in.IssueType)
		if !ok {
			return f, perr.WithField(perr.Validationf("unknown issue type %q", in.IssueType), "issue_type")
		}
		f.IssueType = &t
	}
	return f, nil
}

// swagger:route GET /tickets Tickets ticketsList
// @Summary List tickets newest first
// @Tags Tickets
// @Produce json
// @Param status query string false "Sub ticket status" Enums(open, in_progress, resolved, closed)
// @Param issue_type query string false "Issue type"
// @Param from query string false "Sub tickets created at or after (RFC3339 or date)"
// @Param to query string false "Sub tickets created before (RFC3339 or date)"
// @Param page query int false "Page, 1 based"
// @Param page_size query int false "Page size, max 100"
// @Success 200 {array} domain.Ticket "ok"
// @Router /tickets [get]
func (h *handlers) list(r *stdhttp.Request, in ListInput) (any, error) {
	f, err := in.filter()
	if err != nil {
		return nil, err
	}
	p, err := h.svc.List(r.Context(), f)
	if err != nil {
		return nil, err
	}
	return httpkit.List(p.Tickets, p.Total, p.Page, p.PageSize), nil
}

// swagger:route GET /tickets/{id} Tickets ticketsGet
// @Summary One ticket with its sub tickets
// @Tags Tickets
// @Produce json
// @Param id path string true "Ticket id"
// @Success 200 {object} domain.Ticket "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /tickets/{id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	id, err := httpkit.UUIDParam(r, "id")
	if err != nil {
		return nil, err
	}
	return h.svc.Get(r.Context(), id)
}

// swagger:route PATCH /tickets/sub/{sub_id}/status Tickets ticketsStatus
// @Summary Move a sub ticket one lifecycle step forward
// @Tags Tickets
// @Accept json
// @Produce json
// @Param sub_id path string true "Sub ticket id"
// @Param payload body StatusInput true "Target status"
// @Success 200 {object} domain.SubTicket "ok"
// @Failure 409 {object} httpkit.Envelope "invalid transition"
// @Router /tickets/sub/{sub_id}/status [patch]
func (h *handlers) status(r *stdhttp.Request, in StatusInput) (any, error) {
	id, err := httpkit.UUIDParam(r, "sub_id")
	if err != nil {
		return nil, err
	}
	st, err := domain.ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}
	return h.svc.UpdateStatus(r.Context(), id, st)
}
