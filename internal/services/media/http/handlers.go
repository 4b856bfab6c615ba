// Package http provides http transport for media
package http

import (
	"mime"
	stdhttp "net/http"

	"mdms/internal/modkit/httpkit"
	svc "mdms/internal/services/media/service"
)

// Register mounts media endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	httpkit.Raw(r, "/{id}", h.content)
	httpkit.Get(r, "/{id}/info", h.info)
}

type handlers struct{ svc svc.Service }

// swagger:route GET /media/{id} Media mediaContent
// @Summary Raw media payload
// @Tags Media
// @Produce octet-stream
// @Param id path string true "Media id"
// @Success 200 {file} binary "payload"
// @Failure 404 {object} httpkit.Envelope "unknown or metadata only id"
// @Router /media/{id} [get]
func (h *handlers) content(r *stdhttp.Request) httpkit.Response {
	id, err := httpkit.UUIDParam(r, "id")
	if err != nil {
		return httpkit.Error(err)
	}
	p, err := h.svc.Retrieve(r.Context(), id)
	if err != nil {
		return httpkit.Error(err)
	}
	resp := httpkit.Bytes(p.ContentType, p.Data)
	resp.Header = stdhttp.Header{}
	resp.Header.Set("Content-Disposition", disposition(p.FileName))
	return resp
}

// swagger:route GET /media/{id}/info Media mediaInfo
// @Summary Media metadata
// @Tags Media
// @Produce json
// @Param id path string true "Media id"
// @Success 200 {object} domain.Info "ok"
// @Router /media/{id}/info [get]
func (h *handlers) info(r *stdhttp.Request) (any, error) {
	id, err := httpkit.UUIDParam(r, "id")
	if err != nil {
		return nil, err
	}
	it, err := h.svc.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return it.ToInfo(), nil
}

func disposition(name string) string {
	if name == "" {
		return "inline"
	}
	if v := mime.FormatMediaType("inline", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "inline"
}
