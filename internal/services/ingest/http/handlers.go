// Package http provides the batch upload endpoint
package http

import (
	stdhttp "net/http"
	"strconv"

	"mdms/internal/core/geo"
	"mdms/internal/modkit/httpkit"
	perr "mdms/internal/platform/errors"
	"mdms/internal/services/ingest/domain"
)

// form fields
const (
	FieldFiles     = "files"
	FieldFile      = "file"
	FieldIssueType = "issue_type"
	FieldLatitude  = "latitude"
	FieldLongitude = "longitude"
)

// Limits bound what the transport reads before the service sees the batch
type Limits struct {
	MaxBodyBytes int64
	MaxFileBytes int64
}

// Register mounts ingestion endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort, l Limits) {
	h := &handlers{svc: s}
	httpkit.PostMultipart(r, "/batch", FieldFiles, httpkit.MultipartOptions{
		MaxBodyBytes: l.MaxBodyBytes,
		MaxFileBytes: l.MaxFileBytes,
	}, h.batch)
	httpkit.PostMultipart(r, "/", FieldFile, httpkit.MultipartOptions{
		MaxBodyBytes: l.MaxFileBytes + 1<<20,
		MaxFileBytes: l.MaxFileBytes,
	}, h.one)
}

type handlers struct{ svc domain.ServicePort }

// swagger:route POST /complaints/batch Complaints complaintsBatch
// @Summary Submit a batch of photos or videos
// @Description Files are deduplicated, classified and folded into tickets. Per file failures are listed in rejected.
// @Tags Complaints
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Media files, repeat the field per file"
// @Param latitude formData string false "Latitude per file, index aligned, empty when unknown"
// @Param longitude formData string false "Longitude per file, index aligned, empty when unknown"
// @Success 200 {object} domain.BatchResult "ok"
// @Failure 400 {object} httpkit.Envelope "empty batch"
// @Failure 503 {object} httpkit.Envelope "store unreachable"
// @Router /complaints/batch [post]
func (h *handlers) batch(r *stdhttp.Request, f httpkit.Form) (any, error) {
	return h.svc.SubmitBatch(r.Context(), uploads(f))
}

// swagger:route POST /complaints Complaints complaintsCreate
// @Summary File one image under a chosen issue type
// @Description The issue type replaces detection. EXIF GPS wins over the manual latitude and longitude.
// @Tags Complaints
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Param issue_type formData string true "Issue type, aliases such as pothole or street_debris are accepted"
// @Param latitude formData string false "Manual latitude"
// @Param longitude formData string false "Manual longitude"
// @Success 200 {object} domain.ComplaintResult "ok or duplicate"
// @Failure 400 {object} httpkit.Envelope "invalid issue type or coordinates"
// @Failure 413 {object} httpkit.Envelope "file too large"
// @Failure 415 {object} httpkit.Envelope "not an image"
// @Router /complaints [post]
func (h *handlers) one(r *stdhttp.Request, f httpkit.Form) (any, error) {
	if len(f.Parts) != 1 {
		return nil, perr.WithField(perr.Validationf("exactly one file is required, got %d", len(f.Parts)), FieldFile)
	}
	loc, err := location(f.Value(FieldLatitude, 0), f.Value(FieldLongitude, 0))
	if err != nil {
		return nil, err
	}
	p := f.Parts[0]
	return h.svc.SubmitOne(r.Context(), domain.Complaint{
		FileName:  p.FileName,
		Data:      p.Data,
		Size:      p.Size,
		TooLarge:  p.TooLarge,
		IssueType: f.Value(FieldIssueType, 0),
		Location:  loc,
	})
}

// uploads turns the form into service input, coordinates pair up by index
// a coordinate that does not parse rejects only its own file
func uploads(f httpkit.Form) []domain.Upload {
	out := make([]domain.Upload, 0, len(f.Parts))
	for i, p := range f.Parts {
		loc, err := location(f.Value(FieldLatitude, i), f.Value(FieldLongitude, i))
		out = append(out, domain.Upload{
			FileName:    p.FileName,
			Data:        p.Data,
			Size:        p.Size,
			TooLarge:    p.TooLarge,
			Location:    loc,
			LocationErr: err,
		})
	}
	return out
}

func location(lat, lng string) (*geo.Point, error) {
	if lat == "" || lng == "" {
		return nil, nil
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, perr.WithField(perr.Validationf("invalid latitude %q", lat), FieldLatitude)
	}
	ln, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return nil, perr.WithField(perr.Validationf("invalid longitude %q", lng), FieldLongitude)
	}
	return &geo.Point{Lat: la, Lng: ln}, nil
}
