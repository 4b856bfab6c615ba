package bind

import (
	stderrs "errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	perr "mdms/internal/platform/errors"
)

// Part is one uploaded file read from a multipart form
// Data is nil when the part exceeded the per file cap, TooLarge reports that case
type Part struct {
	Index       int
	Field       string
	FileName    string
	ContentType string
	Size        int64
	Data        []byte
	TooLarge    bool
}

// MultipartOptions bounds what ParseMultipart reads
type MultipartOptions struct {
	MaxBodyBytes int64 // whole request, 0 means unbounded
	MaxFileBytes int64 // per file, 0 means unbounded
	MaxMemory    int64 // in memory threshold before temp files, default 32MB
}

// Form is the parsed multipart request: file parts in submission order plus plain values
type Form struct {
	Parts  []Part
	Values map[string][]string
}

// Value returns the i-th value of a repeated form field or "" when absent
func (f Form) Value(field string, i int) string {
	vs := f.Values[field]
	if i < 0 || i >= len(vs) {
		return ""
	}
	return strings.TrimSpace(vs[i])
}

// ParseMultipart reads file parts under field from a multipart request
// oversize files are reported per part instead of failing the whole request
func ParseMultipart(w http.ResponseWriter, r *http.Request, field string, o MultipartOptions) (Form, error) {
	if o.MaxMemory <= 0 {
		o.MaxMemory = 32 << 20
	}
	if o.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, o.MaxBodyBytes)
	}
	if err := r.ParseMultipartForm(o.MaxMemory); err != nil {
		var mbe *http.MaxBytesError
		if stderrs.As(err, &mbe) {
			return Form{}, perr.Wrap(err, perr.ErrorCodeTooLarge, "request body too large")
		}
		if stderrs.Is(err, http.ErrNotMultipart) {
			return Form{}, perr.Validationf("expected multipart/form-data")
		}
		return Form{}, perr.Wrap(err, perr.ErrorCodeValidation, "invalid multipart body")
	}
	form := Form{Values: map[string][]string{}}
	if r.MultipartForm == nil {
		return form, nil
	}
	for k, v := range r.MultipartForm.Value {
		form.Values[k] = v
	}
	for i, fh := range r.MultipartForm.File[field] {
		p, err := readPart(fh, o.MaxFileBytes)
		if err != nil {
			return Form{}, err
		}
		p.Index = i
		p.Field = field
		form.Parts = append(form.Parts, p)
	}
	return form, nil
}

func readPart(fh *multipart.FileHeader, maxFile int64) (Part, error) {
	p := Part{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	}
	if maxFile > 0 && fh.Size > maxFile {
		p.TooLarge = true
		return p, nil
	}
	f, err := fh.Open()
	if err != nil {
		return Part{}, perr.Wrapf(err, perr.ErrorCodeValidation, "open part %q", fh.Filename)
	}
	defer func() { _ = f.Close() }()

	var rd io.Reader = f
	if maxFile > 0 {
		rd = io.LimitReader(f, maxFile+1)
	}
	data, err := io.ReadAll(rd)
	if err != nil {
		return Part{}, perr.Wrapf(err, perr.ErrorCodeValidation, "read part %q", fh.Filename)
	}
	if maxFile > 0 && int64(len(data)) > maxFile {
		p.TooLarge = true
		return p, nil
	}
	p.Data = data
	p.Size = int64(len(data))
	return p, nil
}
