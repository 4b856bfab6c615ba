// Package yolo is the http client for the detection service contract
// images go to /api/yolo/detect-image and videos to /api/yolo/detect-video as multipart "file"
package yolo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"mdms/internal/core/mediakind"
	perr "mdms/internal/platform/errors"
	"mdms/internal/platform/logger"
	"mdms/internal/services/detect/domain"
)

const (
	imagePath = "/api/yolo/detect-image"
	videoPath = "/api/yolo/detect-video"

	defaultUA        = "mdms-detect"
	defaultMaxRetry  = 2
	defaultRetryBase = 250 * time.Millisecond
	maxErrBody       = 4 << 10
)

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string

	// Retry config for transport errors and 502/503/504, the caller's ctx bounds the total
	MaxRetries int
	RetryBase  time.Duration

	HTTP *http.Client
}

// Client talks to a yolo detection service
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
}

// New creates a Client, the base url is required
func New(o Options) (*Client, error) {
	o.BaseURL = strings.TrimRight(strings.TrimSpace(o.BaseURL), "/")
	if o.BaseURL == "" {
		return nil, perr.Validationf("yolo: base url is required")
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	} else if o.MaxRetries == 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	hc := o.HTTP
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{http: hc, opts: o, log: *logger.Named("yolo")}, nil
}

// Name reports the backend
func (*Client) Name() string { return "yolo" }

type wireBBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

type wireDetection struct {
	ClassName  string    `json:"class_name"`
	Confidence *float64  `json:"confidence"`
	BBox       *wireBBox `json:"bbox"`
	Frame      *int      `json:"frame"`
}

type wireResponse struct {
	Status     string          `json:"status"`
	Detections []wireDetection `json:"detections"`
}

// Detect posts the payload and decodes the detections
func (c *Client) Detect(ctx context.Context, m domain.Media) ([]domain.Raw, error) {
	if m.Kind == nil {
		return nil, perr.InvalidArgf("yolo: media kind is required")
	}
	path := imagePath
	if _, ok := m.Kind.(mediakind.Video); ok {
		path = videoPath
	}
	body, contentType, err := encode(m)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDetectionFailed, "yolo: encode request")
	}

	attempts := 0
	for {
		raw, retry, err := c.once(ctx, path, body, contentType)
		if err == nil {
			return raw, nil
		}
		if !retry || attempts >= c.opts.MaxRetries || ctx.Err() != nil {
			return nil, err
		}
		back := c.opts.RetryBase << attempts
		c.log.Warn().Err(err).Dur("retry_in", back).Int("attempt", attempts).Str("path", path).Msg("yolo call failed retrying")
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(back):
		}
		attempts++
	}
}

func (c *Client) once(ctx context.Context, path string, body []byte, contentType string) ([]domain.Raw, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, false, perr.Wrap(err, perr.ErrorCodeDetectionFailed, "yolo: new request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, false, perr.Wrap(err, perr.ErrorCodeDetectionTimeout, "yolo: detector timed out")
		}
		return nil, true, perr.Wrap(err, perr.ErrorCodeDetectionFailed, "yolo: transport error")
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("yolo response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		retry := resp.StatusCode == http.StatusBadGateway ||
			resp.StatusCode == http.StatusServiceUnavailable ||
			resp.StatusCode == http.StatusGatewayTimeout
		return nil, retry, perr.DetectionFailedf("yolo: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, false, perr.Wrap(err, perr.ErrorCodeDetectionTimeout, "yolo: detector timed out")
		}
		return nil, false, perr.Wrap(err, perr.ErrorCodeDetectionFailed, "yolo: malformed response")
	}
	if out.Status != "" && !strings.EqualFold(out.Status, "success") {
		return nil, false, perr.DetectionFailedf("yolo: status %q", out.Status)
	}

	raws := make([]domain.Raw, 0, len(out.Detections))
	for i, d := range out.Detections {
		if d.Confidence == nil {
			return nil, false, perr.DetectionFailedf("yolo: detection %d has no confidence", i)
		}
		r := domain.Raw{Class: d.ClassName, Confidence: *d.Confidence, Frame: d.Frame}
		if d.BBox != nil {
			r.BBox = &domain.BBox{X1: d.BBox.X1, Y1: d.BBox.Y1, X2: d.BBox.X2, Y2: d.BBox.Y2}
		}
		raws = append(raws, r)
	}
	return raws, false, nil
}

func encode(m domain.Media) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := m.FileName
	if name == "" {
		name = m.ID.String() + m.Kind.Extension()
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	h.Set("Content-Type", m.Kind.ContentType())
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(m.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
