package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"mdms/internal/adapters/blob/memblob"
	"mdms/internal/core/authority"
	"mdms/internal/platform/config"
	phttp "mdms/internal/platform/net/http"
	"mdms/internal/platform/store"
	"mdms/internal/platform/store/memtx"
	detect "mdms/internal/services/detect/domain"
	ingest "mdms/internal/services/ingest/domain"
	tickets "mdms/internal/services/tickets/domain"

	"github.com/go-chi/chi/v5"
)

// byName classifies uploads by file name
type byName map[string]string

func (byName) Name() string { return "fake" }

func (b byName) Detect(_ context.Context, m detect.Media) ([]detect.Raw, error) {
	if c, ok := b[m.FileName]; ok {
		return []detect.Raw{{Class: c, Confidence: 0.8}}, nil
	}
	return nil, nil
}

func solid(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func server(t *testing.T) (phttp.Router, Stack) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{}, store.WithMemory(memtx.New()))
	if err != nil {
		t.Fatal(err)
	}
	r := phttp.AdaptChi(chi.NewRouter())
	stack, err := Mount(ctx, r, Options{
		Config:   config.New(),
		Store:    st,
		Blobs:    memblob.New(),
		Detector: byName{"imgA.jpg": "pothole", "imgB.jpg": "garbage"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return r, stack
}

func do(t *testing.T, r phttp.Router, req *stdhttp.Request, into any) {
	t.Helper()
	rr := httptest.NewRecorder()
	r.Mux().ServeHTTP(rr, req)
	if rr.Code != stdhttp.StatusOK {
		t.Fatalf("%s %s: status = %d body = %s", req.Method, req.URL, rr.Code, rr.Body.String())
	}
	env := struct {
		Data any `json:"data"`
	}{Data: into}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
}

func TestBatchOverHTTP(t *testing.T) {
	r, _ := server(t)
	a := solid(t, color.RGBA{R: 180, A: 255})
	b := solid(t, color.RGBA{B: 180, A: 255})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range []struct {
		name     string
		data     []byte
		lat, lng string
	}{
		{"imgA.jpg", a, "16.50", "80.64"},
		{"imgA.jpg", a, "16.50", "80.64"},
		{"imgB.jpg", b, "16.51", "80.65"},
	} {
		w, _ := mw.CreateFormFile("files", f.name)
		_, _ = w.Write(f.data)
		_ = mw.WriteField("latitude", f.lat)
		_ = mw.WriteField("longitude", f.lng)
	}
	_ = mw.Close()

	req := httptest.NewRequest(stdhttp.MethodPost, "/api/v1/complaints/batch", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var res ingest.BatchResult
	do(t, r, req, &res)

	if len(res.TicketsCreated) != 2 || res.DuplicatesFound != 1 {
		t.Fatalf("result = %+v", res)
	}
	for _, tk := range res.TicketsCreated {
		if len(tk.SubTickets) != 1 {
			t.Fatalf("ticket %s subs = %d", tk.ID, len(tk.SubTickets))
		}
	}

	var got tickets.Ticket
	do(t, r, httptest.NewRequest(stdhttp.MethodGet, "/api/v1/tickets/"+res.TicketsCreated[0].ID.String(), nil), &got)
	if got.ID != res.TicketsCreated[0].ID {
		t.Fatalf("get = %+v", got)
	}

	var list []tickets.Ticket
	do(t, r, httptest.NewRequest(stdhttp.MethodGet, "/api/v1/tickets?issue_type=Garbage", nil), &list)
	if len(list) != 1 || list[0].SubTickets[0].Authority != "Sanitation Department" {
		t.Fatalf("list = %+v", list)
	}
}

func TestAuthoritiesRoute(t *testing.T) {
	r, _ := server(t)
	var entries []authority.Entry
	do(t, r, httptest.NewRequest(stdhttp.MethodGet, "/api/v1/authorities", nil), &entries)
	if len(entries) != len(authority.Default().Entries()) {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestBuild(t *testing.T) {
	_, stack := server(t)
	if stack.Gateway == nil || len(stack.Modules) != 6 {
		t.Fatalf("stack = %+v", stack)
	}
	if _, err := Build(context.Background(), Options{}); err == nil {
		t.Fatalf("expected error without a store")
	}
}

func TestBlobs(t *testing.T) {
	ctx := context.Background()
	st, _ := store.Open(ctx, store.Config{}, store.WithMemory(memtx.New()))

	b, err := Blobs(ctx, config.New(), st)
	if err != nil || b.Name() != "memory" {
		t.Fatalf("memory store picked %v %v", b, err)
	}
	if _, err := Blobs(ctx, config.New(), &store.Store{}); err == nil {
		t.Fatalf("pg blobs without postgres must fail")
	}
}

func TestSingleComplaintOverHTTP(t *testing.T) {
	r, _ := server(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	w, _ := mw.CreateFormFile("file", "light.png")
	_, _ = w.Write(solid(t, color.RGBA{G: 180, A: 255}))
	_ = mw.WriteField("issue_type", "street_light")
	_ = mw.WriteField("latitude", "16.40")
	_ = mw.WriteField("longitude", "80.50")
	_ = mw.Close()

	req := httptest.NewRequest(stdhttp.MethodPost, "/api/v1/complaints/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var res ingest.ComplaintResult
	do(t, r, req, &res)

	if res.Status != ingest.ComplaintSuccess || res.Ticket == nil || res.TicketID == nil {
		t.Fatalf("result = %+v", res)
	}
	var got tickets.Ticket
	do(t, r, httptest.NewRequest(stdhttp.MethodGet, "/api/v1/tickets/"+res.TicketID.String(), nil), &got)
	if len(got.SubTickets) != 1 || got.SubTickets[0].Authority != res.Authority {
		t.Fatalf("ticket = %+v", got)
	}
}

func TestDocsCarryIssueTypes(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{}, store.WithMemory(memtx.New()))
	if err != nil {
		t.Fatal(err)
	}
	r := phttp.AdaptChi(chi.NewRouter())
	if _, err := Mount(ctx, r, Options{Config: config.New(), Store: st, Blobs: memblob.New(), Detector: byName{}, EnableSwagger: true}); err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	r.Mux().ServeHTTP(rr, httptest.NewRequest(stdhttp.MethodGet, "/api/docs/doc.json", nil))
	if rr.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var spec struct {
		Components struct {
			Schemas map[string]struct {
				Enum []string `json:"enum"`
			} `json:"schemas"`
		} `json:"components"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &spec); err != nil {
		t.Fatal(err)
	}
	if e := spec.Components.Schemas["IssueType"].Enum; len(e) != 5 || e[0] != "pathholes" {
		t.Fatalf("issue types = %v", e)
	}
}
