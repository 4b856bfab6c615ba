package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mdms/internal/core/geo"
	"mdms/internal/core/issuetype"
	"mdms/internal/modkit/httpkit"
	"mdms/internal/modkit/repokit"
	phttp "mdms/internal/platform/net/http"
	"mdms/internal/platform/store/memtx"
	"mdms/internal/services/tickets/domain"
	"mdms/internal/services/tickets/repo"
	"mdms/internal/services/tickets/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func setup(t *testing.T) (httpkit.Router, domain.Ticket, uuid.UUID) {
	t.Helper()
	db := memtx.New()
	s := service.New(db, repo.NewMemory())
	ctx := context.Background()

	tk := domain.Ticket{ID: uuid.New(), Location: &geo.Point{Lat: 1.3, Lng: 103.8}, CreatedAt: time.Now().UTC()}
	sub := uuid.New()
	err := db.Tx(ctx, func(q repokit.Queryer) error {
		if err := s.Create(ctx, q, tk); err != nil {
			return err
		}
		return s.CreateSubTicket(ctx, q, domain.SubTicket{ID: sub, TicketID: tk.ID, IssueType: issuetype.Garbage, Authority: "Sanitation Department"})
	})
	if err != nil {
		t.Fatal(err)
	}

	r := phttp.AdaptChi(chi.NewRouter())
	r.Route("/tickets", func(rr httpkit.Router) { Register(rr, s) })
	return r, tk, sub
}

func serve(r httpkit.Router, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	r.Mux().ServeHTTP(rr, req)
	return rr
}

func TestList(t *testing.T) {
	t.Parallel()

	r, tk, _ := setup(t)
	rr := serve(r, stdhttp.MethodGet, "/tickets/?status=open&issue_type=Garbage&page_size=5", "")
	if rr.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	var env struct {
		Data []domain.Ticket `json:"data"`
		Page *httpkit.Page   `json:"page"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if len(env.Data) != 1 || env.Data[0].ID != tk.ID || env.Page == nil || env.Page.Total != 1 || env.Page.PageSize != 5 {
		t.Fatalf("env = %+v page=%+v", env.Data, env.Page)
	}
}

func TestListValidation(t *testing.T) {
	t.Parallel()

	r, _, _ := setup(t)
	for _, q := range []string{"status=done", "issue_type=cats", "page=0", "page=-2", "page_size=0", "page_size=101", "from=yesterday"} {
		if rr := serve(r, stdhttp.MethodGet, "/tickets/?"+q, ""); rr.Code != stdhttp.StatusBadRequest {
			t.Fatalf("%s: status = %d", q, rr.Code)
		}
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	r, tk, sub := setup(t)
	rr := serve(r, stdhttp.MethodGet, "/tickets/"+tk.ID.String(), "")
	if rr.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var env struct {
		Data domain.Ticket `json:"data"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &env)
	if len(env.Data.SubTickets) != 1 || env.Data.SubTickets[0].ID != sub {
		t.Fatalf("ticket = %+v", env.Data)
	}
	if rr := serve(r, stdhttp.MethodGet, "/tickets/"+uuid.NewString(), ""); rr.Code != stdhttp.StatusNotFound {
		t.Fatalf("unknown status = %d", rr.Code)
	}
}

func TestPatchStatus(t *testing.T) {
	t.Parallel()

	r, _, sub := setup(t)
	path := "/tickets/sub/" + sub.String() + "/status"

	if rr := serve(r, stdhttp.MethodPatch, path, `{"status":"resolved"}`); rr.Code != stdhttp.StatusConflict {
		t.Fatalf("skip status = %d", rr.Code)
	}
	rr := serve(r, stdhttp.MethodPatch, path, `{"status":"in_progress"}`)
	if rr.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	if rr := serve(r, stdhttp.MethodPatch, path, `{"status":"done"}`); rr.Code != stdhttp.StatusBadRequest {
		t.Fatalf("bad body status = %d", rr.Code)
	}
	if rr := serve(r, stdhttp.MethodPatch, "/tickets/sub/"+uuid.NewString()+"/status", `{"status":"in_progress"}`); rr.Code != stdhttp.StatusNotFound {
		t.Fatalf("unknown sub status = %d", rr.Code)
	}
}
