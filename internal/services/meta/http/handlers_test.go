package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mdms/internal/core/authority"
	"mdms/internal/core/issuetype"
	"mdms/internal/modkit/httpkit"
	phttp "mdms/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func get(t *testing.T, d Deps, path string, into any) {
	t.Helper()
	r := phttp.AdaptChi(chi.NewRouter())
	r.Route("/meta", func(rr httpkit.Router) { Register(rr, d) })
	RegisterAuthorities(r, d.Authority)

	rr := httptest.NewRecorder()
	r.Mux().ServeHTTP(rr, httptest.NewRequest(stdhttp.MethodGet, path, nil))
	if rr.Code != stdhttp.StatusOK {
		t.Fatalf("%s: status = %d body = %s", path, rr.Code, rr.Body.String())
	}
	env := struct {
		Data any `json:"data"`
	}{Data: into}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s: %v", path, err)
	}
}

func TestReady(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		pg, ch any
		want   string
	}{
		{"all up", pinger{}, pinger{}, "ok"},
		{"no analytics", pinger{}, nil, "degraded"},
		{"analytics down", pinger{}, pinger{err: errors.New("refused")}, "degraded"},
		{"primary down", pinger{err: errors.New("refused")}, pinger{}, "fail"},
		{"memory", nil, nil, "degraded"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got ReadyResponse
			get(t, Deps{StartedAt: time.Now(), PG: tc.pg, CH: tc.ch}, "/meta/ready", &got)
			if got.Status != tc.want || len(got.Checks) != 2 {
				t.Fatalf("ready = %+v", got)
			}
		})
	}
}

func TestAuthorities(t *testing.T) {
	t.Parallel()

	var got []authority.Entry
	get(t, Deps{Authority: authority.Default()}, "/authorities", &got)
	if len(got) != 3 {
		t.Fatalf("entries = %+v", got)
	}
	for _, e := range got {
		if e.IssueType == issuetype.Garbage && e.Authority != "Sanitation Department" {
			t.Fatalf("garbage routes to %q", e.Authority)
		}
	}
}

func TestServiceAndIssueTypes(t *testing.T) {
	t.Parallel()

	d := Deps{ServiceName: "mdms-api", StartedAt: time.Now().Add(-time.Minute), Detector: "yolo", Blobs: "pg"}
	var svc ServiceResponse
	get(t, d, "/meta/service", &svc)
	if svc.Name != "mdms-api" || svc.Uptime < 59 || svc.Detector != "yolo" || svc.Blobs != "pg" {
		t.Fatalf("service = %+v", svc)
	}

	var types []issuetype.Type
	get(t, d, "/meta/issue-types", &types)
	if len(types) != len(issuetype.All()) {
		t.Fatalf("issue types = %v", types)
	}

	var h HealthResponse
	get(t, d, "/meta/health", &h)
	if !h.OK {
		t.Fatalf("health = %+v", h)
	}
}
