package middleware_test

import (
	"compress/flate"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mdms/internal/platform/net/middleware"
)

func TestCompressOnlyJSON(t *testing.T) {
	body := strings.Repeat("a", 4<<10)
	for ct, want := range map[string]bool{
		"application/json": true,
		"image/jpeg":       false,
	} {
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", ct)
			_, _ = io.WriteString(w, body)
		})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		rr := httptest.NewRecorder()
		middleware.Compress(flate.BestSpeed)(h).ServeHTTP(rr, req)

		got := rr.Result().Header.Get("Content-Encoding") != ""
		if got != want {
			t.Fatalf("%s: compressed=%v want %v", ct, got, want)
		}
	}
}

func TestCORSDefaults(t *testing.T) {
	cors := middleware.CORS(middleware.CORSOptions{})
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://city.example")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rr := httptest.NewRecorder()
	cors(h).ServeHTTP(rr, req)

	if rr.Code != 200 && rr.Code != 204 {
		t.Fatalf("preflight status %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatal("expected allow origin for wildcard default")
	}
	if rr.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Fatal("expected allow methods")
	}
}

func TestHeartbeatAndNoCache(t *testing.T) {
	hit := false
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hit = true })
	h := middleware.Heartbeat("/health")(middleware.NoCache()(final))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK || hit {
		t.Fatalf("heartbeat: %d hit=%v", rr.Code, hit)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	if !hit || rr.Header().Get("Cache-Control") == "" {
		t.Fatalf("no cache: hit=%v headers=%v", hit, rr.Header())
	}
}

func TestThrottleAndTimeoutWrap(t *testing.T) {
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Deadline(); !ok {
			t.Errorf("timeout should set a deadline")
		}
		w.WriteHeader(http.StatusNoContent)
	})
	h := middleware.Throttle(1, 1, time.Second)(middleware.Timeout(time.Second)(final))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status %d", rr.Code)
	}
}
