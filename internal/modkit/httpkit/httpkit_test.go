package httpkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "mdms/internal/platform/errors"
	phttp "mdms/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type statusIn struct {
	Status string `json:"status" validate:"required,oneof=open in_progress resolved closed"`
}

type listIn struct {
	Page int `query:"page" validate:"omitempty,min=1"`
}

func newRouter() Router { return phttp.AdaptChi(chi.NewRouter()) }

func do(t *testing.T, r Router, method, path, body string) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	r.Mux().ServeHTTP(rr, req)
	var env Envelope
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
			t.Fatalf("unmarshal %s: %v", rr.Body.String(), err)
		}
	}
	return rr, env
}

func TestSugarRoutes(t *testing.T) {
	t.Parallel()

	r := newRouter()
	MountAPIV1(r, nil, func(api Router) {
		Get(api, "/ping", func(*http.Request) (any, error) { return "pong", nil })
		GetQuery[listIn](api, "/list", func(_ *http.Request, in listIn) (any, error) {
			return List([]int{in.Page}, 1, in.Page, 20), nil
		})
		PatchJSON[statusIn](api, "/sub/{id}/status", func(r *http.Request, in statusIn) (any, error) {
			id, err := UUIDParam(r, "id")
			if err != nil {
				return nil, err
			}
			return map[string]string{"id": id.String(), "status": in.Status}, nil
		})
		Post(api, "/made", func(*http.Request) (any, error) { return Created("x"), nil })
		Raw(api, "/raw", func(*http.Request) Response { return Bytes("text/plain", []byte("raw")) })
	})

	rr, env := do(t, r, http.MethodGet, "/api/v1/ping", "")
	if rr.Code != http.StatusOK || env.Data != "pong" {
		t.Fatalf("ping: %d %+v", rr.Code, env)
	}

	rr, env = do(t, r, http.MethodGet, "/api/v1/list?page=4", "")
	if rr.Code != http.StatusOK || env.Page == nil || env.Page.Page != 4 {
		t.Fatalf("list: %d %+v", rr.Code, env)
	}

	id := uuid.New()
	rr, env = do(t, r, http.MethodPatch, "/api/v1/sub/"+id.String()+"/status", `{"status":"resolved"}`)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), id.String()) {
		t.Fatalf("patch: %d %s", rr.Code, rr.Body.String())
	}

	rr, env = do(t, r, http.MethodPatch, "/api/v1/sub/nope/status", `{"status":"resolved"}`)
	if rr.Code != http.StatusBadRequest || env.Field != "id" {
		t.Fatalf("bad uuid: %d %+v", rr.Code, env)
	}

	rr, env = do(t, r, http.MethodPatch, "/api/v1/sub/"+id.String()+"/status", `{"status":"reopened"}`)
	if rr.Code != http.StatusBadRequest || env.Code != perr.ErrorCodeValidation {
		t.Fatalf("bad enum: %d %+v", rr.Code, env)
	}

	rr, _ = do(t, r, http.MethodPost, "/api/v1/made", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("post: %d", rr.Code)
	}

	rr, _ = do(t, r, http.MethodGet, "/api/v1/raw", "")
	if rr.Body.String() != "raw" || rr.Header().Get("Content-Type") != "text/plain" {
		t.Fatalf("raw: %q %q", rr.Body.String(), rr.Header().Get("Content-Type"))
	}
}

func TestCallErrorsUseEnvelope(t *testing.T) {
	t.Parallel()

	h := Call(func(*http.Request) (any, error) { return nil, perr.NotFoundf("ticket") })
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestCommonStack(t *testing.T) {
	t.Parallel()

	stack := CommonStack(StackOptions{})
	hit := 0
	var root http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit++
		w.WriteHeader(http.StatusNoContent)
	})
	for i := len(stack) - 1; i >= 0; i-- {
		root = stack[i](root)
	}

	rr := httptest.NewRecorder()
	root.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK || hit != 0 {
		t.Fatalf("heartbeat: %d hit=%d", rr.Code, hit)
	}

	rr = httptest.NewRecorder()
	root.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tickets/", nil))
	if rr.Code != http.StatusNoContent || hit != 1 {
		t.Fatalf("passthrough: %d hit=%d", rr.Code, hit)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("request id not echoed")
	}
}
