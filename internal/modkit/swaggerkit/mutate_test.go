package swaggerkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	kit "mdms/internal/platform/testkit"
)

func TestRegisterReplacesByName(t *testing.T) {
	kit.Serial(t)
	t.Cleanup(func() { Register("a", nil); Register("b", nil) })

	Register("b", func(s map[string]any) { s["order"] = s["order"].(string) + "b" })
	Register("a", func(s map[string]any) { s["order"] = "x" })
	Register("a", func(s map[string]any) { s["order"] = "a" })

	spec := map[string]any{}
	apply(spec)
	if spec["order"] != "ab" {
		t.Fatalf("order = %v", spec["order"])
	}

	Register("b", nil)
	spec = map[string]any{}
	apply(spec)
	if spec["order"] != "a" {
		t.Fatalf("after removal order = %v", spec["order"])
	}
}

func TestServeDocJSONAppliesMutators(t *testing.T) {
	kit.Serial(t)
	kit.Swap(t, &docReader, func() string {
		return `{"openapi":"3.0.3","info":{"title":"API","version":"0.0.0"},"paths":{}}`
	})
	t.Cleanup(func() { Register("enum", nil) })
	Register("enum", func(s map[string]any) {
		Schemas(s)["Colour"] = map[string]any{"type": "string", "enum": []any{"red", "blue"}}
	})

	rec := httptest.NewRecorder()
	serveDocJSON()(rec, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var spec map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &spec); err != nil {
		t.Fatal(err)
	}
	enum := Schemas(spec)["Colour"].(map[string]any)["enum"].([]any)
	if len(enum) != 2 || enum[0] != "red" {
		t.Fatalf("enum = %v", enum)
	}
}

func TestServeDocJSONBadSpec(t *testing.T) {
	kit.Serial(t)
	kit.Swap(t, &docReader, func() string { return "{" })

	rec := httptest.NewRecorder()
	serveDocJSON()(rec, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}
