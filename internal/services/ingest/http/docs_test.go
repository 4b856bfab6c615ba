package http

import (
	"encoding/json"
	"testing"

	"mdms/internal/core/issuetype"
	"mdms/internal/modkit/swaggerkit"
)

func TestIssueTypeDoc(t *testing.T) {
	t.Parallel()

	var spec map[string]any
	raw := `{"paths":{
		"/complaints/":{"post":{"requestBody":{"content":{"multipart/form-data":{"schema":{"properties":{"issue_type":{"type":"string"},"file":{"type":"string"}}}}}}}},
		"/tickets":{"get":{"parameters":[{"name":"issue_type","in":"query","schema":{"type":"string"}},{"name":"page","in":"query"}]}},
		"/meta/health":{"get":{}}}}`
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		t.Fatal(err)
	}
	IssueTypeDoc(spec)

	enum := swaggerkit.Schemas(spec)["IssueType"].(map[string]any)["enum"].([]any)
	if len(enum) != len(issuetype.All()) || enum[0] != string(issuetype.All()[0]) {
		t.Fatalf("enum = %v", enum)
	}

	paths := spec["paths"].(map[string]any)
	form := paths["/complaints/"].(map[string]any)["post"].(map[string]any)["requestBody"].(map[string]any)["content"].(map[string]any)["multipart/form-data"].(map[string]any)
	props := form["schema"].(map[string]any)["properties"].(map[string]any)
	if props["issue_type"].(map[string]any)["$ref"] != "#/components/schemas/IssueType" {
		t.Fatalf("form field = %v", props["issue_type"])
	}
	if _, ok := props["file"].(map[string]any)["$ref"]; ok {
		t.Fatal("file field must keep its schema")
	}

	params := paths["/tickets"].(map[string]any)["get"].(map[string]any)["parameters"].([]any)
	if params[0].(map[string]any)["schema"].(map[string]any)["$ref"] != "#/components/schemas/IssueType" {
		t.Fatalf("query param = %v", params[0])
	}
	if _, ok := params[1].(map[string]any)["schema"]; ok {
		t.Fatal("page param must be left alone")
	}
}
