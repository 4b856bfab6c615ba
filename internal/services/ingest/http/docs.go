package http

import (
	"mdms/internal/core/issuetype"
	"mdms/internal/modkit/swaggerkit"
)

// IssueTypeDoc names the IssueType schema and points every issue_type field at it
func IssueTypeDoc(spec map[string]any) {
	enum := []any{}
	for _, t := range issuetype.All() {
		enum = append(enum, string(t))
	}
	swaggerkit.Schemas(spec)["IssueType"] = map[string]any{"type": "string", "enum": enum}
	ref := map[string]any{"$ref": "#/components/schemas/IssueType"}

	paths, _ := spec["paths"].(map[string]any)
	for _, p := range paths {
		node, _ := p.(map[string]any)
		for _, opAny := range node {
			op, ok := opAny.(map[string]any)
			if !ok {
				continue
			}
			params, _ := op["parameters"].([]any)
			for _, pa := range params {
				if m, ok := pa.(map[string]any); ok && m["name"] == FieldIssueType {
					m["schema"] = ref
				}
			}
			body, _ := op["requestBody"].(map[string]any)
			content, _ := body["content"].(map[string]any)
			form, _ := content["multipart/form-data"].(map[string]any)
			schema, _ := form["schema"].(map[string]any)
			props, _ := schema["properties"].(map[string]any)
			if _, ok := props[FieldIssueType]; ok {
				props[FieldIssueType] = ref
			}
		}
	}
}
