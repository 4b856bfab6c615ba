// Package docs holds the OpenAPI document served by swaggerkit under the swag build tag
// regenerate with: swag init --v3.1 -g cmd/mdms-api/main.go -o internal/services/api/docs
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
  "openapi": "3.0.3",
  "info": {"title": "{{.Title}}", "description": "{{escape .Description}}", "version": "{{.Version}}"},
  "paths": {
    "/complaints/": {"post": {"tags": ["Complaints"], "summary": "File one photo under a chosen issue type",
      "requestBody": {"content": {"multipart/form-data": {"schema": {"type": "object", "required": ["file", "issue_type"], "properties": {
        "file": {"type": "string", "format": "binary"},
        "issue_type": {"type": "string"},
        "latitude": {"type": "string"},
        "longitude": {"type": "string"}}}}}},
      "responses": {"200": {"description": "ok"}, "400": {"description": "bad input or unknown issue type"}, "415": {"description": "not an image"}, "503": {"description": "store unreachable"}}}},
    "/complaints/batch": {"post": {"tags": ["Complaints"], "summary": "Submit a batch of photos or videos",
      "requestBody": {"content": {"multipart/form-data": {"schema": {"type": "object", "properties": {
        "files": {"type": "array", "items": {"type": "string", "format": "binary"}},
        "latitude": {"type": "array", "items": {"type": "string"}},
        "longitude": {"type": "array", "items": {"type": "string"}}}}}}},
      "responses": {"200": {"description": "ok"}, "400": {"description": "empty batch"}, "503": {"description": "store unreachable"}}}},
    "/tickets": {"get": {"tags": ["Tickets"], "summary": "List tickets",
      "parameters": [
        {"name": "status", "in": "query", "schema": {"type": "string", "enum": ["open", "in_progress", "resolved", "closed"]}},
        {"name": "issue_type", "in": "query", "schema": {"type": "string"}},
        {"name": "from", "in": "query", "schema": {"type": "string", "format": "date-time"}},
        {"name": "to", "in": "query", "schema": {"type": "string", "format": "date-time"}},
        {"name": "page", "in": "query", "schema": {"type": "integer", "minimum": 1}},
        {"name": "page_size", "in": "query", "schema": {"type": "integer", "minimum": 1, "maximum": 100}}],
      "responses": {"200": {"description": "ok"}}}},
    "/tickets/{id}": {"get": {"tags": ["Tickets"], "summary": "Get a ticket with its sub tickets",
      "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
      "responses": {"200": {"description": "ok"}, "404": {"description": "not found"}}}},
    "/tickets/sub/{sub_id}/status": {"patch": {"tags": ["Tickets"], "summary": "Move a sub ticket along its status chain",
      "parameters": [{"name": "sub_id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
      "responses": {"200": {"description": "ok"}, "409": {"description": "illegal transition"}}}},
    "/media/{id}/info": {"get": {"tags": ["Media"], "summary": "Media item metadata",
      "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
      "responses": {"200": {"description": "ok"}, "404": {"description": "not found"}}}},
    "/media/{id}": {"get": {"tags": ["Media"], "summary": "Raw media payload",
      "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
      "responses": {"200": {"description": "ok"}, "404": {"description": "not found"}}}},
    "/meta/health": {"get": {"tags": ["Meta"], "summary": "Health check", "responses": {"200": {"description": "ok"}}}},
    "/meta/ready": {"get": {"tags": ["Meta"], "summary": "Readiness check", "responses": {"200": {"description": "ok"}}}},
    "/meta/version": {"get": {"tags": ["Meta"], "summary": "Build info", "responses": {"200": {"description": "ok"}}}},
    "/meta/service": {"get": {"tags": ["Meta"], "summary": "Service info", "responses": {"200": {"description": "ok"}}}},
    "/authorities": {"get": {"tags": ["Meta"], "summary": "Authority routing table", "responses": {"200": {"description": "ok"}}}},
    "/meta/issue-types": {"get": {"tags": ["Meta"], "summary": "Known issue types", "responses": {"200": {"description": "ok"}}}}
  }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Title:            "MDMS API",
	Description:      "Civic complaint intake: batch media upload, tickets and routing",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
