// Package httpkit provides handler and routing helpers that alias the platform http package
// use these from modules so they do not import internal/platform/net/http directly
package httpkit

import (
	"net/http"
	"strings"

	perr "mdms/internal/platform/errors"
	phttp "mdms/internal/platform/net/http"
	"mdms/internal/platform/net/http/bind"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type (
	// Envelope is the transport envelope type
	Envelope = phttp.Envelope

	// Page is the pagination metadata type
	Page = phttp.Page

	// Response is the HTTP response type
	Response = phttp.Response

	// Handler is the platform handler type
	Handler = phttp.Handler

	// Router is a re-export of the platform router seam
	Router = phttp.Router

	// Form is a parsed multipart request
	Form = bind.Form

	// Part is one uploaded file of a Form
	Part = bind.Part

	// MultipartOptions bounds multipart parsing
	MultipartOptions = bind.MultipartOptions
)

// OK returns a 200 response
func OK(data any) Response { return phttp.OK(data) }

// Created returns a 201 response
func Created(data any) Response { return phttp.Created(data) }

// NoContent returns a 204 response
func NoContent() Response { return phttp.NoContent() }

// Error returns a response that maps an error to status and envelope
func Error(err error) Response { return phttp.Error(err) }

// List returns a 200 response with items and pagination
func List(items any, total, page, size int) Response {
	return phttp.List(items, total, page, size)
}

// Bytes returns a raw 200 response outside the envelope
func Bytes(contentType string, data []byte) Response { return phttp.Bytes(contentType, data) }

// JSON binds and validates the body into T before calling fn
func JSON[T any](fn func(*http.Request, T) (any, error)) Handler {
	return phttp.JSONHandler(fn)
}

// Query binds and validates the query string into T before calling fn
func Query[T any](fn func(*http.Request, T) (any, error)) Handler {
	return phttp.QueryHandler(fn)
}

// Multipart parses the file parts under field before calling fn
func Multipart(field string, o MultipartOptions, fn func(*http.Request, Form) (any, error)) Handler {
	return phttp.MultipartHandler(field, o, fn)
}

// Call adapts a handler that takes no JSON body
func Call(fn func(*http.Request) (any, error)) Handler {
	return phttp.JSONHandlerNoBody(fn)
}

// Handle lets you directly adapt a Response-returning function if you prefer
func Handle(fn func(*http.Request) Response) Handler {
	return phttp.Handle(fn)
}

// Param returns a chi path parameter
func Param(r *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(r, name))
}

// UUIDParam parses a path parameter as a uuid, invalid input is a validation error on name
func UUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := Param(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, perr.WithField(perr.Validationf("%s must be a uuid", name), name)
	}
	return id, nil
}
