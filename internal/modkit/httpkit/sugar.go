package httpkit

import (
	"net/http"
)

// Get registers a no-body handler and uses the envelope adapter
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, Call(h))
}

// GetQuery mounts a GET handler whose input is bound from the query string
func GetQuery[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Get(path, Query(h))
}

// Post registers a no-body handler, the handler reads the body itself
func Post(r Router, path string, h func(*http.Request) (any, error)) {
	r.Post(path, Call(h))
}

// PostJSON mounts a pure JSON handler under POST
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Post(path, JSON(h))
}

// PatchJSON mounts a pure JSON handler under PATCH
func PatchJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Patch(path, JSON(h))
}

// Raw mounts a Response-returning GET handler, used for byte responses
func Raw(r Router, path string, h func(*http.Request) Response) {
	r.Get(path, Handle(h))
}

// PostMultipart mounts a multipart upload handler under POST
func PostMultipart(r Router, path, field string, o MultipartOptions, h func(*http.Request, Form) (any, error)) {
	r.Post(path, Multipart(field, o, h))
}
