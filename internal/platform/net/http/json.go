package http

import (
	"net/http"

	"mdms/internal/platform/net/http/bind"
)

// JSONHandler adapts a pure JSON handler to a platform Handler
func JSONHandler[T any](fn func(*http.Request, T) (any, error)) Handler {
	return Handle(func(r *http.Request) Response {
		in, err := bind.ParseJSON[T](r)
		if err != nil {
			return Error(err)
		}
		out, err := fn(r, in)
		if err != nil {
			return Error(err)
		}
		return asResponse(out)
	})
}

// QueryHandler binds and validates the query string into T before calling fn
func QueryHandler[T any](fn func(*http.Request, T) (any, error)) Handler {
	return Handle(func(r *http.Request) Response {
		in, err := bind.ParseQuery[T](r)
		if err != nil {
			return Error(err)
		}
		out, err := fn(r, in)
		if err != nil {
			return Error(err)
		}
		return asResponse(out)
	})
}

// JSONHandlerNoBody calls fn without parsing a request body and wraps the result
func JSONHandlerNoBody(fn func(*http.Request) (any, error)) Handler {
	return Handle(func(r *http.Request) Response {
		out, err := fn(r)
		if err != nil {
			return Error(err)
		}
		return asResponse(out)
	})
}

// MultipartHandler parses file parts under field before calling fn
func MultipartHandler(field string, o bind.MultipartOptions, fn func(*http.Request, bind.Form) (any, error)) Handler {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := bind.ParseMultipart(w, r, field, o)
		if err != nil {
			Error(err).write(w, r)
			return
		}
		out, err := fn(r, form)
		if err != nil {
			Error(err).write(w, r)
			return
		}
		asResponse(out).write(w, r)
	}
}
