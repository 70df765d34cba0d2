// Package ogcerr centralizes the error-kind to HTTP-status mapping used by
// every handler in ogc/. Handlers return a *Error; the HTTP layer (engine)
// formats it as application/problem+json.
package ogcerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for HTTP-status mapping and log level.
type Kind int

const (
	Internal Kind = iota
	NotFound
	BadRequest
	Conflict
	Unsupported
	Timeout
)

// Error is a typed error carrying a Kind plus a client-safe detail message.
type Error struct {
	Kind   Kind
	Detail string
	Title  string
	err    error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.err)
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.err }

// Status maps a Kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case NotFound:
		return http.StatusNotFound
	case BadRequest:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case Unsupported:
		return http.StatusNotImplemented
	case Timeout:
		return http.StatusGatewayTimeout
	case Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// LogLevel reports whether an error of this kind warrants "error" level
// logging (Internal/Timeout) or mere "debug" level (everything else).
func (k Kind) LogLevel() string {
	switch k {
	case Internal, Timeout:
		return "error"
	default:
		return "debug"
	}
}

func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap preserves err for logs while exposing detail to the client.
func Wrap(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, err: err}
}

// As extracts a *Error from err, synthesizing an Internal wrapper for
// anything that isn't already typed. Used at the top of HTTP handlers.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var oe *Error
	if errors.As(err, &oe) {
		return oe
	}
	return Wrap(Internal, "unexpected error", err)
}
