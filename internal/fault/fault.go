// Package fault defines the closed set of error kinds used across the web
// layer. Every failure that crosses a package boundary is one of these kinds,
// so handlers can map errors to HTTP responses without inspecting ad-hoc
// fields.
package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	// KindUnauthorized means no valid session was presented.
	KindUnauthorized Kind = iota
	// KindNotProvisioned means the session is valid but the user has no
	// matching record in the backend's identity space.
	KindNotProvisioned
	// KindNotFound means the backend reported 404 for a resource.
	KindNotFound
	// KindValidation means a required field was missing or malformed,
	// detected before any network call.
	KindValidation
	// KindUpstream means the backend returned a non-2xx status not covered
	// by a more specific kind.
	KindUpstream
	// KindTransport means the network call itself failed.
	KindTransport
)

// String returns the kind's name for logging.
func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNotProvisioned:
		return "not_provisioned"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindUpstream:
		return "upstream"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Error is a tagged failure with an HTTP-status equivalent.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches errors of the same kind, so callers can use
// errors.Is(err, fault.Unauthorized("")) style sentinels if they want,
// though KindOf is the usual way.
func (e *Error) Is(target error) bool {
	var fe *Error
	if errors.As(target, &fe) {
		return fe.Kind == e.Kind
	}
	return false
}

// Unauthorized builds a KindUnauthorized error (HTTP 401).
func Unauthorized(msg string) *Error {
	if msg == "" {
		msg = "Unauthorized"
	}
	return &Error{Kind: KindUnauthorized, Message: msg, Status: http.StatusUnauthorized}
}

// NotProvisioned builds a KindNotProvisioned error (HTTP 403).
func NotProvisioned(msg string) *Error {
	if msg == "" {
		msg = "User not found in local database"
	}
	return &Error{Kind: KindNotProvisioned, Message: msg, Status: http.StatusForbidden}
}

// NotFound builds a KindNotFound error (HTTP 404).
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg, Status: http.StatusNotFound}
}

// Validation builds a KindValidation error (HTTP 400).
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Status: http.StatusBadRequest}
}

// Upstream builds a KindUpstream error carrying the backend's status.
func Upstream(status int, msg string) *Error {
	if status < 400 {
		status = http.StatusBadGateway
	}
	return &Error{Kind: KindUpstream, Message: msg, Status: status}
}

// Transport wraps a network-level failure (HTTP 502).
func Transport(msg string, err error) *Error {
	return &Error{Kind: KindTransport, Message: msg, Status: http.StatusBadGateway, Err: err}
}

// KindOf returns the kind of err, or KindUpstream for untagged errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUpstream
}

// StatusOf returns the HTTP status for err, defaulting to 500 for
// untagged errors.
func StatusOf(err error) int {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the user-facing message for err. Untagged errors get a
// generic message so internals never leak to the browser.
func MessageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	return "Internal server error"
}
