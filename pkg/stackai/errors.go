package stackai

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a gateway failure.
type ErrorKind string

const (
	// KindAuth means token acquisition against the identity provider failed.
	KindAuth ErrorKind = "auth"
	// KindValidation means a required input was missing; no network call was made.
	KindValidation ErrorKind = "validation"
	// KindUpstream means the remote API returned a non-success response or a
	// response whose shape did not match the endpoint's schema.
	KindUpstream ErrorKind = "upstream"
	// KindNetwork means the request could not be completed at all.
	KindNetwork ErrorKind = "network"
)

// Error represents a failure from the Stack AI gateway.
type Error struct {
	Kind       ErrorKind `json:"kind"`
	StatusCode int       `json:"status_code,omitempty"`
	Message    string    `json:"message"`
	Body       string    `json:"body,omitempty"`
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("stackai: %s (%s, status: %d)", e.Message, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("stackai: %s (%s)", e.Message, e.Kind)
}

// NewValidationError reports a missing or invalid input. Validation errors
// are produced before any network I/O.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func newAuthError(statusCode int, message, body string) *Error {
	return &Error{Kind: KindAuth, StatusCode: statusCode, Message: message, Body: body}
}

func newUpstreamError(statusCode int, message, body string) *Error {
	return &Error{Kind: KindUpstream, StatusCode: statusCode, Message: message, Body: body}
}

func newNetworkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: err.Error()}
}

// AsError unwraps err into a gateway *Error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindValidation
}

// IsAuth reports whether err is a token acquisition failure.
func IsAuth(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindAuth
}

// IsUpstream reports whether err is a remote API failure.
func IsUpstream(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindUpstream
}

// IsNetwork reports whether err is a transport-level failure.
func IsNetwork(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindNetwork
}
