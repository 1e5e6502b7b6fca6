package planetsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrorKind classifies why a request failed.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTimeout
	KindNetwork
	KindHTTP
	KindNotAuthenticated
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	case KindNotAuthenticated:
		return "not_authenticated"
	default:
		return "unknown"
	}
}

var (
	// ErrTimeout matches errors of KindTimeout.
	ErrTimeout = errors.New("planetsdk: request timed out")

	// ErrNetwork matches errors of KindNetwork.
	ErrNetwork = errors.New("planetsdk: network failure")

	// ErrNotAuthenticated is returned when an authenticated call is attempted
	// with no stored access token.
	ErrNotAuthenticated = errors.New("planetsdk: not signed in")

	// ErrEvidence is returned when an evidence image cannot be read.
	ErrEvidence = errors.New("planetsdk: failed to process evidence image")
)

// APIError is the single error type produced by the request wrapper.
//
// StatusCode is the HTTP status for KindHTTP. The other kinds carry the
// conventional codes the mobile client used: 408 for timeouts, 0 for network
// failures, 401 for a missing token and 500 for anything unknown.
type APIError struct {
	Kind       ErrorKind
	StatusCode int

	// Message is the response body for KindHTTP (or the status text when the
	// body was empty), otherwise a short description.
	Message string

	Method string
	Path   string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: ", e.Method, e.Path)
	if e.Kind == KindHTTP {
		fmt.Fprintf(&b, "status %d: ", e.StatusCode)
	}
	b.WriteString(e.Message)
	if e.Err != nil && !errors.Is(e.Err, ErrNotAuthenticated) {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *APIError) Unwrap() error { return e.Err }

// Is lets the kind sentinels match through errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrNotAuthenticated:
		return e.Kind == KindNotAuthenticated
	}
	return false
}

// ServerMessage returns the "message" field of a JSON error body, falling
// back to the raw message.
func (e *APIError) ServerMessage() string {
	if e.Kind != KindHTTP {
		return e.Message
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(e.Message), &body); err == nil && body.Message != "" {
		return body.Message
	}
	return e.Message
}

// StatusCode returns the status carried by err if it is an *APIError.
func StatusCode(err error) (int, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}

// IsStatus reports whether err is an HTTP error with one of the given codes.
func IsStatus(err error, codes ...int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != KindHTTP {
		return false
	}
	return slices.Contains(codes, apiErr.StatusCode)
}
