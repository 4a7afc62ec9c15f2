package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed call.
type Kind int

const (
	Unknown Kind = iota
	// Network means the request did not complete.
	Network
	Unauthorized
	NotFound
	// Validation is a 4xx answer that carries a message.
	Validation
)

func (k Kind) String() string {
	switch k {
	case Network:
		return "network"
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not_found"
	case Validation:
		return "validation"
	default:
		return "unknown"
	}
}

type sentinel Kind

func (s sentinel) Error() string { return Kind(s).String() }

// Sentinels for errors.Is. Every *Error matches the sentinel of its Kind.
var (
	ErrNetwork      error = sentinel(Network)
	ErrUnauthorized error = sentinel(Unauthorized)
	ErrNotFound     error = sentinel(NotFound)
	ErrValidation   error = sentinel(Validation)
	ErrUnknown      error = sentinel(Unknown)
)

// Error is returned by every Client method on failure.
type Error struct {
	Kind    Kind
	Method  string
	Path    string
	Status  int // 0 when no response arrived
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Kind, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %d %s: %v", e.Method, e.Path, e.Status, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	s, ok := target.(sentinel)
	return ok && Kind(s) == e.Kind
}

// KindOf returns the Kind of err, or Unknown when err did not come from a Client.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Detail returns the backend's message for err, or "".
func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

func classify(status int, message string) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return Unauthorized
	case status == http.StatusNotFound:
		return NotFound
	case status >= 400 && status < 500 && message != "":
		return Validation
	default:
		return Unknown
	}
}

// errorBody accepts both {"detail": ...} and {"error": ...} payloads.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Err    string          `json:"error"`
}

func (b *errorBody) message() string {
	if b == nil {
		return ""
	}
	if len(b.Detail) > 0 && string(b.Detail) != "null" {
		var s string
		if err := json.Unmarshal(b.Detail, &s); err == nil {
			return s
		}
		return string(b.Detail)
	}
	return b.Err
}
