// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Precondition errors.
	ErrCategoryInUse   = errors.New("category is used by one or more transactions")
	ErrInvalidDraft    = errors.New("invalid draft")
	ErrInvalidSettings = errors.New("invalid settings")

	// Configuration errors.
	ErrInvalidBaseURL = errors.New("invalid server address")
)

// ErrorKind classifies a failure.
type ErrorKind int

const (
	// KindUnknown is any error that was not classified.
	KindUnknown ErrorKind = iota
	// KindTransport means the request never reached or returned from the server.
	KindTransport
	// KindHTTPStatus means the server answered with a non-success status.
	KindHTTPStatus
	// KindPrecondition means a local check rejected the operation before any request.
	KindPrecondition
	// KindDecode means the server answered successfully with an unusable body.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindHTTPStatus:
		return "http_status"
	case KindPrecondition:
		return "precondition"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Status is zero unless the server answered.
type Error struct {
	Err     error
	Message string
	Kind    ErrorKind
	Status  int
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewTransportError wraps a network-level failure.
func NewTransportError(target string, err error) error {
	return &Error{
		Kind:    KindTransport,
		Message: fmt.Sprintf("request to %s failed: %v", target, err),
		Err:     err,
	}
}

// NewStatusError reports a non-success HTTP status.
func NewStatusError(status int, message string) error {
	return &Error{
		Kind:    KindHTTPStatus,
		Status:  status,
		Message: message,
	}
}

// NewDecodeError reports an unusable success response.
func NewDecodeError(status int, err error) error {
	return &Error{
		Kind:    KindDecode,
		Status:  status,
		Message: "invalid response from server",
		Err:     err,
	}
}

// NewPreconditionError reports an operation rejected locally.
func NewPreconditionError(err error, message string) error {
	return &Error{
		Kind:    KindPrecondition,
		Message: message,
		Err:     err,
	}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StatusOf returns the HTTP status carried by err, or zero.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// Describe maps an error to the text shown to the user.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}

	switch e.Kind {
	case KindTransport:
		return "Could not reach the server (connection failed): " + e.Message
	case KindHTTPStatus:
		return fmt.Sprintf("Server error %d: %s", e.Status, e.Message)
	case KindDecode:
		return "The server sent a response that could not be read"
	case KindPrecondition:
		return e.Message
	default:
		return e.Error()
	}
}
