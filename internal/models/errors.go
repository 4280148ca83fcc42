// internal/models/errors.go
package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed component operation so the order flow can
// pattern-match on it instead of inspecting error strings.
type ErrorKind string

const (
	// ErrorKindConfiguration: missing credential, contract or shop. Fatal
	// to the attempted operation, never to the process.
	ErrorKindConfiguration ErrorKind = "configuration"
	// ErrorKindUpstream: non-success response from the image service, RPC
	// node or print provider. Recoverable via fallback or user retry.
	ErrorKindUpstream ErrorKind = "upstream"
	// ErrorKindValidation: required session data (image, order, wallet)
	// is missing. Surfaced as a guided error state with Reset.
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindNetwork: timeout or connectivity failure. Treated like an
	// upstream failure for fallback purposes.
	ErrorKindNetwork ErrorKind = "network"
)

type AppError struct {
	Kind    ErrorKind
	Message string
	Detail  string
	Err     error
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewConfigurationError(format string, args ...interface{}) *AppError {
	return &AppError{Kind: ErrorKindConfiguration, Message: fmt.Sprintf(format, args...)}
}

func NewValidationError(format string, args ...interface{}) *AppError {
	return &AppError{Kind: ErrorKindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewUpstreamError(message string, err error) *AppError {
	e := &AppError{Kind: ErrorKindUpstream, Message: message, Err: err}
	if err != nil {
		e.Detail = err.Error()
	}
	return e
}

func NewNetworkError(message string, err error) *AppError {
	e := &AppError{Kind: ErrorKindNetwork, Message: message, Err: err}
	if err != nil {
		e.Detail = err.Error()
	}
	return e
}

// KindOf extracts the kind from an error chain, defaulting to upstream.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrorKindUpstream
}
