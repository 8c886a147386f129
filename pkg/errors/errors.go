// Package errors provides structured error types for the flowweave engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Taxonomy
//
// The engine distinguishes two fatal categories plus non-fatal warnings:
//   - Configuration errors: a diagram definition references an unknown node,
//     declares duplicate partition buckets, or routes a bundle against the
//     declared left-to-right ordering. Detected before any flow is touched.
//   - Data errors: a predicate references a column that does not exist in
//     the joined attribute namespace, or the input tables are malformed.
//   - Coverage warnings are never errors; they travel in weave.Diagnostics.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownNode, "bundle %d: unknown source %q", i, name)
//	if errors.Is(err, errors.ErrCodeUnknownNode) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidPredicate, parseErr, "selector %q", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors (diagram definition is inconsistent)
	ErrCodeInvalidDefinition Code = "INVALID_DEFINITION"
	ErrCodeUnknownNode       Code = "UNKNOWN_NODE"
	ErrCodeDuplicateBucket   Code = "DUPLICATE_BUCKET"
	ErrCodeRoutingConflict   Code = "ROUTING_CONFLICT"
	ErrCodeInvalidOrdering   Code = "INVALID_ORDERING"

	// Data errors (dataset does not support the requested query)
	ErrCodeMissingAttribute Code = "MISSING_ATTRIBUTE"
	ErrCodeInvalidPredicate Code = "INVALID_PREDICATE"
	ErrCodeInvalidScope     Code = "INVALID_SCOPE"
	ErrCodeInvalidTable     Code = "INVALID_TABLE"
	ErrCodeUnknownProcess   Code = "UNKNOWN_PROCESS"

	// Resource errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsConfig reports whether err is a configuration error: the diagram
// definition itself is inconsistent, independent of any dataset.
func IsConfig(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidDefinition, ErrCodeUnknownNode, ErrCodeDuplicateBucket,
		ErrCodeRoutingConflict, ErrCodeInvalidOrdering:
		return true
	}
	return false
}

// IsData reports whether err is a data error: the definition is valid but
// the dataset cannot answer a query it requires.
func IsData(err error) bool {
	switch GetCode(err) {
	case ErrCodeMissingAttribute, ErrCodeInvalidPredicate, ErrCodeInvalidScope,
		ErrCodeInvalidTable, ErrCodeUnknownProcess:
		return true
	}
	return false
}
