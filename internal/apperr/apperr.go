// Package apperr provides structured application errors. Shape-level contract
// violations abort a whole analysis; per-taxon conditions are recorded in
// results and never pass through here.
package apperr

import (
	"errors"
	"fmt"
)

// Error codes used across the analysis pipeline.
const (
	CodeShapeMismatch = "SHAPE_MISMATCH"
	CodeBadRequest    = "BAD_REQUEST"
	CodeNotFound      = "NOT_FOUND"
	CodeInternal      = "INTERNAL_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates a new AppError with a formatted message
func Newf(code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with additional context, preserving an existing code.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{Code: appErr.Code, Message: message, Cause: err}
	}
	return &AppError{Code: CodeInternal, Message: message, Cause: err}
}

// ShapeMismatch builds the fatal caller error for misaligned tables.
func ShapeMismatch(format string, args ...interface{}) *AppError {
	return Newf(CodeShapeMismatch, format, args...)
}

// IsShapeMismatch reports whether err carries the shape-mismatch code.
func IsShapeMismatch(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == CodeShapeMismatch
}
