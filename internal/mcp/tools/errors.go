package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/usestring/schemainfer/internal/ddl"
)

// Error codes for MCP tool responses.
const (
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeInferenceError = "INFERENCE_ERROR"
	ErrCodeTimeout        = "TIMEOUT"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapInferenceError converts an ingestion or generation failure to a coded
// error. Errors that are already coded pass through unchanged.
func WrapInferenceError(err error) error {
	if err == nil {
		return nil
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return err
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		coded = &CodedError{Code: ErrCodeNotFound, Message: "file not found", Cause: err}
	case errors.Is(err, ddl.ErrMissingIdentifier):
		coded = &CodedError{Code: ErrCodeInvalidInput, Message: "primary key field not present", Cause: err}
	case errors.Is(err, context.DeadlineExceeded):
		coded = &CodedError{Code: ErrCodeTimeout, Message: "inference timed out", Cause: err}
	default:
		coded = &CodedError{Code: ErrCodeInferenceError, Message: "inference failed", Cause: err}
	}

	slog.Warn("tool error",
		slog.String("code", coded.Code),
		slog.String("error", err.Error()),
	)

	return coded
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}
