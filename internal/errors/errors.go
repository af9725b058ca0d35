package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a locky error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // bad filename, reserved name, bad input
	ErrNotFound       ErrorCode = "NOT_FOUND"       // source or record missing
	ErrStorageFault   ErrorCode = "STORAGE_FAULT"   // copy/delete I/O failure
	ErrCancelled      ErrorCode = "CANCELLED"       // context done mid-operation
	ErrInternal       ErrorCode = "INTERNAL"        // metadata store failures
)

// VaultError represents a structured error with code, message and details.
type VaultError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *VaultError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *VaultError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates an error for invalid input.
func NewInvalidRequest(msg string) *VaultError {
	return &VaultError{
		Code:    ErrInvalidRequest,
		Message: msg,
	}
}

// NewNotFound creates an error for a missing file or record.
func NewNotFound(identifier string) *VaultError {
	return &VaultError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("file not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewStorageFault creates an error for a failed filesystem operation on path.
func NewStorageFault(op, path string, err error) *VaultError {
	msg := fmt.Sprintf("%s %s failed", op, path)
	if err != nil {
		msg = fmt.Sprintf("%s %s: %v", op, path, err)
	}
	return &VaultError{
		Code:    ErrStorageFault,
		Message: msg,
		Details: map[string]any{"op": op, "path": path},
		cause:   err,
	}
}

// NewCancelled creates an error for an operation interrupted by its context.
func NewCancelled(operation string) *VaultError {
	return &VaultError{
		Code:    ErrCancelled,
		Message: fmt.Sprintf("%s cancelled", operation),
		Details: map[string]any{"operation": operation},
	}
}

// NewInternal creates an error for unexpected internal failures.
func NewInternal(err error) *VaultError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &VaultError{
		Code:    ErrInternal,
		Message: msg,
		cause:   err,
	}
}

// Is checks if err is (or wraps) a VaultError with the given code.
func Is(err error, code ErrorCode) bool {
	var vErr *VaultError
	if stderrors.As(err, &vErr) {
		return vErr.Code == code
	}
	return false
}
