package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestVaultError_Error(t *testing.T) {
	err := &VaultError{
		Code:    ErrNotFound,
		Message: "file not found: notes.txt",
	}

	expected := "NOT_FOUND: file not found: notes.txt"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("filename is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Message != "filename is required" {
		t.Errorf("Message = %q, want %q", err.Message, "filename is required")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("notes.txt")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Details["identifier"] != "notes.txt" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "notes.txt")
	}
}

func TestNewStorageFault_WrapsCause(t *testing.T) {
	err := NewStorageFault("copy", "/vault/a.txt", fs.ErrPermission)

	if err.Code != ErrStorageFault {
		t.Errorf("Code = %q, want %q", err.Code, ErrStorageFault)
	}
	if !stderrors.Is(err, fs.ErrPermission) {
		t.Error("errors.Is(err, fs.ErrPermission) = false, want true")
	}
	if err.Details["op"] != "copy" {
		t.Errorf("Details[op] = %v, want copy", err.Details["op"])
	}
}

func TestNewStorageFault_NilCause(t *testing.T) {
	err := NewStorageFault("delete", "/vault/a.txt", nil)
	if err.Message != "delete /vault/a.txt failed" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Unwrap() != nil {
		t.Error("Unwrap() should be nil")
	}
}

func TestNewCancelled(t *testing.T) {
	err := NewCancelled("paste")
	if err.Code != ErrCancelled {
		t.Errorf("Code = %q, want %q", err.Code, ErrCancelled)
	}
	if err.Message != "paste cancelled" {
		t.Errorf("Message = %q, want %q", err.Message, "paste cancelled")
	}
}

func TestNewInternal(t *testing.T) {
	err := NewInternal(fmt.Errorf("disk I/O error"))
	if err.Message != "disk I/O error" {
		t.Errorf("Message = %q", err.Message)
	}

	err = NewInternal(nil)
	if err.Message != "internal error" {
		t.Errorf("Message = %q, want %q", err.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"matching code", NewNotFound("x"), ErrNotFound, true},
		{"different code", NewNotFound("x"), ErrInternal, false},
		{"wrapped", fmt.Errorf("add: %w", NewStorageFault("copy", "x", nil)), ErrStorageFault, true},
		{"plain error", fmt.Errorf("boom"), ErrInternal, false},
		{"nil", nil, ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}
