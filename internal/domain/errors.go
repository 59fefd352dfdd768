package domain

import (
	"errors"
	"fmt"
)

// FaultCode categorizes engine failures.
type FaultCode string

const (
	// ErrCodeConcurrencyConflict indicates an append or version assignment
	// lost a race: the supplied version is not latest+1. The caller should
	// re-read the latest version, recompute, and retry; the engine never
	// retries on its own.
	ErrCodeConcurrencyConflict FaultCode = "CONCURRENCY_CONFLICT"

	// ErrCodeNotFound indicates an unknown stream, document, or version.
	ErrCodeNotFound FaultCode = "NOT_FOUND"

	// ErrCodeInvalidReference indicates a structurally invalid cross
	// reference, e.g. branching from a version that belongs to a different
	// document or has been soft-deleted.
	ErrCodeInvalidReference FaultCode = "INVALID_REFERENCE"

	// ErrCodeStorageUnavailable indicates an I/O failure in the underlying
	// store. Eligible for caller-level retry with backoff.
	ErrCodeStorageUnavailable FaultCode = "STORAGE_UNAVAILABLE"
)

// Fault is an engine failure with a machine-readable code and context.
// Expected business outcomes (restore conflicts, empty merges) are NOT
// faults - those come back as structured results.
type Fault struct {
	Code    FaultCode
	Message string

	// StreamID identifies the affected event stream, when known.
	StreamID string

	// DocumentID identifies the affected document, when known.
	DocumentID string

	// Err is the underlying cause (driver errors for STORAGE_UNAVAILABLE).
	Err error
}

// Error implements the error interface.
func (f *Fault) Error() string {
	switch {
	case f.StreamID != "":
		return fmt.Sprintf("%s: %s (stream=%s)", f.Code, f.Message, f.StreamID)
	case f.DocumentID != "":
		return fmt.Sprintf("%s: %s (document=%s)", f.Code, f.Message, f.DocumentID)
	default:
		return fmt.Sprintf("%s: %s", f.Code, f.Message)
	}
}

func (f *Fault) Unwrap() error { return f.Err }

// NewConflict creates a CONCURRENCY_CONFLICT fault for a stream append.
func NewConflict(streamID string, want, latest int64) *Fault {
	return &Fault{
		Code:     ErrCodeConcurrencyConflict,
		Message:  fmt.Sprintf("version %d does not follow latest %d", want, latest),
		StreamID: streamID,
	}
}

// NewNotFound creates a NOT_FOUND fault.
func NewNotFound(what, id string) *Fault {
	return &Fault{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s %q not found", what, id),
	}
}

// NewInvalidReference creates an INVALID_REFERENCE fault.
func NewInvalidReference(message string) *Fault {
	return &Fault{Code: ErrCodeInvalidReference, Message: message}
}

// NewStorageUnavailable wraps a driver error.
func NewStorageUnavailable(op string, err error) *Fault {
	return &Fault{
		Code:    ErrCodeStorageUnavailable,
		Message: fmt.Sprintf("%s failed", op),
		Err:     err,
	}
}

// IsConflict reports whether err is a concurrency conflict, unwrapping as
// needed.
func IsConflict(err error) bool { return hasCode(err, ErrCodeConcurrencyConflict) }

// IsNotFound reports whether err is a not-found fault.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsInvalidReference reports whether err is an invalid-reference fault.
func IsInvalidReference(err error) bool { return hasCode(err, ErrCodeInvalidReference) }

// IsStorageUnavailable reports whether err is a storage fault.
func IsStorageUnavailable(err error) bool { return hasCode(err, ErrCodeStorageUnavailable) }

func hasCode(err error, code FaultCode) bool {
	var f *Fault
	if errors.As(err, &f) {
		return f.Code == code
	}
	return false
}
