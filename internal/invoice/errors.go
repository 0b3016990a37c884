package invoice

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreadable means the input carried no usable text. Retry or enter data manually.
	ErrUnreadable = errors.New("document unreadable")
	// ErrCollaborator means an external service (OCR engine, renderer, store) failed.
	ErrCollaborator = errors.New("external service failed")
	// ErrMissingParameter means a mandatory fiscal URL parameter is absent.
	ErrMissingParameter = errors.New("missing mandatory parameter")
)

// ScanError describes a failed scan step.
type ScanError struct {
	Op      string
	Err     error
	Details string
}

func (e *ScanError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// NewError wraps err as a ScanError for op.
func NewError(op string, err error, details string) error {
	return &ScanError{Op: op, Err: err, Details: details}
}
