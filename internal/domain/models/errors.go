package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the analytics core.
type ErrorKind string

const (
	KindInvalidInput     ErrorKind = "INVALID_INPUT"
	KindNotFound         ErrorKind = "NOT_FOUND"
	KindStoreUnavailable ErrorKind = "STORE_UNAVAILABLE"
)

// Error is the typed error returned by single-entity operations.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewInvalidInput reports a malformed or out-of-range field.
func NewInvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// NewNotFound reports a missing nursery, bed or event.
func NewNotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// WrapStoreUnavailable wraps a failed document store call.
func WrapStoreUnavailable(message string, err error) *Error {
	return &Error{Kind: KindStoreUnavailable, Message: message, Err: err}
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind ErrorKind) bool {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind == kind
	}
	return false
}

// SkippedUnit identifies one bed or nursery excluded from an aggregate.
type SkippedUnit struct {
	NurseryID string `json:"nurseryId"`
	BedID     string `json:"bedId,omitempty"`
	Reason    string `json:"reason"`
}

// PartialFailure is attached to successful aggregate results when some units were skipped.
type PartialFailure struct {
	Skipped []SkippedUnit `json:"skipped,omitempty"`
}

// Partial reports whether any unit was skipped.
func (p PartialFailure) Partial() bool {
	return len(p.Skipped) > 0
}
