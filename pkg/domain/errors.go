package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so transport layers can choose a status code.
type ErrorKind string

// Error kinds surfaced to callers.
const (
	KindNotFound   ErrorKind = "not_found"
	KindValidation ErrorKind = "validation"
	KindProtected  ErrorKind = "protected_entity"
	KindIntegrity  ErrorKind = "integrity"
	KindInternal   ErrorKind = "internal"
)

// NotFoundError is returned when a referenced record does not exist.
type NotFoundError struct {
	Entity EntityType
	ID     int64
	Key    string
}

func (e NotFoundError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// ProtectedEntityError is returned for mutations against system-managed records.
type ProtectedEntityError struct {
	Entity EntityType
	ID     int64
	Name   string
	Reason string
}

func (e ProtectedEntityError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "system-managed"
	}
	return fmt.Sprintf("%s %q is protected: %s", e.Entity, e.Name, reason)
}

// ValidationError reports a single malformed input. Validation fails fast so
// only the first problem found is carried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(field, format string, args ...any) ValidationError {
	return ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IntegrityError reports a transaction that could not complete. The store
// guarantees the pre-transaction state is retained.
type IntegrityError struct {
	Op  string
	Err error
}

func (e IntegrityError) Error() string {
	return fmt.Sprintf("%s aborted: %v", e.Op, e.Err)
}

func (e IntegrityError) Unwrap() error { return e.Err }

// KindOf classifies err into one of the ErrorKind values.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var (
		notFound  NotFoundError
		protected ProtectedEntityError
		invalid   ValidationError
		integrity IntegrityError
		blocked   RuleViolationError
	)
	switch {
	case errors.As(err, &protected):
		return KindProtected
	case errors.As(err, &invalid):
		return KindValidation
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &integrity), errors.As(err, &blocked):
		return KindIntegrity
	default:
		return KindInternal
	}
}
