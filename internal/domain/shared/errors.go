// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "comment", "like", "store"
	Op      string // Operation that failed, e.g., "Create", "SetStatus"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Validationf builds a validation error with a formatted message.
func Validationf(domain, op, format string, args ...any) *DomainError {
	return NewDomainError(domain, op, ErrValidation, fmt.Sprintf(format, args...))
}

// Record errors
var (
	ErrRecordNotFound      = NewDomainError("store", "Find", ErrNotFound, "interaction record not found")
	ErrRecordAlreadyExists = NewDomainError("store", "Add", ErrAlreadyExists, "interaction record with this id already exists")
	ErrNilRecord           = NewDomainError("store", "Add", ErrInvalidEntity, "interaction record is nil")
	ErrInvalidStatus       = NewDomainError("record", "SetStatus", ErrInvalidState, "unknown interaction status")
	ErrEmptyRecordID       = NewDomainError("record", "Validate", ErrValidation, "record id cannot be empty")
	ErrEmptyUserID         = NewDomainError("record", "Validate", ErrValidation, "user id cannot be empty")
)

// Comment errors
var (
	ErrEmptyCommentText   = NewDomainError("comment", "Validate", ErrValidation, "comment text cannot be empty")
	ErrCommentTextTooLong = NewDomainError("comment", "Validate", ErrValidation, "comment text exceeds 500 characters")
	ErrEmptyContentID     = NewDomainError("comment", "Validate", ErrValidation, "target content id cannot be empty")
	ErrEmptyFlagReason    = NewDomainError("comment", "AddFlag", ErrValidation, "flag reason cannot be empty")
	ErrNotAComment        = NewDomainError("comment", "Cast", ErrInvalidEntity, "record is not a comment")
)

// Like errors
var (
	ErrEmptyTargetID     = NewDomainError("like", "Validate", ErrValidation, "target id cannot be empty")
	ErrInvalidTargetType = NewDomainError("like", "Validate", ErrValidation, "target type must be video or comment")
	ErrInvalidPolarity   = NewDomainError("like", "Validate", ErrValidation, "polarity must be like or dislike")
	ErrNotALike          = NewDomainError("like", "Cast", ErrInvalidEntity, "record is not a like")
)

// Subscription errors
var (
	ErrEmptyChannelID           = NewDomainError("subscription", "Validate", ErrValidation, "channel id cannot be empty")
	ErrInvalidAction            = NewDomainError("subscription", "Validate", ErrValidation, "action must be subscribe or unsubscribe")
	ErrInvalidNotificationLevel = NewDomainError("subscription", "Validate", ErrValidation, "notification level must be all, personalized or none")
	ErrInvalidTier              = NewDomainError("subscription", "Validate", ErrValidation, "tier must be free, basic or premium")
	ErrNotASubscription         = NewDomainError("subscription", "Cast", ErrInvalidEntity, "record is not a subscription")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsInvalidState checks if the error reports an unknown status or a rejected transition.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState) || errors.Is(err, ErrStateTransition)
}
