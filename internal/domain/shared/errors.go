package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so the command boundary can map it to a result.
type ErrorKind string

const (
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindValidation          ErrorKind = "VALIDATION"
	KindBusinessRule        ErrorKind = "BUSINESS_RULE"
	KindConcurrencyConflict ErrorKind = "CONCURRENCY_CONFLICT"
	KindAccessDenied        ErrorKind = "ACCESS_DENIED"
	KindInternal            ErrorKind = "INTERNAL"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches another DomainError by code, so errors.Is works against the
// sentinels below even when the message was customised.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a business rule violation
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Kind: KindBusinessRule, Code: code, Message: message}
}

// NewNotFoundError creates a not found error for the named resource.
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{Kind: KindNotFound, Code: "NOT_FOUND", Message: fmt.Sprintf("%s not found", resource)}
}

// NewValidationError creates a validation failure.
func NewValidationError(code, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Message: message}
}

// NewAccessDeniedError creates an access denied error.
func NewAccessDeniedError(message string) *DomainError {
	return &DomainError{Kind: KindAccessDenied, Code: "ACCESS_DENIED", Message: message}
}

// Common domain errors
var (
	ErrNotFound            = &DomainError{Kind: KindNotFound, Code: "NOT_FOUND", Message: "Resource not found"}
	ErrInvalidInput        = &DomainError{Kind: KindValidation, Code: "INVALID_INPUT", Message: "Invalid input provided"}
	ErrConcurrencyConflict = &DomainError{Kind: KindConcurrencyConflict, Code: "CONCURRENCY_CONFLICT", Message: "Resource was modified by another process"}
	ErrAccessDenied        = &DomainError{Kind: KindAccessDenied, Code: "ACCESS_DENIED", Message: "Access to this resource is denied"}
	ErrInvalidTransition   = &DomainError{Kind: KindBusinessRule, Code: "INVALID_TRANSITION", Message: "Operation not allowed in current state"}
	ErrInsufficientStock   = &DomainError{Kind: KindBusinessRule, Code: "INSUFFICIENT_STOCK", Message: "Insufficient stock available"}
	ErrDuplicateRequest    = &DomainError{Kind: KindBusinessRule, Code: "DUPLICATE_REQUEST", Message: "Request was already processed"}
)

// KindOf returns the kind carried by err, or KindInternal for anything that
// is not a DomainError.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) && de.Kind != "" {
		return de.Kind
	}
	return KindInternal
}
