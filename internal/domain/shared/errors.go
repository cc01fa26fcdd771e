package shared

import "errors"

// DomainError represents a domain-level error. Business rejections carry
// structured details so callers can branch on them without parsing messages.
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// WithDetail attaches a detail value and returns the error for chaining
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrValidation          = NewDomainError("VALIDATION_ERROR", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidTransition   = NewDomainError("INVALID_TRANSITION", "Event not legal for current status")
	ErrInsufficientBalance = NewDomainError("INSUFFICIENT_BALANCE", "Insufficient remaining balance on line item")
	ErrOutOfValidityWindow = NewDomainError("OUT_OF_VALIDITY_WINDOW", "Date falls outside the purchase order validity window")
)

// IsDomainError extracts a DomainError from err if present
func IsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether err is a DomainError with the given code
func HasCode(err error, code string) bool {
	if de, ok := IsDomainError(err); ok {
		return de.Code == code
	}
	return false
}

// IsConcurrencyConflict reports whether err represents a transient
// serialization failure that may succeed on retry
func IsConcurrencyConflict(err error) bool {
	return HasCode(err, ErrConcurrencyConflict.Code)
}
