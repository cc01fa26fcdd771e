package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeInsufficientBalance is used when a line item's remaining balance
	// cannot cover the requested quantity
	ErrCodeInsufficientBalance = "ERR_INSUFFICIENT_BALANCE"
	// ErrCodeOutOfValidityWindow is used when a delivery date falls outside
	// the purchase order validity window
	ErrCodeOutOfValidityWindow = "ERR_OUT_OF_VALIDITY_WINDOW"
	// ErrCodeProductMismatch is used when a swap targets a line item carrying
	// a different product
	ErrCodeProductMismatch = "ERR_PRODUCT_MISMATCH"
	// ErrCodeReprogramPending is used when an order already has an unresolved
	// reprogram request
	ErrCodeReprogramPending = "ERR_REPROGRAM_PENDING"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation: http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeReprogramPending:    http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:        http.StatusUnprocessableEntity,
	ErrCodeInsufficientBalance: http.StatusUnprocessableEntity,
	ErrCodeOutOfValidityWindow: http.StatusUnprocessableEntity,
	ErrCodeProductMismatch:     http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to the standardized codes
// used on the wire
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,

	// Allocation outcomes
	"INSUFFICIENT_BALANCE":   ErrCodeInsufficientBalance,
	"OUT_OF_VALIDITY_WINDOW": ErrCodeOutOfValidityWindow,
	"PRODUCT_MISMATCH":       ErrCodeProductMismatch,
	"SAME_LINE_ITEM":         ErrCodeBusinessRule,

	// Lifecycle and reprogramming
	"INVALID_TRANSITION":   ErrCodeInvalidState,
	"REPROGRAM_PENDING":    ErrCodeReprogramPending,
	"NO_PENDING_REPROGRAM": ErrCodeInvalidState,

	// Field-level domain validation
	"INVALID_QUANTITY":       ErrCodeValidation,
	"INVALID_UNIT":           ErrCodeValidation,
	"INVALID_WINDOW":         ErrCodeValidation,
	"INVALID_NOTES":          ErrCodeValidation,
	"INVALID_JUSTIFICATION":  ErrCodeValidation,
	"INVALID_LINE_ITEM":      ErrCodeValidation,
	"INVALID_ORDER_CODE":     ErrCodeValidation,
	"INVALID_ORDER_NUMBER":   ErrCodeValidation,
	"INVALID_PRODUCT":        ErrCodeValidation,
	"INVALID_PRODUCT_NAME":   ErrCodeValidation,
	"INVALID_PURCHASE_ORDER": ErrCodeValidation,
	"INVALID_SITE":           ErrCodeValidation,
	"INVALID_SUPPLIER":       ErrCodeValidation,
	"INVALID_SUPPLIER_NAME":  ErrCodeValidation,
	"DUPLICATE_PRODUCT":      ErrCodeAlreadyExists,
}

// NormalizeErrorCode converts a legacy error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
