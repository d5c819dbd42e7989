package domain

import "fmt"

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Fields  []FieldError
	Err     error
}

// FieldError carries a per-field validation message
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// Error constructors

// NewNotFoundError creates a new not found error. The same error is returned
// for records that do not exist and records owned by someone else, so a 404
// never leaks the existence of another owner's data.
func NewNotFoundError(resource string) error {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewValidationError creates a validation error carrying the full batch of
// per-field messages. Validation is all-or-nothing: callers never act on a
// partially valid input.
func NewValidationError(fields []FieldError) error {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: "Validation failed",
		Fields:  fields,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(msg string) error {
	return &DomainError{
		Code:    ErrCodeConflict,
		Message: msg,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(msg string) error {
	return &DomainError{
		Code:    ErrCodeUnauthorized,
		Message: msg,
	}
}

// NewInternalError creates a new internal error wrapping the cause
func NewInternalError(err error) error {
	return &DomainError{
		Code:    ErrCodeInternal,
		Message: "An internal error occurred",
		Err:     err,
	}
}

// Helper functions to check error types

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeNotFound
	}
	return false
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeValidation
	}
	return false
}

// IsConflict checks if the error is a conflict error
func IsConflict(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeConflict
	}
	return false
}

// IsUnauthorized checks if the error is an unauthorized error
func IsUnauthorized(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeUnauthorized
	}
	return false
}

// Message returns the user-facing message of a domain error. The code prefix
// of Error() is for logs only and never reaches the wire.
func Message(err error) string {
	if de, ok := err.(*DomainError); ok {
		return de.Message
	}
	return "Internal server error"
}

// ValidationFields returns the per-field messages of a validation error,
// or nil for any other error.
func ValidationFields(err error) []FieldError {
	if de, ok := err.(*DomainError); ok && de.Code == ErrCodeValidation {
		return de.Fields
	}
	return nil
}
