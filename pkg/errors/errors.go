package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeTransport indicates a network or API failure while calling an
	// external service (the text generator, the store). Retryable.
	ErrorTypeTransport ErrorType = "TRANSPORT"

	// ErrorTypeNoPriorHistory indicates a diagnosis was requested for a
	// patient with no recorded symptoms
	ErrorTypeNoPriorHistory ErrorType = "NO_PRIOR_HISTORY"

	// ErrorTypeInvalidTask indicates an unrecognized workflow step name
	ErrorTypeInvalidTask ErrorType = "INVALID_TASK"

	// ErrorTypeMalformedResponse indicates generated text that could not be
	// parsed into the expected structure
	ErrorTypeMalformedResponse ErrorType = "MALFORMED_RESPONSE"

	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// IsType reports whether err is an AppError of the given type
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// NewTransportError creates a new transport error
func NewTransportError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeTransport,
		Message: message,
		Err:     err,
	}
}

// NewNoPriorHistoryError creates a new no-prior-history error
func NewNoPriorHistoryError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNoPriorHistory,
		Message: message,
	}
}

// NewInvalidTaskError creates a new invalid task error
func NewInvalidTaskError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidTask,
		Message: message,
	}
}

// NewMalformedResponseError creates a new malformed response error
func NewMalformedResponseError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeMalformedResponse,
		Message: message,
		Err:     err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}
