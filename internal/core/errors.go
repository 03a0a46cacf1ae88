// Package core provides the request, response, and error types shared by the sum service surfaces.
package core

import (
	"fmt"
	"net/http"
)

// ErrorType represents the type of error that occurred
type ErrorType string

const (
	// ErrorTypeInvalidRequest indicates a malformed or out-of-range request (400)
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
	// ErrorTypeNotFound indicates an unknown fingerprint (404)
	ErrorTypeNotFound ErrorType = "not_found_error"
	// ErrorTypeOverflow indicates the sum does not fit in a signed 64-bit integer (500)
	ErrorTypeOverflow ErrorType = "overflow_error"
	// ErrorTypeStorageUnavailable indicates the durable store could not be reached (503)
	ErrorTypeStorageUnavailable ErrorType = "storage_unavailable_error"
	// ErrorTypeInternal indicates an unexpected failure (500)
	ErrorTypeInternal ErrorType = "internal_error"
)

// APIError is the error type every HTTP handler returns to clients.
type APIError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	// Cause, logged server-side and never sent to clients
	Err error `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *APIError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *APIError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the client may retry the same request unchanged.
func (e *APIError) Retryable() bool {
	return e.Type == ErrorTypeStorageUnavailable
}

// ToJSON converts the error to a JSON-compatible map
func (e *APIError) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"type":    e.Type,
			"message": e.Message,
		},
	}
}

// NewInvalidRequestError creates a new invalid request error (400)
func NewInvalidRequestError(message string, err error) *APIError {
	return &APIError{
		Type:       ErrorTypeInvalidRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        err,
	}
}

// NewNotFoundError creates a new not found error (404)
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewOverflowError creates a new overflow error (500)
func NewOverflowError(err error) *APIError {
	return &APIError{
		Type:       ErrorTypeOverflow,
		Message:    "sum exceeds the signed 64-bit integer range",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewStorageUnavailableError creates a new storage unavailable error (503)
func NewStorageUnavailableError(err error) *APIError {
	return &APIError{
		Type:       ErrorTypeStorageUnavailable,
		Message:    "storage is temporarily unavailable, retry the request",
		StatusCode: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewInternalError creates a new internal error (500)
func NewInternalError(err error) *APIError {
	return &APIError{
		Type:       ErrorTypeInternal,
		Message:    "internal error",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}
