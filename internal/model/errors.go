package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is the error body the console returns to its own callers
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MarshalJSON implements json.Marshaler
func (e APIError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details,omitempty"`
	}{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}

// Common API errors
var (
	// ErrInvalidRequest is returned when the request body or parameters are invalid
	ErrInvalidRequest = APIError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: "The request is invalid",
	}

	// ErrUnauthorized is returned when an operator token is missing or invalid
	ErrUnauthorized = APIError{
		Status:  http.StatusUnauthorized,
		Code:    "unauthorized",
		Message: "Authentication is required",
	}

	// ErrForbidden is returned when the operator role may not change data
	ErrForbidden = APIError{
		Status:  http.StatusForbidden,
		Code:    "forbidden",
		Message: "The operator is not allowed to perform this action",
	}

	// ErrTooManyRequests is returned when the rate limit is exceeded
	ErrTooManyRequests = APIError{
		Status:  http.StatusTooManyRequests,
		Code:    "too_many_requests",
		Message: "Rate limit exceeded",
	}

	// ErrInternalServer is returned when an internal server error occurs
	ErrInternalServer = APIError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_server_error",
		Message: "An internal server error occurred",
	}

	// ErrUpstreamFailed is returned when the order or inventory service call failed
	ErrUpstreamFailed = APIError{
		Status:  http.StatusBadGateway,
		Code:    "upstream_failed",
		Message: "The upstream service request failed",
	}
)

// NewAPIError creates a new API error with the given status, code, and message
func NewAPIError(status int, code, message string) APIError {
	return APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// WithMessage replaces the message of an API error
func (e APIError) WithMessage(message string) APIError {
	e.Message = message
	return e
}

// WithDetails adds details to an API error
func (e APIError) WithDetails(details string) APIError {
	e.Details = details
	return e
}

// AsAPIError extracts an APIError from err, falling back to ErrInternalServer
func AsAPIError(err error) APIError {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return ErrInternalServer
}
