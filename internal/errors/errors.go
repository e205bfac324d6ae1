package errors

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrInquiryNotFound is returned when no inquiry has the requested id.
	ErrInquiryNotFound = errors.New("Inquiry not found")
	// ErrInquiryIDRequired is returned when a mutation has no usable id.
	ErrInquiryIDRequired = errors.New("Inquiry ID is required")
	// ErrInvalidCredentials is returned when username or password is wrong.
	ErrInvalidCredentials = errors.New("Invalid credentials")
	// ErrUnauthorized is returned when a bearer token is missing, invalid,
	// expired, revoked or names an unknown admin.
	ErrUnauthorized = errors.New("invalid or expired token")
	// ErrDatabase marks failures of the persistence layer.
	ErrDatabase = errors.New("database error")
)

// AccessDenied is the message sent with every 401 from the admin guard.
const AccessDenied = "Access denied"

// ErrorResponse represents the standardized error envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	// Detail is sent as the envelope's "message" field when set.
	Detail string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// BadRequest builds a 400 error.
func BadRequest(message string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, "BAD_REQUEST")
}

// Unauthorized builds the 401 sent by the admin guard.
func Unauthorized(reason string) *HTTPError {
	e := NewHTTPError(http.StatusUnauthorized, reason, "UNAUTHORIZED")
	e.Detail = AccessDenied
	return e
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error:   e.Message,
		Message: e.Detail,
		Code:    e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var httpErr *HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, ErrInquiryNotFound):
		return NewHTTPError(http.StatusNotFound, ErrInquiryNotFound.Error(), "NOT_FOUND")
	case errors.Is(err, ErrInquiryIDRequired):
		return BadRequest(ErrInquiryIDRequired.Error())
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrUnauthorized):
		return Unauthorized(ErrUnauthorized.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return NewHTTPError(http.StatusInternalServerError, "request timed out", "TIMEOUT")
	case errors.Is(err, ErrDatabase):
		return NewHTTPError(http.StatusInternalServerError, ErrDatabase.Error(), "DATABASE_ERROR")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
