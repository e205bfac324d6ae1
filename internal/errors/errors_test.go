package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", fmt.Errorf("get: %w", ErrInquiryNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"missing id", ErrInquiryIDRequired, http.StatusBadRequest, "BAD_REQUEST"},
		{"bad credentials", ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"bad token", ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"timeout", fmt.Errorf("%w: %w", ErrDatabase, context.DeadlineExceeded), http.StatusInternalServerError, "TIMEOUT"},
		{"database", fmt.Errorf("%w: disk full", ErrDatabase), http.StatusInternalServerError, "DATABASE_ERROR"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"passthrough", BadRequest("invalid request body"), http.StatusBadRequest, "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.code, httpErr.Code)
		})
	}
}

func TestUnauthorizedEnvelope(t *testing.T) {
	resp := Unauthorized("missing bearer token").ToErrorResponse()
	assert.False(t, resp.Success)
	assert.Equal(t, AccessDenied, resp.Message)
	assert.Equal(t, "missing bearer token", resp.Error)
}

func TestNotFoundEnvelopeHasNoMessage(t *testing.T) {
	resp := MapErrorToHTTP(ErrInquiryNotFound).ToErrorResponse()
	assert.Equal(t, "Inquiry not found", resp.Error)
	assert.Empty(t, resp.Message)
}
