package client

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_Is(t *testing.T) {
	tests := []struct {
		status int
		target error
		want   bool
	}{
		{401, ErrUnauthorized, true},
		{403, ErrUnauthorized, true},
		{401, ErrSessionExpired, true},
		{403, ErrSessionExpired, false},
		{404, ErrNotFound, true},
		{503, ErrUnavailable, true},
		{504, ErrUnavailable, true},
		{500, ErrUnavailable, false},
		{400, ErrUnauthorized, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.status), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &APIError{Status: tt.status})
			assert.Equal(t, tt.want, errors.Is(err, tt.target))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "bad password", errorMessage([]byte(`{"message":"bad password","error":"x"}`)))
	assert.Equal(t, "x", errorMessage([]byte(`{"error":"x"}`)))
	assert.Equal(t, "nested", errorMessage([]byte(`{"error":{"message":"nested"}}`)))
	assert.Empty(t, errorMessage([]byte(`<html>`)))
}

func TestMessage(t *testing.T) {
	err := fmt.Errorf("login: %w", &APIError{Status: 400, Message: "Email taken"})
	assert.Equal(t, "Email taken", Message(err))
	assert.Empty(t, Message(errors.New("plain")))
	assert.Equal(t, "HTTP 400: Email taken", (&APIError{Status: 400, Message: "Email taken"}).Error())
}
