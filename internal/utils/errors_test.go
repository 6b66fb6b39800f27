package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{"message only", &ValidationError{Message: "bad input"}, "bad input"},
		{"with field", &ValidationError{Field: "lag", Message: "must be between 0 and 12, got 13"}, "lag: must be between 0 and 12, got 13"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("validation failed")

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Empty(t, ve.Field)
	assert.Equal(t, "validation failed", ve.Message)
}

func TestNewFieldError(t *testing.T) {
	err := NewFieldError("smoothing", "must be at least %d, got %d", 1, 0)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "smoothing", ve.Field)
	assert.Equal(t, "smoothing: must be at least 1, got 0", err.Error())
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(NewFieldError("blend", "not supported")))
	assert.True(t, IsValidationError(fmt.Errorf("wrapped: %w", NewValidationError("x"))))
	assert.False(t, IsValidationError(errors.New("plain")))
	assert.False(t, IsValidationError(nil))
}
