package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrNotImplemented", ErrNotImplemented},
		{"ErrIdentifierTimeout", ErrIdentifierTimeout},
		{"ErrMissingContentInfo", ErrMissingContentInfo},
		{"ErrNoTab", ErrNoTab},
		{"ErrUnreadableLocation", ErrUnreadableLocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrNotFound tests ErrNotFound error
func TestErrNotFound(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.True(t, errors.Is(ErrNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrAlreadyExists))
}

func TestErrors_Wrapped(t *testing.T) {
	err := fmt.Errorf("index pdf: %w", ErrMissingContentInfo)
	assert.ErrorIs(t, err, ErrMissingContentInfo)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestIdentifierTimeoutError(t *testing.T) {
	var err error = &IdentifierTimeoutError{TabID: 12, FullURL: "https://a.example/x"}

	assert.Equal(t, "could not resolve identifier in time for tab: 12, page: https://a.example/x", err.Error())
	assert.ErrorIs(t, err, ErrIdentifierTimeout)

	var timeoutErr *IdentifierTimeoutError
	assert.True(t, errors.As(fmt.Errorf("wait: %w", err), &timeoutErr))
	assert.Equal(t, 12, timeoutErr.TabID)
}
