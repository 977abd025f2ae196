package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuimeraError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *QuimeraError
		expected string
	}{
		{
			name:     "without cause",
			err:      NewError(ErrCodeRequiredTierUnavailable, "recency store down"),
			expected: "[REQUIRED_TIER_UNAVAILABLE] recency store down",
		},
		{
			name:     "with cause",
			err:      WrapError(ErrCodeOptionalTierDegraded, "semantic query failed", fmt.Errorf("dial tcp: refused")),
			expected: "[OPTIONAL_TIER_DEGRADED] semantic query failed: dial tcp: refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestQuimeraError_Unwrap(t *testing.T) {
	cause := errors.New("underlying failure")
	err := WrapError(ErrCodeProviderCallFailed, "completion failed", cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestQuimeraError_IsMatchesByCode(t *testing.T) {
	a := NewError(ErrCodeInvariantViolation, "chain branch detected")
	b := NewError(ErrCodeInvariantViolation, "different message, same code")
	c := NewError(ErrCodeOptionalTierDegraded, "unrelated")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestIsCode(t *testing.T) {
	inner := NewError(ErrCodeRequiredTierUnavailable, "redis unreachable")
	wrapped := fmt.Errorf("commit: %w", inner)

	assert.True(t, IsCode(wrapped, ErrCodeRequiredTierUnavailable))
	assert.False(t, IsCode(wrapped, ErrCodeOptionalTierDegraded))
	assert.False(t, IsCode(errors.New("plain"), ErrCodeRequiredTierUnavailable))
}

func TestNewRetryableError(t *testing.T) {
	err := NewRetryableError(ErrCodeProviderUnavailable, "timeout")
	require.NotNil(t, err)
	assert.True(t, err.Retryable)
	assert.False(t, NewError(ErrCodeProviderUnavailable, "timeout").Retryable)
}
