package internal

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderErrorRetryability(t *testing.T) {
	tests := []struct {
		name      string
		err       *ProviderError
		retryable bool
	}{
		{"rate limited is retryable", NewRateLimitedError("tikwm"), true},
		{"invalid response is not", NewInvalidResponseError("tikwm", "empty body"), false},
		{"network timeout is not", NewNetworkTimeoutError("tikwm", errors.New("dial timeout")), false},
		{"unavailable is not", NewProviderError("tikwm", 503, "down", ErrProviderUnavailable), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.err.IsRetryable())
		})
	}
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(NewRateLimitedError("tikwm")))
	assert.True(t, IsRateLimited(fmt.Errorf("wrapped: %w", NewRateLimitedError("tikwm"))))
	assert.False(t, IsRateLimited(NewInvalidResponseError("tikwm", "bad")))
	assert.False(t, IsRateLimited(errors.New("plain")))
	assert.False(t, IsRateLimited(nil))
}

func TestAllProvidersFailedError(t *testing.T) {
	err := &AllProvidersFailedError{Attempted: []string{"tikwm", "dlpanda", "cobalt"}}
	assert.Equal(t, "all providers failed: [tikwm, dlpanda, cobalt]", err.Error())

	failure, ok := IsAllProvidersFailed(fmt.Errorf("resolution: %w", err))
	require.True(t, ok)
	assert.Equal(t, []string{"tikwm", "dlpanda", "cobalt"}, failure.Attempted)

	_, ok = IsAllProvidersFailed(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrorTypeString(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    string
	}{
		{ErrInvalidLink, "InvalidLink"},
		{ErrRateLimited, "RateLimited"},
		{ErrNetworkTimeout, "NetworkTimeout"},
		{ErrInvalidResponse, "InvalidResponse"},
		{ErrProviderUnavailable, "ProviderUnavailable"},
		{ErrMembershipLookup, "MembershipLookup"},
		{ErrConfig, "Config"},
		{ErrorType(99), "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.errType.String())
	}
}

func TestProviderErrorMessage(t *testing.T) {
	err := NewProviderError("piped", 502, "bad gateway", ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "piped")
	assert.Contains(t, err.Error(), "bad gateway")
	assert.Contains(t, err.Error(), "502")

	anon := NewMembershipLookupError("sponsor_a", errors.New("no rights"))
	assert.Contains(t, anon.Error(), "sponsor_a")
}
