package internal

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies failures inside the resolution and gating pipeline.
type ErrorType int

const (
	ErrInvalidLink ErrorType = iota
	ErrRateLimited
	ErrNetworkTimeout
	ErrInvalidResponse
	ErrProviderUnavailable
	ErrMembershipLookup
	ErrConfig
)

// String returns the string representation of ErrorType.
func (et ErrorType) String() string {
	switch et {
	case ErrInvalidLink:
		return "InvalidLink"
	case ErrRateLimited:
		return "RateLimited"
	case ErrNetworkTimeout:
		return "NetworkTimeout"
	case ErrInvalidResponse:
		return "InvalidResponse"
	case ErrProviderUnavailable:
		return "ProviderUnavailable"
	case ErrMembershipLookup:
		return "MembershipLookup"
	case ErrConfig:
		return "Config"
	default:
		return "Unknown"
	}
}

// ProviderError is a failure produced while talking to a single third-party
// mirror or to the membership API. Code carries the HTTP status (or an
// upstream error code) when one exists.
type ProviderError struct {
	Provider string    `json:"provider,omitempty"`
	Code     int       `json:"code,omitempty"`
	Message  string    `json:"message"`
	Type     ErrorType `json:"type"`
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s (code: %d, type: %s)", e.Provider, e.Message, e.Code, e.Type)
	}
	return fmt.Sprintf("%s (code: %d, type: %s)", e.Message, e.Code, e.Type)
}

// IsRetryable reports whether retrying the same provider may help. Only
// rate limiting qualifies: a 429 is self-inflicted and transient, while
// other mirror failures rarely resolve on immediate retry, so the chain
// moves to the next provider instead.
func (e *ProviderError) IsRetryable() bool {
	return e.Type == ErrRateLimited
}

// NewProviderError creates a ProviderError for the named provider.
func NewProviderError(provider string, code int, message string, errorType ErrorType) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Code:     code,
		Message:  message,
		Type:     errorType,
	}
}

// NewRateLimitedError creates the one retryable provider failure (HTTP 429).
func NewRateLimitedError(provider string) *ProviderError {
	return NewProviderError(provider, 429, "rate limited by mirror", ErrRateLimited)
}

// NewInvalidResponseError creates an error for unparsable or empty mirror
// responses. Malformed payloads are a provider failure, never a crash.
func NewInvalidResponseError(provider, reason string) *ProviderError {
	return NewProviderError(provider, 0, reason, ErrInvalidResponse)
}

// NewNetworkTimeoutError creates an error for transport-level failures.
func NewNetworkTimeoutError(provider string, cause error) *ProviderError {
	return NewProviderError(provider, 0, fmt.Sprintf("network failure: %v", cause), ErrNetworkTimeout)
}

// NewMembershipLookupError creates an error for a failed channel membership
// lookup. These are absorbed by the gate's policy rules and never surface
// raw to callers.
func NewMembershipLookupError(channel string, cause error) *ProviderError {
	return NewProviderError("", 0, fmt.Sprintf("membership lookup for %s: %v", channel, cause), ErrMembershipLookup)
}

// AllProvidersFailedError is the terminal resolution failure: every
// configured provider was exhausted. Attempted preserves priority order.
type AllProvidersFailedError struct {
	Attempted []string
}

// Error implements the error interface.
func (e *AllProvidersFailedError) Error() string {
	return fmt.Sprintf("all providers failed: [%s]", strings.Join(e.Attempted, ", "))
}

// IsRateLimited reports whether err is a provider-level 429.
func IsRateLimited(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Type == ErrRateLimited
}

// IsAllProvidersFailed extracts an AllProvidersFailedError when err is one.
func IsAllProvidersFailed(err error) (*AllProvidersFailedError, bool) {
	var ae *AllProvidersFailedError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// ValidationError represents input validation failures (config values,
// malformed URLs handed to the CLI).
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
