package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	// Outbound HTTP
	HTTPTimeout time.Duration
	ProxyURL    string

	// Provider chain
	ProviderOrder   []string
	MaxAttempts     int // per-provider attempts, 429 retries included
	RedirectHopMax  int // short-link expansion hop limit
	BreakerFailures uint32

	// Access gate
	SubscriptionRequired bool
	Policy               ChannelPolicy
	ChannelsFile         string
	MembershipAPIBase    string
	MembershipToken      string

	// Per-subscriber limits
	PendingTTL   time.Duration
	BurstLimit   int
	BurstWindow  time.Duration
	DailyLimit   int
	DailyWindow  time.Duration
	SeenCapacity int

	// Logging
	LogLevel    string
	EnableDebug bool
	QuietMode   bool
	LogFile     string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		HTTPTimeout:     30 * time.Second,
		ProviderOrder:   []string{"tikwm", "dlpanda", "snapclip", "piped", "cobalt"},
		MaxAttempts:     3,
		RedirectHopMax:  5,
		BreakerFailures: 8,

		SubscriptionRequired: false,
		Policy:               PolicyAllOf,

		PendingTTL:   5 * time.Minute,
		BurstLimit:   1,
		BurstWindow:  60 * time.Second,
		DailyLimit:   20,
		DailyWindow:  24 * time.Hour,
		SeenCapacity: 1000,

		LogLevel:    "info",
		EnableDebug: false,
		QuietMode:   false,
		LogFile:     "",
	}
}

// LoadFromEnv loads configuration from environment variables.
func (c *Config) LoadFromEnv() {
	if timeout := os.Getenv("CLIPGATE_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil && t > 0 {
			c.HTTPTimeout = time.Duration(t) * time.Second
		}
	}

	if proxy := os.Getenv("CLIPGATE_PROXY"); proxy != "" {
		c.ProxyURL = proxy
	}

	if order := os.Getenv("CLIPGATE_PROVIDERS"); order != "" {
		parts := strings.Split(order, ",")
		providers := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				providers = append(providers, p)
			}
		}
		if len(providers) > 0 {
			c.ProviderOrder = providers
		}
	}

	if attempts := os.Getenv("CLIPGATE_MAX_ATTEMPTS"); attempts != "" {
		if a, err := strconv.Atoi(attempts); err == nil && a > 0 {
			c.MaxAttempts = a
		}
	}

	if required := os.Getenv("CLIPGATE_SUBSCRIPTION_REQUIRED"); required != "" {
		c.SubscriptionRequired = required == "true" || required == "1"
	}

	if policy := os.Getenv("CLIPGATE_CHANNEL_POLICY"); policy != "" {
		switch ChannelPolicy(policy) {
		case PolicyAllOf, PolicyAnyOf:
			c.Policy = ChannelPolicy(policy)
		}
	}

	if file := os.Getenv("CLIPGATE_CHANNELS_FILE"); file != "" {
		c.ChannelsFile = file
	}

	if base := os.Getenv("CLIPGATE_MEMBERSHIP_API"); base != "" {
		c.MembershipAPIBase = base
	}

	if token := os.Getenv("CLIPGATE_MEMBERSHIP_TOKEN"); token != "" {
		c.MembershipToken = token
	}

	if ttl := os.Getenv("CLIPGATE_PENDING_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil && d > 0 {
			c.PendingTTL = d
		}
	}

	// Load logging configuration from environment
	if logLevel := os.Getenv("CLIPGATE_LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}

	if debug := os.Getenv("CLIPGATE_DEBUG"); debug != "" {
		c.EnableDebug = debug == "true" || debug == "1"
	}

	if quiet := os.Getenv("CLIPGATE_QUIET"); quiet != "" {
		c.QuietMode = quiet == "true" || quiet == "1"
	}

	if logFile := os.Getenv("CLIPGATE_LOG_FILE"); logFile != "" {
		c.LogFile = logFile
	}
}

// ValidateConfig validates the configuration values.
func (c *Config) ValidateConfig() error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("invalid http timeout: %v (must be > 0)", c.HTTPTimeout)
	}

	if c.MaxAttempts < 1 {
		return fmt.Errorf("invalid max attempts: %d (must be >= 1)", c.MaxAttempts)
	}

	if c.RedirectHopMax < 1 {
		return fmt.Errorf("invalid redirect hop limit: %d (must be >= 1)", c.RedirectHopMax)
	}

	if len(c.ProviderOrder) == 0 {
		return fmt.Errorf("provider order cannot be empty")
	}

	if c.Policy != PolicyAllOf && c.Policy != PolicyAnyOf {
		return fmt.Errorf("invalid channel policy: %q", c.Policy)
	}

	if c.PendingTTL <= 0 {
		return fmt.Errorf("invalid pending TTL: %v (must be > 0)", c.PendingTTL)
	}

	if c.BurstLimit < 1 || c.DailyLimit < 1 {
		return fmt.Errorf("throttle limits must be >= 1 (burst=%d, daily=%d)", c.BurstLimit, c.DailyLimit)
	}

	if c.SeenCapacity < 1 {
		return fmt.Errorf("invalid seen-events capacity: %d (must be >= 1)", c.SeenCapacity)
	}

	return nil
}

// GetEnvWithDefault returns environment variable value or default.
func GetEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
