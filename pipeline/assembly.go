package pipeline

import (
	"strings"
	"time"

	"clipgate/classify"
	"clipgate/gate"
	"clipgate/internal"
	"clipgate/resolver"
	"clipgate/store"
	"clipgate/utils"
)

// NewFromConfig assembles a complete pipeline from configuration: HTTP
// clients, classifier, provider chain, access gate and the per-subscriber
// stores. This is the one place the gate and store knobs are consumed;
// embedders that need custom collaborators use New directly.
func NewFromConfig(cfg *internal.Config) (*Pipeline, error) {
	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}

	client := utils.NewHTTPClientWithConfig(&utils.HTTPClientConfig{
		Timeout:  cfg.HTTPTimeout,
		ProxyURL: cfg.ProxyURL,
	})
	redirectClient := utils.NewHTTPClientWithConfig(&utils.HTTPClientConfig{
		Timeout:    cfg.HTTPTimeout,
		ProxyURL:   cfg.ProxyURL,
		NoRedirect: true,
	})

	classifier := classify.NewLinkClassifier(
		classify.NewRedirectExpander(redirectClient, cfg.RedirectHopMax))

	providers, err := resolver.NewProviders(cfg.ProviderOrder, client)
	if err != nil {
		return nil, err
	}
	chain := resolver.NewChain(providers, resolver.ChainOptions{
		MaxAttempts:     cfg.MaxAttempts,
		BreakerFailures: cfg.BreakerFailures,
	})

	accessGate, err := buildGate(cfg, client)
	if err != nil {
		return nil, err
	}

	pending := store.NewPendingStore(cfg.PendingTTL, nil)
	throttle := store.NewMultiThrottle(
		store.NewThrottle(cfg.BurstLimit, cfg.BurstWindow, nil),
		store.NewThrottle(cfg.DailyLimit, cfg.DailyWindow, nil),
	)
	seen := store.NewSeenEvents(cfg.SeenCapacity)

	return New(classifier, chain, accessGate, pending, throttle, seen), nil
}

// buildGate wires the access gate from configuration. The channels file is
// optional; without it (or with subscription not required) the gate allows
// everyone and the membership API is never contacted, so its settings may be
// left empty.
func buildGate(cfg *internal.Config, client *utils.HTTPClient) (internal.AccessGate, error) {
	snapshot := &gate.ChannelSnapshot{
		Required: cfg.SubscriptionRequired,
		Policy:   cfg.Policy,
	}
	if cfg.ChannelsFile != "" {
		loaded, err := gate.LoadChannelSnapshot(cfg.ChannelsFile, time.Now())
		if err != nil {
			return nil, err
		}
		// An operator can force the requirement on via env even when the
		// file says otherwise.
		loaded.Required = loaded.Required || cfg.SubscriptionRequired
		snapshot = loaded
	}

	if !snapshot.Required || len(snapshot.Channels) == 0 {
		return gate.NewGate(snapshot, nil), nil
	}

	if cfg.MembershipAPIBase == "" {
		return nil, internal.NewValidationError("membership_api",
			"sponsor channels are configured but no membership API base is set")
	}
	checker, err := gate.NewAPIMembershipClient(client, membershipBaseURL(cfg))
	if err != nil {
		return nil, err
	}
	return gate.NewGate(snapshot, checker), nil
}

// membershipBaseURL builds the bot-API base, appending the token when one is
// configured.
func membershipBaseURL(cfg *internal.Config) string {
	base := strings.TrimRight(cfg.MembershipAPIBase, "/")
	if cfg.MembershipToken != "" {
		base += "/bot" + cfg.MembershipToken
	}
	return base
}
