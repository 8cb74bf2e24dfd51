package internal

import (
	"fmt"
	"time"
)

// Platform identifies the consumer platform a shared link belongs to.
type Platform string

const (
	PlatformTikTok  Platform = "tiktok"
	PlatformYouTube Platform = "youtube"
)

// MediaReference is the canonical result of link classification. CanonicalID
// is the platform content id; CanonicalURL is the tracking-free form rebuilt
// from it. Platform and the URL/id fields are fixed at classification;
// DurationSec and MimeHint are optional and filled in by whichever provider
// resolves the reference, when its mirror reports them.
type MediaReference struct {
	Platform     Platform `json:"platform"`
	RawURL       string   `json:"raw_url"`
	CanonicalID  string   `json:"canonical_id"`
	CanonicalURL string   `json:"canonical_url"`
	DurationSec  int      `json:"duration_sec,omitempty"`
	MimeHint     string   `json:"mime_hint,omitempty"`
}

// String returns a short description for logging.
func (m MediaReference) String() string {
	return fmt.Sprintf("%s:%s", m.Platform, m.CanonicalID)
}

// AttemptOutcome describes how a single provider attempt ended.
type AttemptOutcome string

const (
	AttemptSuccess     AttemptOutcome = "success"
	AttemptRateLimited AttemptOutcome = "rate_limited"
	AttemptFailed      AttemptOutcome = "failed"
)

// ProviderAttempt records one provider call inside a resolution run.
// Attempts are ephemeral and scoped to a single Resolve call.
type ProviderAttempt struct {
	Provider string         `json:"provider"`
	Outcome  AttemptOutcome `json:"outcome"`
	Elapsed  time.Duration  `json:"elapsed"`
}

// ResolvedMedia is the terminal success value of the provider chain: a
// directly downloadable URL plus the provider that produced it.
type ResolvedMedia struct {
	DirectURL      string `json:"direct_url"`
	SourceProvider string `json:"source_provider"`
}

// SponsorChannel is one channel an operator requires subscribers to join
// before granting bot access. A zero ExpiresAt means the requirement never
// expires.
type SponsorChannel struct {
	Handle    string    `json:"handle" yaml:"handle"`
	ExpiresAt time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Active    bool      `json:"active" yaml:"active"`
}

// Expired reports whether the channel requirement has lapsed at the given time.
func (c SponsorChannel) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// ChannelPolicy selects how multiple sponsor channels combine.
type ChannelPolicy string

const (
	// PolicyAllOf requires confirmed membership in every checkable channel.
	PolicyAllOf ChannelPolicy = "all-of"
	// PolicyAnyOf allows on the first confirmed membership.
	PolicyAnyOf ChannelPolicy = "any-of"
)

// AccessDecision is the gate's verdict. EvaluatedChannels always lists the
// full configured sponsor set regardless of outcome. Decisions are computed
// fresh on every check and never cached, since membership changes over time.
type AccessDecision struct {
	Allowed           bool
	EvaluatedChannels []string
}

// PendingWorkItem is deferred work saved when the gate denies a request and
// resumed once the subscriber proves compliance. At most one item exists per
// subscriber at any time; a new save overwrites an unexpired one.
type PendingWorkItem struct {
	SubscriberID int64
	Reference    MediaReference
	CreatedAt    time.Time
}
