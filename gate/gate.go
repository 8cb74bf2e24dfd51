package gate

import (
	"context"

	"github.com/rs/zerolog/log"

	"clipgate/internal"
)

// Gate decides whether a subscriber may use the bot right now, based on
// sponsor-channel membership. Decisions are computed fresh on every call;
// membership changes over time, so caching a verdict would be wrong.
type Gate struct {
	snapshot *ChannelSnapshot
	checker  internal.MembershipChecker
}

// NewGate creates a gate over the given channel snapshot and membership
// checker.
func NewGate(snapshot *ChannelSnapshot, checker internal.MembershipChecker) *Gate {
	return &Gate{snapshot: snapshot, checker: checker}
}

// Check evaluates the subscriber against the configured sponsor channels.
//
// When subscription is not required, or no channels are configured, it
// allows with zero network calls. Otherwise each channel is looked up and
// combined under the configured policy. If every lookup itself errored the
// gate fails open: lookup failures are operator-side (bot removed as channel
// admin) and must not be pinned on the subscriber.
func (g *Gate) Check(ctx context.Context, subscriberID int64) internal.AccessDecision {
	if !g.snapshot.Required || len(g.snapshot.Channels) == 0 {
		return internal.AccessDecision{Allowed: true, EvaluatedChannels: []string{}}
	}

	handles := g.snapshot.Handles()
	checkable := 0
	var errored []string

	for _, handle := range handles {
		member, err := g.checker.IsMember(ctx, subscriberID, handle)
		if err != nil {
			// Uncheckable channel: skip it. Under all-of this silently
			// drops enforcement of this one channel; observed behavior,
			// kept as is.
			errored = append(errored, handle)
			log.Debug().Int64("subscriber", subscriberID).Str("channel", handle).Err(err).
				Msg("membership lookup failed")
			continue
		}
		checkable++

		switch g.snapshot.Policy {
		case internal.PolicyAnyOf:
			if member {
				return internal.AccessDecision{Allowed: true, EvaluatedChannels: handles}
			}
		case internal.PolicyAllOf:
			if !member {
				return internal.AccessDecision{Allowed: false, EvaluatedChannels: handles}
			}
		}
	}

	if checkable == 0 {
		log.Warn().Int64("subscriber", subscriberID).Strs("channels", errored).
			Msg("degraded access check: no sponsor channel was checkable, allowing")
		return internal.AccessDecision{Allowed: true, EvaluatedChannels: []string{}}
	}

	// all-of: every checkable channel confirmed membership.
	// any-of: no checkable channel did.
	allowed := g.snapshot.Policy == internal.PolicyAllOf
	return internal.AccessDecision{Allowed: allowed, EvaluatedChannels: handles}
}
