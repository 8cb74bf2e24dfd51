package internal

import "context"

// Classifier turns freeform message text into zero or one MediaReference.
type Classifier interface {
	Classify(ctx context.Context, text string) (*MediaReference, bool)
}

// Provider is a single third-party mirror adapter. Fetch performs one
// outbound call and returns a direct media URL, or an error describing why
// this mirror could not serve the reference.
type Provider interface {
	Name() string
	Supports(platform Platform) bool
	Fetch(ctx context.Context, ref *MediaReference) (string, error)
}

// Resolver runs the ordered provider chain until one yields a direct URL.
type Resolver interface {
	Resolve(ctx context.Context, ref *MediaReference) (*ResolvedMedia, error)
}

// MembershipChecker answers whether a subscriber belongs to a sponsor
// channel. The error return covers lookup failures only; a checkable
// subscriber who is simply not a member is (false, nil).
type MembershipChecker interface {
	IsMember(ctx context.Context, subscriberID int64, channelHandle string) (bool, error)
}

// AccessGate decides whether a subscriber may use the bot right now.
type AccessGate interface {
	Check(ctx context.Context, subscriberID int64) AccessDecision
}
