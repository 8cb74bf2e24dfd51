package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"

	"clipgate/internal"
	"clipgate/store"
)

// ResultKind names the outcome of handling one inbound event. Callers map
// kinds to user-facing copy; a raw provider error never leaks out.
type ResultKind int

const (
	// KindDuplicate means the event id was already processed; skip side effects.
	KindDuplicate ResultKind = iota
	// KindThrottled means the subscriber is over a rate limit; say "try again later".
	KindThrottled
	// KindNoLink means no supported platform link was found in the text.
	KindNoLink
	// KindSubscribePrompt means the gate denied; Channels carries the
	// sponsor list to show, and the work is parked for later.
	KindSubscribePrompt
	// KindUnavailable means every provider failed; say "temporarily unavailable".
	KindUnavailable
	// KindResolved means Media carries a direct URL ready for delivery.
	KindResolved
	// KindNoPending means a compliance signal arrived with nothing parked.
	KindNoPending
)

// String returns the kind's name for logging.
func (k ResultKind) String() string {
	switch k {
	case KindDuplicate:
		return "duplicate"
	case KindThrottled:
		return "throttled"
	case KindNoLink:
		return "no_link"
	case KindSubscribePrompt:
		return "subscribe_prompt"
	case KindUnavailable:
		return "unavailable"
	case KindResolved:
		return "resolved"
	case KindNoPending:
		return "no_pending"
	default:
		return "unknown"
	}
}

// Result is the outcome of one pipeline run.
type Result struct {
	Kind     ResultKind
	Media    *internal.ResolvedMedia
	Channels []string
}

// Pipeline sequences dedup, throttling, classification, gating and
// resolution for inbound events. Delivery of the resolved URL is the
// caller's concern.
type Pipeline struct {
	classifier internal.Classifier
	resolver   internal.Resolver
	gate       internal.AccessGate
	pending    *store.PendingStore
	throttle   *store.MultiThrottle
	seen       *store.SeenEvents
}

// New creates a pipeline over the given collaborators.
func New(
	classifier internal.Classifier,
	resolver internal.Resolver,
	gate internal.AccessGate,
	pending *store.PendingStore,
	throttle *store.MultiThrottle,
	seen *store.SeenEvents,
) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		resolver:   resolver,
		gate:       gate,
		pending:    pending,
		throttle:   throttle,
		seen:       seen,
	}
}

// Handle processes one inbound message event. Events run concurrently
// across subscribers; every shared store is internally synchronized.
func (p *Pipeline) Handle(ctx context.Context, eventID string, subscriberID int64, text string) Result {
	if p.seen.CheckAndMark(eventID) {
		log.Debug().Str("event", eventID).Msg("duplicate event suppressed")
		return Result{Kind: KindDuplicate}
	}

	if !p.throttle.TryConsume(subscriberID) {
		log.Debug().Int64("subscriber", subscriberID).Msg("request throttled")
		return Result{Kind: KindThrottled}
	}

	ref, ok := p.classifier.Classify(ctx, text)
	if !ok {
		return Result{Kind: KindNoLink}
	}

	decision := p.gate.Check(ctx, subscriberID)
	if !decision.Allowed {
		p.pending.Save(subscriberID, *ref)
		log.Info().Int64("subscriber", subscriberID).Str("reference", ref.String()).
			Msg("gated, work parked pending subscription")
		return Result{Kind: KindSubscribePrompt, Channels: decision.EvaluatedChannels}
	}

	return p.resolve(ctx, ref)
}

// HandleCompliance processes a subscriber's "I subscribed" signal: the gate
// is re-evaluated, and on success any parked work resumes exactly as if
// freshly submitted, without resubmission.
func (p *Pipeline) HandleCompliance(ctx context.Context, subscriberID int64) Result {
	decision := p.gate.Check(ctx, subscriberID)
	if !decision.Allowed {
		return Result{Kind: KindSubscribePrompt, Channels: decision.EvaluatedChannels}
	}

	item, ok := p.pending.Take(subscriberID)
	if !ok {
		return Result{Kind: KindNoPending}
	}

	log.Info().Int64("subscriber", subscriberID).Str("reference", item.Reference.String()).
		Msg("compliance confirmed, resuming parked work")
	return p.resolve(ctx, &item.Reference)
}

func (p *Pipeline) resolve(ctx context.Context, ref *internal.MediaReference) Result {
	media, err := p.resolver.Resolve(ctx, ref)
	if err != nil {
		if failure, ok := internal.IsAllProvidersFailed(err); ok {
			log.Warn().Str("reference", ref.String()).Strs("attempted", failure.Attempted).
				Msg("resolution exhausted")
		} else {
			log.Error().Str("reference", ref.String()).Err(err).Msg("resolution failed")
		}
		return Result{Kind: KindUnavailable}
	}
	return Result{Kind: KindResolved, Media: media}
}
