package resolver

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"clipgate/internal"
)

// Sleeper pauses the calling goroutine. Injected so tests run without
// wall-clock sleeps.
type Sleeper func(time.Duration)

// ChainOptions configures the provider chain.
type ChainOptions struct {
	// MaxAttempts bounds calls per provider, rate-limit retries included.
	MaxAttempts int
	// BreakerFailures is the consecutive-failure count that opens a
	// provider's circuit breaker.
	BreakerFailures uint32
	// Sleep defaults to time.Sleep when nil.
	Sleep Sleeper
}

// Chain tries providers in priority order and stops at the first success.
// Each provider gets a bounded retry loop that retries only on rate
// limiting, plus a circuit breaker so a dead mirror stops eating attempts.
type Chain struct {
	providers   []internal.Provider
	maxAttempts int
	sleep       Sleeper
	breakers    map[string]*gobreaker.CircuitBreaker
}

// NewChain creates a resolver over the given providers, preserving their
// order as priority order.
func NewChain(providers []internal.Provider, opts ChainOptions) *Chain {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 3
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 8
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}

	breakers := make(map[string]*gobreaker.CircuitBreaker, len(providers))
	for _, p := range providers {
		failures := opts.BreakerFailures
		breakers[p.Name()] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    p.Name(),
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
		})
	}

	return &Chain{
		providers:   providers,
		maxAttempts: opts.MaxAttempts,
		sleep:       opts.Sleep,
		breakers:    breakers,
	}
}

// Resolve runs the chain for one reference. Providers that do not support
// the reference's platform are skipped without counting as attempted. When
// every applicable provider fails, the returned error carries their names in
// the order they were tried.
func (c *Chain) Resolve(ctx context.Context, ref *internal.MediaReference) (*internal.ResolvedMedia, error) {
	var attempted []string
	var attempts []internal.ProviderAttempt

	for _, provider := range c.providers {
		if !provider.Supports(ref.Platform) {
			continue
		}
		attempted = append(attempted, provider.Name())

		start := time.Now()
		directURL, err := c.fetchWithRetry(ctx, provider, ref)
		elapsed := time.Since(start)

		if err == nil {
			attempts = append(attempts, internal.ProviderAttempt{
				Provider: provider.Name(),
				Outcome:  internal.AttemptSuccess,
				Elapsed:  elapsed,
			})
			log.Info().
				Str("reference", ref.String()).
				Str("provider", provider.Name()).
				Dur("elapsed", elapsed).
				Int("providers_tried", len(attempted)).
				Msg("resolved direct URL")
			return &internal.ResolvedMedia{
				DirectURL:      directURL,
				SourceProvider: provider.Name(),
			}, nil
		}

		outcome := internal.AttemptFailed
		if internal.IsRateLimited(err) {
			outcome = internal.AttemptRateLimited
		}
		attempts = append(attempts, internal.ProviderAttempt{
			Provider: provider.Name(),
			Outcome:  outcome,
			Elapsed:  elapsed,
		})
		log.Debug().
			Str("reference", ref.String()).
			Str("provider", provider.Name()).
			Dur("elapsed", elapsed).
			Err(err).
			Msg("provider failed, advancing")
	}

	log.Warn().
		Str("reference", ref.String()).
		Strs("attempted", attempted).
		Int("attempts", len(attempts)).
		Msg("all providers exhausted")
	return nil, &internal.AllProvidersFailedError{Attempted: attempted}
}

// fetchWithRetry runs one provider's bounded attempt loop. Only rate
// limiting is retried, with exponential backoff (2s, 4s, ...); anything else
// fails the provider immediately so the chain can advance.
func (c *Chain) fetchWithRetry(ctx context.Context, provider internal.Provider, ref *internal.MediaReference) (string, error) {
	interval := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(2*time.Second),
		backoff.WithMultiplier(2),
		backoff.WithRandomizationFactor(0),
		backoff.WithMaxElapsedTime(0),
	)

	breaker := c.breakers[provider.Name()]
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		result, err := breaker.Execute(func() (interface{}, error) {
			return provider.Fetch(ctx, ref)
		})
		if err == nil {
			return result.(string), nil
		}
		lastErr = err

		// Open-breaker rejections and ordinary failures both end this
		// provider; the next mirror is more likely to help than a retry.
		if !internal.IsRateLimited(err) {
			return "", err
		}
		if attempt == c.maxAttempts {
			break
		}

		wait := interval.NextBackOff()
		log.Debug().
			Str("provider", provider.Name()).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("rate limited, backing off")
		c.sleep(wait)

		if ctx.Err() != nil {
			return "", internal.NewNetworkTimeoutError(provider.Name(), ctx.Err())
		}
	}

	return "", lastErr
}
