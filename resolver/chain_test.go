package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipgate/internal"
)

// fakeProvider scripts a sequence of per-call results for chain tests.
type fakeProvider struct {
	name     string
	platform internal.Platform
	results  []fakeResult
	calls    int
}

type fakeResult struct {
	url string
	err error
}

func (f *fakeProvider) Name() string                              { return f.name }
func (f *fakeProvider) Supports(p internal.Platform) bool         { return p == f.platform }
func (f *fakeProvider) Fetch(_ context.Context, _ *internal.MediaReference) (string, error) {
	idx := f.calls
	f.calls++
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	r := f.results[idx]
	return r.url, r.err
}

func succeeding(name string) *fakeProvider {
	return &fakeProvider{name: name, platform: internal.PlatformTikTok,
		results: []fakeResult{{url: "https://cdn.example/" + name + ".mp4"}}}
}

func failing(name string) *fakeProvider {
	return &fakeProvider{name: name, platform: internal.PlatformTikTok,
		results: []fakeResult{{err: internal.NewInvalidResponseError(name, "no playable URL")}}}
}

func newTestChain(providers ...internal.Provider) (*Chain, *[]time.Duration) {
	var slept []time.Duration
	chain := NewChain(providers, ChainOptions{
		Sleep: func(d time.Duration) { slept = append(slept, d) },
	})
	return chain, &slept
}

var tiktokRef = &internal.MediaReference{
	Platform:     internal.PlatformTikTok,
	CanonicalID:  "7301234567890123456",
	CanonicalURL: "https://www.tiktok.com/@user/video/7301234567890123456",
}

func TestChainStopsAtFirstSuccess(t *testing.T) {
	first := succeeding("first")
	second := succeeding("second")
	third := succeeding("third")
	chain, _ := newTestChain(first, second, third)

	media, err := chain.Resolve(context.Background(), tiktokRef)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/first.mp4", media.DirectURL)
	assert.Equal(t, "first", media.SourceProvider)

	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
	assert.Equal(t, 0, third.calls)
}

func TestChainAdvancesPastFailure(t *testing.T) {
	first := failing("first")
	second := succeeding("second")
	chain, slept := newTestChain(first, second)

	media, err := chain.Resolve(context.Background(), tiktokRef)
	require.NoError(t, err)
	assert.Equal(t, "second", media.SourceProvider)

	// Non-429 failure: exactly one call, no retry sleep.
	assert.Equal(t, 1, first.calls)
	assert.Empty(t, *slept)
}

func TestChainRetriesOnlyOnRateLimit(t *testing.T) {
	// 429 twice, then success: exactly 3 calls against the same provider.
	provider := &fakeProvider{name: "flaky", platform: internal.PlatformTikTok, results: []fakeResult{
		{err: internal.NewRateLimitedError("flaky")},
		{err: internal.NewRateLimitedError("flaky")},
		{url: "https://cdn.example/flaky.mp4"},
	}}
	next := succeeding("next")
	chain, slept := newTestChain(provider, next)

	media, err := chain.Resolve(context.Background(), tiktokRef)
	require.NoError(t, err)
	assert.Equal(t, "flaky", media.SourceProvider)
	assert.Equal(t, 3, provider.calls)
	assert.Equal(t, 0, next.calls)

	// Backoff doubles from 2 seconds.
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *slept)
}

func TestChainRateLimitExhaustionAdvances(t *testing.T) {
	limited := &fakeProvider{name: "limited", platform: internal.PlatformTikTok, results: []fakeResult{
		{err: internal.NewRateLimitedError("limited")},
	}}
	next := succeeding("next")
	chain, _ := newTestChain(limited, next)

	media, err := chain.Resolve(context.Background(), tiktokRef)
	require.NoError(t, err)
	assert.Equal(t, "next", media.SourceProvider)
	assert.Equal(t, 3, limited.calls)
}

func TestChainAllProvidersFailed(t *testing.T) {
	chain, _ := newTestChain(failing("alpha"), failing("beta"), failing("gamma"))

	media, err := chain.Resolve(context.Background(), tiktokRef)
	require.Error(t, err)
	assert.Nil(t, media)

	failure, ok := internal.IsAllProvidersFailed(err)
	require.True(t, ok)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, failure.Attempted)
}

func TestChainSkipsUnsupportedPlatforms(t *testing.T) {
	ytOnly := &fakeProvider{name: "ytonly", platform: internal.PlatformYouTube,
		results: []fakeResult{{url: "https://cdn.example/yt.mp4"}}}
	ttOnly := failing("ttonly")
	chain, _ := newTestChain(ytOnly, ttOnly)

	_, err := chain.Resolve(context.Background(), tiktokRef)
	require.Error(t, err)
	assert.Equal(t, 0, ytOnly.calls)

	failure, ok := internal.IsAllProvidersFailed(err)
	require.True(t, ok)
	assert.Equal(t, []string{"ttonly"}, failure.Attempted)
}

func TestChainBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	dead := failing("dead")
	backup := succeeding("backup")
	chain := NewChain([]internal.Provider{dead, backup}, ChainOptions{
		BreakerFailures: 2,
		Sleep:           func(time.Duration) {},
	})

	for i := 0; i < 4; i++ {
		media, err := chain.Resolve(context.Background(), tiktokRef)
		require.NoError(t, err)
		assert.Equal(t, "backup", media.SourceProvider)
	}

	// After two real failures the breaker rejects without calling the mirror.
	assert.Equal(t, 2, dead.calls)
}
