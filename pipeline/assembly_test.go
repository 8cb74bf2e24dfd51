package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipgate/internal"
)

const sponsorChannelsYAML = `required: true
policy: all-of
channels:
  - handle: sponsor_a
    active: true
`

func writeChannelsFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "channels.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

// botAPIServer fakes the messaging-platform bot API under a token-scoped
// path, answering getChat with a fixed chat id and getChatMember with the
// given status.
func botAPIServer(t *testing.T, token, memberStatus string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/bot"+token+"/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getChat"):
			w.Write([]byte(`{"ok":true,"result":{"id":-1001234}}`))
		case strings.HasSuffix(r.URL.Path, "/getChatMember"):
			w.Write([]byte(`{"ok":true,"result":{"status":"` + memberStatus + `"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestNewFromConfigGatedFlow(t *testing.T) {
	server := botAPIServer(t, "123:abc", "left")
	defer server.Close()

	cfg := internal.DefaultConfig()
	cfg.ChannelsFile = writeChannelsFile(t, sponsorChannelsYAML)
	cfg.MembershipAPIBase = server.URL
	cfg.MembershipToken = "123:abc"

	p, err := NewFromConfig(cfg)
	require.NoError(t, err)

	result := p.Handle(context.Background(), "evt-1", 42, goodLink)
	require.Equal(t, KindSubscribePrompt, result.Kind)
	assert.Equal(t, []string{"sponsor_a"}, result.Channels)

	// The denied work is parked in the configured pending store.
	item, ok := p.pending.Get(42)
	require.True(t, ok)
	assert.Equal(t, "111", item.Reference.CanonicalID)
}

func TestNewFromConfigThrottleLimits(t *testing.T) {
	cfg := internal.DefaultConfig()
	cfg.BurstLimit = 1

	p, err := NewFromConfig(cfg)
	require.NoError(t, err)

	// Subscription is not required by default, so an unclassifiable message
	// never leaves the process; it still consumes throttle budget.
	first := p.Handle(context.Background(), "evt-1", 42, "just chatting")
	assert.Equal(t, KindNoLink, first.Kind)

	second := p.Handle(context.Background(), "evt-2", 42, "still chatting")
	assert.Equal(t, KindThrottled, second.Kind)

	// A different subscriber has their own budget.
	other := p.Handle(context.Background(), "evt-3", 43, "hello")
	assert.Equal(t, KindNoLink, other.Kind)
}

func TestNewFromConfigRequiresMembershipAPI(t *testing.T) {
	cfg := internal.DefaultConfig()
	cfg.ChannelsFile = writeChannelsFile(t, sponsorChannelsYAML)

	_, err := NewFromConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "membership API")
}

func TestNewFromConfigUngatedNeedsNoAPI(t *testing.T) {
	cfg := internal.DefaultConfig()

	p, err := NewFromConfig(cfg)
	require.NoError(t, err)

	result := p.Handle(context.Background(), "evt-1", 42, "no link here")
	assert.Equal(t, KindNoLink, result.Kind)
}

func TestNewFromConfigRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*internal.Config)
	}{
		{"unknown provider", func(c *internal.Config) { c.ProviderOrder = []string{"bogus"} }},
		{"zero pending ttl", func(c *internal.Config) { c.PendingTTL = 0 }},
		{"zero seen capacity", func(c *internal.Config) { c.SeenCapacity = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := internal.DefaultConfig()
			tt.mutate(cfg)
			_, err := NewFromConfig(cfg)
			require.Error(t, err)
		})
	}
}
