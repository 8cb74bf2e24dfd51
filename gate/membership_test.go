package gate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipgate/utils"
)

// fakeBotAPI is a minimal getChat/getChatMember endpoint. knownHandles maps
// the exact (case-sensitive) handle to a chat id; memberships maps
// "chatID:userID" to a member status.
type fakeBotAPI struct {
	knownHandles map[string]int64
	memberships  map[string]string
	getChatCalls int
}

func (f *fakeBotAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/getChat":
			f.getChatCalls++
			handle := r.URL.Query().Get("chat_id")
			if id, ok := f.knownHandles[handle]; ok {
				fmt.Fprintf(w, `{"ok":true,"result":{"id":%d}}`, id)
				return
			}
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"ok":false,"description":"chat not found"}`)
		case "/getChatMember":
			key := r.URL.Query().Get("chat_id") + ":" + r.URL.Query().Get("user_id")
			if status, ok := f.memberships[key]; ok {
				fmt.Fprintf(w, `{"ok":true,"result":{"status":"%s"}}`, status)
				return
			}
			fmt.Fprint(w, `{"ok":true,"result":{"status":"left"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newMembershipClient(t *testing.T, api *fakeBotAPI) (*APIMembershipClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	httpClient := utils.NewHTTPClientWithConfig(&utils.HTTPClientConfig{Timeout: 5 * time.Second})
	client, err := NewAPIMembershipClient(httpClient, server.URL)
	require.NoError(t, err)
	return client, server
}

func TestIsMemberStatuses(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"creator", true},
		{"administrator", true},
		{"member", true},
		{"restricted", true},
		{"left", false},
		{"kicked", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			api := &fakeBotAPI{
				knownHandles: map[string]int64{"@sponsor": -100123},
				memberships:  map[string]string{"-100123:42": tt.status},
			}
			client, _ := newMembershipClient(t, api)

			member, err := client.IsMember(context.Background(), 42, "sponsor")
			require.NoError(t, err)
			assert.Equal(t, tt.want, member)
		})
	}
}

func TestResolveChatIDCaseVariants(t *testing.T) {
	// Upstream only knows the TitleCase form.
	api := &fakeBotAPI{
		knownHandles: map[string]int64{"@Sponsor": -100456},
		memberships:  map[string]string{"-100456:42": "member"},
	}
	client, _ := newMembershipClient(t, api)

	member, err := client.IsMember(context.Background(), 42, "SPONSOR")
	require.NoError(t, err)
	assert.True(t, member)
	// As-given and lowercase failed before TitleCase hit.
	assert.Equal(t, 3, api.getChatCalls)
}

func TestResolveChatIDCached(t *testing.T) {
	api := &fakeBotAPI{
		knownHandles: map[string]int64{"@sponsor": -100789},
		memberships:  map[string]string{"-100789:42": "member"},
	}
	client, _ := newMembershipClient(t, api)

	for i := 0; i < 3; i++ {
		_, err := client.IsMember(context.Background(), 42, "sponsor")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, api.getChatCalls)
}

func TestIsMemberUnresolvableHandle(t *testing.T) {
	api := &fakeBotAPI{knownHandles: map[string]int64{}}
	client, _ := newMembershipClient(t, api)

	_, err := client.IsMember(context.Background(), 42, "ghost_channel")
	require.Error(t, err)
}

func TestIsMemberAPIDown(t *testing.T) {
	httpClient := utils.NewHTTPClientWithConfig(&utils.HTTPClientConfig{Timeout: 200 * time.Millisecond})
	client, err := NewAPIMembershipClient(httpClient, "http://127.0.0.1:1")
	require.NoError(t, err)

	_, err = client.IsMember(context.Background(), 42, "sponsor")
	require.Error(t, err)
}
