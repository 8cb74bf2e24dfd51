package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"

	"clipgate/internal"
	"clipgate/utils"
)

// memberStatuses are the chat-member states that count as membership.
// "left" and "kicked" do not.
var memberStatuses = map[string]bool{
	"creator":       true,
	"administrator": true,
	"member":        true,
	"restricted":    true,
}

type chatMemberResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		Status string `json:"status"`
	} `json:"result"`
}

type chatResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		ID int64 `json:"id"`
	} `json:"result"`
}

// APIMembershipClient checks channel membership against a messaging-platform
// bot API. Channel handles must first be resolved to numeric chat ids;
// resolution is case-sensitive upstream, so variants are tried, and resolved
// ids are cached.
type APIMembershipClient struct {
	client  *utils.HTTPClient
	baseURL string
	chatIDs *lru.Cache
}

// NewAPIMembershipClient creates a membership client for the given bot API
// base URL (token included).
func NewAPIMembershipClient(client *utils.HTTPClient, baseURL string) (*APIMembershipClient, error) {
	cache, err := lru.New(256)
	if err != nil {
		return nil, err
	}
	return &APIMembershipClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		chatIDs: cache,
	}, nil
}

// IsMember reports whether the subscriber belongs to the channel. The error
// return covers lookup failures only (handle unresolvable, API unreachable,
// bot lacking rights); a reachable channel the subscriber simply has not
// joined is (false, nil).
func (c *APIMembershipClient) IsMember(ctx context.Context, subscriberID int64, channelHandle string) (bool, error) {
	chatID, err := c.resolveChatID(ctx, channelHandle)
	if err != nil {
		return false, internal.NewMembershipLookupError(channelHandle, err)
	}

	query := url.Values{
		"chat_id": {fmt.Sprintf("%d", chatID)},
		"user_id": {fmt.Sprintf("%d", subscriberID)},
	}
	var parsed chatMemberResponse
	if err := c.call(ctx, "getChatMember", query, &parsed); err != nil {
		return false, internal.NewMembershipLookupError(channelHandle, err)
	}
	if !parsed.OK {
		return false, internal.NewMembershipLookupError(channelHandle, fmt.Errorf("api error: %s", parsed.Description))
	}

	return memberStatuses[parsed.Result.Status], nil
}

// resolveChatID turns a channel handle into a numeric chat id, trying case
// variants in order: as configured, lowercase, then TitleCase.
func (c *APIMembershipClient) resolveChatID(ctx context.Context, handle string) (int64, error) {
	if cached, ok := c.chatIDs.Get(handle); ok {
		return cached.(int64), nil
	}

	var lastErr error
	for _, variant := range handleVariants(handle) {
		var parsed chatResponse
		err := c.call(ctx, "getChat", url.Values{"chat_id": {"@" + variant}}, &parsed)
		if err != nil {
			lastErr = err
			continue
		}
		if !parsed.OK || parsed.Result.ID == 0 {
			lastErr = fmt.Errorf("handle %q not found", variant)
			continue
		}
		c.chatIDs.Add(handle, parsed.Result.ID)
		if variant != handle {
			log.Debug().Str("handle", handle).Str("variant", variant).Msg("handle resolved via case variant")
		}
		return parsed.Result.ID, nil
	}

	return 0, fmt.Errorf("could not resolve handle %q: %w", handle, lastErr)
}

// handleVariants returns the case variants to try, deduplicated, original
// first.
func handleVariants(handle string) []string {
	variants := []string{handle}
	for _, v := range []string{strings.ToLower(handle), titleCase(handle)} {
		seen := false
		for _, existing := range variants {
			if existing == v {
				seen = true
				break
			}
		}
		if !seen {
			variants = append(variants, v)
		}
	}
	return variants
}

// titleCase uppercases only the first rune; handles are ASCII usernames.
func titleCase(handle string) string {
	lower := strings.ToLower(handle)
	if lower == "" {
		return lower
	}
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func (c *APIMembershipClient) call(ctx context.Context, method string, query url.Values, v interface{}) error {
	resp, err := c.client.Get(ctx, c.baseURL+"/"+method+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("%s returned status %d", method, resp.StatusCode)
	}
	return json.Unmarshal(body, v)
}
