package resolver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"clipgate/internal"
	"clipgate/utils"
)

// maxResponseSize caps how much of a mirror response is read. Mirrors are
// untrusted; a runaway body must not exhaust memory.
const maxResponseSize = 4 << 20

// NewProviders constructs the provider set named in order, sharing one HTTP
// client. Unknown names are skipped with an error listing them.
func NewProviders(order []string, client *utils.HTTPClient) ([]internal.Provider, error) {
	var providers []internal.Provider
	var unknown []string

	for _, name := range order {
		switch name {
		case "tikwm":
			providers = append(providers, NewTikwmProvider(client))
		case "dlpanda":
			providers = append(providers, NewDlpandaProvider(client))
		case "snapclip":
			providers = append(providers, NewSnapclipProvider(client))
		case "piped":
			providers = append(providers, NewPipedProvider(client))
		case "cobalt":
			providers = append(providers, NewCobaltProvider(client))
		default:
			unknown = append(unknown, name)
		}
	}

	if len(unknown) > 0 {
		return nil, internal.NewValidationError("providers", fmt.Sprintf("unknown providers: %s", strings.Join(unknown, ", ")))
	}
	if len(providers) == 0 {
		return nil, internal.NewValidationError("providers", "no providers configured")
	}
	return providers, nil
}

// checkStatus maps a mirror HTTP status to the provider error taxonomy.
// 429 is the only retryable outcome.
func checkStatus(provider string, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return internal.NewRateLimitedError(provider)
	case resp.StatusCode != http.StatusOK:
		return internal.NewProviderError(provider, resp.StatusCode,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), internal.ErrProviderUnavailable)
	}
	return nil
}

// readBody drains a mirror response under the size cap. An empty body on
// HTTP 200 is a provider failure.
func readBody(provider string, resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, internal.NewNetworkTimeoutError(provider, err)
	}
	if len(body) == 0 {
		return nil, internal.NewInvalidResponseError(provider, "empty response body")
	}
	return body, nil
}

// decodeJSON unmarshals a mirror body, turning parse failures into provider
// failures rather than crashes. Mirror schemas drift constantly.
func decodeJSON(provider string, body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return internal.NewInvalidResponseError(provider, fmt.Sprintf("malformed JSON: %v", err))
	}
	return nil
}
