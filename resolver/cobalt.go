package resolver

import (
	"bytes"
	"context"
	"encoding/json"

	"clipgate/internal"
	"clipgate/utils"
)

const cobaltAPIURL = "https://api.cobalt.tools/"

type cobaltRequest struct {
	URL string `json:"url"`
}

type cobaltResponse struct {
	Status string `json:"status"`
	URL    string `json:"url"`
	Text   string `json:"text"`
}

// CobaltProvider resolves both platforms through a cobalt instance. It sits
// at the chain tail as the generalist fallback.
type CobaltProvider struct {
	client *utils.HTTPClient
	apiURL string
}

// NewCobaltProvider creates a cobalt adapter using the shared HTTP client.
func NewCobaltProvider(client *utils.HTTPClient) *CobaltProvider {
	return &CobaltProvider{client: client, apiURL: cobaltAPIURL}
}

func (p *CobaltProvider) Name() string { return "cobalt" }

func (p *CobaltProvider) Supports(platform internal.Platform) bool {
	return platform == internal.PlatformTikTok || platform == internal.PlatformYouTube
}

func (p *CobaltProvider) Fetch(ctx context.Context, ref *internal.MediaReference) (string, error) {
	payload, err := json.Marshal(cobaltRequest{URL: ref.CanonicalURL})
	if err != nil {
		return "", internal.NewInvalidResponseError(p.Name(), "failed to encode request: "+err.Error())
	}

	resp, err := p.client.PostJSON(ctx, p.apiURL, bytes.NewReader(payload), map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return "", internal.NewNetworkTimeoutError(p.Name(), err)
	}
	defer resp.Body.Close()

	if err := checkStatus(p.Name(), resp); err != nil {
		return "", err
	}

	body, err := readBody(p.Name(), resp)
	if err != nil {
		return "", err
	}

	var parsed cobaltResponse
	if err := decodeJSON(p.Name(), body, &parsed); err != nil {
		return "", err
	}

	switch parsed.Status {
	case "stream", "redirect", "tunnel":
	default:
		return "", internal.NewInvalidResponseError(p.Name(), "unusable status: "+parsed.Status)
	}

	if parsed.URL == "" {
		return "", internal.NewInvalidResponseError(p.Name(), "no URL in response")
	}
	return parsed.URL, nil
}
