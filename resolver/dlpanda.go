package resolver

import (
	"context"
	"net/url"

	"clipgate/internal"
	"clipgate/utils"
)

const dlpandaAPIURL = "https://dlpanda.com/api/v1/video"

type dlpandaResponse struct {
	Success bool `json:"success"`
	Video   struct {
		NoWatermark string `json:"noWatermark"`
		URL         string `json:"url"`
		Cover       string `json:"cover"`
	} `json:"video"`
}

// DlpandaProvider resolves TikTok links through the dlpanda mirror,
// preferring the no-watermark rendition.
type DlpandaProvider struct {
	client *utils.HTTPClient
	apiURL string
}

// NewDlpandaProvider creates a dlpanda adapter using the shared HTTP client.
func NewDlpandaProvider(client *utils.HTTPClient) *DlpandaProvider {
	return &DlpandaProvider{client: client, apiURL: dlpandaAPIURL}
}

func (p *DlpandaProvider) Name() string { return "dlpanda" }

func (p *DlpandaProvider) Supports(platform internal.Platform) bool {
	return platform == internal.PlatformTikTok
}

func (p *DlpandaProvider) Fetch(ctx context.Context, ref *internal.MediaReference) (string, error) {
	requestURL := p.apiURL + "?url=" + url.QueryEscape(ref.CanonicalURL)

	resp, err := p.client.Get(ctx, requestURL, nil)
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

	var parsed dlpandaResponse
	if err := decodeJSON(p.Name(), body, &parsed); err != nil {
		return "", err
	}

	if !parsed.Success {
		return "", internal.NewInvalidResponseError(p.Name(), "mirror reported failure")
	}

	directURL := parsed.Video.NoWatermark
	if directURL == "" {
		directURL = parsed.Video.URL
	}
	if directURL == "" {
		return "", internal.NewInvalidResponseError(p.Name(), "no playable URL in response")
	}
	return directURL, nil
}
