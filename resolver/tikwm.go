package resolver

import (
	"context"
	"net/url"

	"clipgate/internal"
	"clipgate/utils"
)

const tikwmAPIURL = "https://www.tikwm.com/api/"

// tikwmResponse is the mirror's envelope. Fields come and go between
// deployments, so everything is optional.
type tikwmResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Play     string `json:"play"`
		HDPlay   string `json:"hdplay"`
		WMPlay   string `json:"wmplay"`
		Duration int    `json:"duration"`
	} `json:"data"`
}

// TikwmProvider resolves TikTok links through the tikwm mirror. It prefers
// the HD no-watermark rendition and falls back to the standard one.
type TikwmProvider struct {
	client *utils.HTTPClient
	apiURL string
}

// NewTikwmProvider creates a tikwm adapter using the shared HTTP client.
func NewTikwmProvider(client *utils.HTTPClient) *TikwmProvider {
	return &TikwmProvider{client: client, apiURL: tikwmAPIURL}
}

func (p *TikwmProvider) Name() string { return "tikwm" }

func (p *TikwmProvider) Supports(platform internal.Platform) bool {
	return platform == internal.PlatformTikTok
}

// Fetch performs one call against the mirror and extracts the direct URL.
func (p *TikwmProvider) Fetch(ctx context.Context, ref *internal.MediaReference) (string, error) {
	form := url.Values{
		"url": {ref.CanonicalURL},
		"hd":  {"1"},
	}

	resp, err := p.client.PostForm(ctx, p.apiURL, form, nil)
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

	var parsed tikwmResponse
	if err := decodeJSON(p.Name(), body, &parsed); err != nil {
		return "", err
	}

	if parsed.Code != 0 {
		return "", internal.NewInvalidResponseError(p.Name(), "mirror rejected link: "+parsed.Msg)
	}

	directURL := parsed.Data.HDPlay
	if directURL == "" {
		directURL = parsed.Data.Play
	}
	if directURL == "" {
		return "", internal.NewInvalidResponseError(p.Name(), "no playable URL in response")
	}

	// tikwm sometimes returns a path relative to its own host.
	if directURL[0] == '/' {
		directURL = "https://www.tikwm.com" + directURL
	}

	if parsed.Data.Duration > 0 {
		ref.DurationSec = parsed.Data.Duration
	}
	ref.MimeHint = "video/mp4"
	return directURL, nil
}
