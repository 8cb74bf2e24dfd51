package resolver

import (
	"context"

	"clipgate/internal"
	"clipgate/utils"
)

const pipedAPIURL = "https://pipedapi.kavin.rocks"

type pipedStream struct {
	URL       string `json:"url"`
	Quality   string `json:"quality"`
	MimeType  string `json:"mimeType"`
	VideoOnly bool   `json:"videoOnly"`
}

type pipedResponse struct {
	Duration     int           `json:"duration"`
	VideoStreams []pipedStream `json:"videoStreams"`
}

// PipedProvider resolves YouTube links through a Piped API instance. Only
// muxed streams (video with audio) are usable; 720p is preferred when
// available.
type PipedProvider struct {
	client *utils.HTTPClient
	apiURL string
}

// NewPipedProvider creates a piped adapter using the shared HTTP client.
func NewPipedProvider(client *utils.HTTPClient) *PipedProvider {
	return &PipedProvider{client: client, apiURL: pipedAPIURL}
}

func (p *PipedProvider) Name() string { return "piped" }

func (p *PipedProvider) Supports(platform internal.Platform) bool {
	return platform == internal.PlatformYouTube
}

func (p *PipedProvider) Fetch(ctx context.Context, ref *internal.MediaReference) (string, error) {
	resp, err := p.client.Get(ctx, p.apiURL+"/streams/"+ref.CanonicalID, nil)
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

	var parsed pipedResponse
	if err := decodeJSON(p.Name(), body, &parsed); err != nil {
		return "", err
	}

	stream, ok := pickMuxedStream(parsed.VideoStreams)
	if !ok {
		return "", internal.NewInvalidResponseError(p.Name(), "no muxed stream in response")
	}

	if parsed.Duration > 0 {
		ref.DurationSec = parsed.Duration
	}
	if stream.MimeType != "" {
		ref.MimeHint = stream.MimeType
	}
	return stream.URL, nil
}

// pickMuxedStream selects a muxed stream, preferring 720p, then the first
// muxed entry of any quality.
func pickMuxedStream(streams []pipedStream) (pipedStream, bool) {
	var fallback pipedStream
	var found bool
	for _, s := range streams {
		if s.VideoOnly || s.URL == "" {
			continue
		}
		if s.Quality == "720p" {
			return s, true
		}
		if !found {
			fallback = s
			found = true
		}
	}
	return fallback, found
}
