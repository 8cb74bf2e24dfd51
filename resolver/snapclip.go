package resolver

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"clipgate/internal"
	"clipgate/utils"
)

const snapclipAPIURL = "https://snapclip.app/action"

// SnapclipProvider resolves TikTok links by scraping the snapclip mirror's
// HTML result page. Download anchors carry the direct URL.
type SnapclipProvider struct {
	client *utils.HTTPClient
	apiURL string
}

// NewSnapclipProvider creates a snapclip adapter using the shared HTTP client.
func NewSnapclipProvider(client *utils.HTTPClient) *SnapclipProvider {
	return &SnapclipProvider{client: client, apiURL: snapclipAPIURL}
}

func (p *SnapclipProvider) Name() string { return "snapclip" }

func (p *SnapclipProvider) Supports(platform internal.Platform) bool {
	return platform == internal.PlatformTikTok
}

func (p *SnapclipProvider) Fetch(ctx context.Context, ref *internal.MediaReference) (string, error) {
	form := url.Values{"url": {ref.CanonicalURL}}

	resp, err := p.client.PostForm(ctx, p.apiURL, form, map[string]string{
		"X-Requested-With": "XMLHttpRequest",
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

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", internal.NewInvalidResponseError(p.Name(), "malformed HTML: "+err.Error())
	}

	directURL := extractDownloadHref(doc)
	if directURL == "" {
		return "", internal.NewInvalidResponseError(p.Name(), "no download link in page")
	}
	return directURL, nil
}

// extractDownloadHref picks the first explicit download anchor, falling back
// to any anchor pointing at an mp4.
func extractDownloadHref(doc *goquery.Document) string {
	var href string

	doc.Find("a[download]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if h, ok := s.Attr("href"); ok && h != "" && h != "#" {
			href = h
			return false
		}
		return true
	})
	if href != "" {
		return href
	}

	doc.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if h, ok := s.Attr("href"); ok && strings.Contains(h, ".mp4") {
			href = h
			return false
		}
		return true
	})
	return href
}
