package classify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"clipgate/utils"
)

// RedirectExpander follows a short link's redirect chain to its final
// location. It issues HEAD requests first and falls back to GET when a hop
// rejects HEAD, since some shorteners only answer GET.
type RedirectExpander struct {
	client  *utils.HTTPClient
	maxHops int
}

// NewRedirectExpander creates an expander that follows at most maxHops
// redirects. The client must be configured to not follow redirects itself.
func NewRedirectExpander(client *utils.HTTPClient, maxHops int) *RedirectExpander {
	if maxHops < 1 {
		maxHops = 5
	}
	return &RedirectExpander{client: client, maxHops: maxHops}
}

// Expand follows redirects starting at rawURL and returns the last URL seen.
// Running out of hops is not an error: the last-seen URL is returned so the
// caller can still try to classify it.
func (e *RedirectExpander) Expand(ctx context.Context, rawURL string) (string, error) {
	current := rawURL

	for hop := 0; hop < e.maxHops; hop++ {
		location, redirected, err := e.followOnce(ctx, current)
		if err != nil {
			return "", err
		}
		if !redirected {
			return current, nil
		}
		current = location
	}

	return current, nil
}

// followOnce performs a single hop. It returns the next location and whether
// the response was actually a redirect.
func (e *RedirectExpander) followOnce(ctx context.Context, current string) (string, bool, error) {
	resp, err := e.client.Head(ctx, current, nil)
	if err != nil || resp.StatusCode == http.StatusMethodNotAllowed {
		if resp != nil {
			resp.Body.Close()
		}
		resp, err = e.client.Get(ctx, current, nil)
		if err != nil {
			return "", false, fmt.Errorf("redirect hop failed for %s: %w", current, err)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 || resp.StatusCode > 399 {
		return "", false, nil
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", false, nil
	}

	next, err := resolveLocation(current, location)
	if err != nil {
		return "", false, err
	}
	return next, true, nil
}

// resolveLocation resolves a possibly-relative Location header against the
// URL of the hop that produced it.
func resolveLocation(base, location string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %s: %w", base, err)
	}
	locURL, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("invalid Location header %q: %w", location, err)
	}
	return baseURL.ResolveReference(locURL).String(), nil
}
