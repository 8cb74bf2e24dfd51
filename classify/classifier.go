package classify

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"clipgate/internal"
)

// urlScanPattern finds URL-looking tokens in freeform message text.
var urlScanPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// linkPattern binds a URL shape to a platform. Short-link shapes carry a
// redirect code rather than a content id and need expansion first.
type linkPattern struct {
	platform internal.Platform
	re       *regexp.Regexp
	short    bool
}

// Direct patterns capture the content id in group 1. The TikTok profile
// pattern additionally captures the author handle.
var directPatterns = []linkPattern{
	// https://www.tiktok.com/@user/video/7301234567890123456
	{internal.PlatformTikTok, regexp.MustCompile(`^https?://(?:www\.)?tiktok\.com/@([\w.-]+)/video/(\d+)`), false},
	// https://m.tiktok.com/v/7301234567890123456.html
	{internal.PlatformTikTok, regexp.MustCompile(`^https?://m\.tiktok\.com/v/(\d+)`), false},
	// https://www.youtube.com/watch?v=dQw4w9WgXcQ (plus m. and music. hosts)
	{internal.PlatformYouTube, regexp.MustCompile(`^https?://(?:www\.|m\.|music\.)?youtube\.com/watch\?(?:.*&)?v=([\w-]{6,})`), false},
	// https://youtu.be/dQw4w9WgXcQ
	{internal.PlatformYouTube, regexp.MustCompile(`^https?://youtu\.be/([\w-]{6,})`), false},
	// https://www.youtube.com/shorts/dQw4w9WgXcQ
	{internal.PlatformYouTube, regexp.MustCompile(`^https?://(?:www\.|m\.)?youtube\.com/shorts/([\w-]{6,})`), false},
}

var shortPatterns = []linkPattern{
	// https://vm.tiktok.com/ZMabcdefg/ and vt.tiktok.com variant
	{internal.PlatformTikTok, regexp.MustCompile(`^https?://(?:vm|vt)\.tiktok\.com/[\w-]+`), true},
	// https://www.tiktok.com/t/ZTabcdefg/
	{internal.PlatformTikTok, regexp.MustCompile(`^https?://(?:www\.)?tiktok\.com/t/[\w-]+`), true},
}

// LinkClassifier turns freeform message text into zero or one MediaReference.
// Short links are expanded through their redirect chain before the canonical
// form is derived; expansion failure falls back to the original URL.
type LinkClassifier struct {
	expander *RedirectExpander
}

// NewLinkClassifier creates a classifier using the given redirect expander.
func NewLinkClassifier(expander *RedirectExpander) *LinkClassifier {
	return &LinkClassifier{expander: expander}
}

// maxScanTokens bounds how many URL-looking tokens in one message are
// considered before giving up.
const maxScanTokens = 8

// Classify scans text for the first recognizable platform link. Unrelated
// URLs earlier in the message are skipped over. The second return is false
// when no supported link is present; that is a normal outcome, not an error.
func (c *LinkClassifier) Classify(ctx context.Context, text string) (*internal.MediaReference, bool) {
	for _, rawURL := range urlScanPattern.FindAllString(text, maxScanTokens) {
		rawURL = strings.TrimRight(rawURL, ".,;:!?)")
		if ref, ok := c.classifyURL(ctx, rawURL); ok {
			return ref, true
		}
	}
	return nil, false
}

// classifyURL matches a single URL token against the known platform shapes.
func (c *LinkClassifier) classifyURL(ctx context.Context, rawURL string) (*internal.MediaReference, bool) {
	if ref, ok := c.matchDirect(rawURL, rawURL); ok {
		return ref, true
	}

	for _, p := range shortPatterns {
		if !p.re.MatchString(rawURL) {
			continue
		}
		expanded, err := c.expander.Expand(ctx, rawURL)
		if err != nil {
			// Normalization is best-effort: hand the original URL to the
			// providers and let the mirrors resolve it themselves.
			log.Debug().Str("url", rawURL).Err(err).Msg("redirect expansion failed, keeping original")
			return &internal.MediaReference{
				Platform:     p.platform,
				RawURL:       rawURL,
				CanonicalID:  shortLinkCode(rawURL),
				CanonicalURL: rawURL,
			}, true
		}
		if ref, ok := c.matchDirect(expanded, rawURL); ok {
			return ref, true
		}
		// Expanded somewhere unrecognized (login wall, region block).
		return &internal.MediaReference{
			Platform:     p.platform,
			RawURL:       rawURL,
			CanonicalID:  shortLinkCode(rawURL),
			CanonicalURL: rawURL,
		}, true
	}

	return nil, false
}

// matchDirect tries the direct patterns against matchURL, keeping rawURL as
// the reference's original form.
func (c *LinkClassifier) matchDirect(matchURL, rawURL string) (*internal.MediaReference, bool) {
	for _, p := range directPatterns {
		matches := p.re.FindStringSubmatch(matchURL)
		if matches == nil {
			continue
		}

		switch p.platform {
		case internal.PlatformTikTok:
			user, id := "_", matches[1]
			if len(matches) > 2 {
				user, id = matches[1], matches[2]
			}
			return &internal.MediaReference{
				Platform:     internal.PlatformTikTok,
				RawURL:       rawURL,
				CanonicalID:  id,
				CanonicalURL: fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", user, id),
			}, true
		case internal.PlatformYouTube:
			return &internal.MediaReference{
				Platform:     internal.PlatformYouTube,
				RawURL:       rawURL,
				CanonicalID:  matches[1],
				CanonicalURL: fmt.Sprintf("https://www.youtube.com/watch?v=%s", matches[1]),
			}, true
		}
	}
	return nil, false
}

// shortLinkCode extracts the opaque redirect code from a short link, used as
// a stand-in id when expansion fails.
func shortLinkCode(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) == 0 {
		return rawURL
	}
	return parts[len(parts)-1]
}
