package feed

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-pkgz/lgr"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
)

// minDataURILen rejects inline data URIs shorter than this, almost always
// 1x1 tracking pixels
const minDataURILen = 512

// Thumbnailer resolves a representative image URL for a feed item through an
// ordered fallback chain: enclosure, media:content, media:thumbnail, first
// usable <img> in the item HTML, and as a last resort the article page's
// og:image / twitter:image meta tags.
type Thumbnailer struct {
	client    *http.Client
	timeout   time.Duration
	proxy     string
	userAgent string
	minPixels int
}

// ThumbnailerConfig holds thumbnail resolution settings
type ThumbnailerConfig struct {
	Timeout   time.Duration // hard cap per page fetch
	ProxyURL  string        // optional CORS-bypass proxy prefix
	UserAgent string
	MinPixels int // images narrower or shorter than this are treated as pixels/icons
}

// NewThumbnailer creates a thumbnail resolver
func NewThumbnailer(cfg ThumbnailerConfig) *Thumbnailer {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MinPixels == 0 {
		cfg.MinPixels = 50
	}
	return &Thumbnailer{
		client:    newHTTPClient(cfg.Timeout),
		timeout:   cfg.Timeout,
		proxy:     cfg.ProxyURL,
		userAgent: cfg.UserAgent,
		minPixels: cfg.MinPixels,
	}
}

// Resolve walks the fallback chain and returns the first image URL found, or
// an empty string. Network steps are bounded by the configured timeout and
// never fail the caller; a miss at every step is not an error.
func (t *Thumbnailer) Resolve(ctx context.Context, item *gofeed.Item, htmlContent, articleURL string) string {
	if item != nil {
		if u := enclosureImage(item); u != "" {
			return u
		}
		if u := mediaContentImage(item); u != "" {
			return u
		}
		if u := mediaThumbnail(item); u != "" {
			return u
		}
	}
	if u := firstImageURL(htmlContent, t.minPixels); u != "" {
		return u
	}
	if articleURL != "" {
		return t.pageImage(ctx, articleURL)
	}
	return ""
}

// enclosureImage returns the URL of the first enclosure with an image MIME type
func enclosureImage(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc == nil {
			continue
		}
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}

// mediaContentImage returns the URL of the first media:content element flagged
// as an image
func mediaContentImage(item *gofeed.Item) string {
	for _, m := range item.Extensions["media"]["content"] {
		if m.Attrs["url"] == "" {
			continue
		}
		if strings.HasPrefix(m.Attrs["type"], "image/") || m.Attrs["medium"] == "image" {
			return m.Attrs["url"]
		}
	}
	return ""
}

// mediaThumbnail returns the URL of the first media:thumbnail element
func mediaThumbnail(item *gofeed.Item) string {
	for _, m := range item.Extensions["media"]["thumbnail"] {
		if m.Attrs["url"] != "" {
			return m.Attrs["url"]
		}
	}
	return ""
}

// firstImageURL scans an HTML fragment for the first plausible <img src>,
// skipping tracking pixels and tiny icons
func firstImageURL(htmlContent string, minPixels int) string {
	if htmlContent == "" {
		return ""
	}
	z := html.NewTokenizer(strings.NewReader(htmlContent))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "img" {
				continue
			}
			src, width, height := "", -1, -1
			for _, attr := range tok.Attr {
				switch attr.Key {
				case "src":
					src = strings.TrimSpace(attr.Val)
				case "width":
					width = parseDimension(attr.Val)
				case "height":
					height = parseDimension(attr.Val)
				}
			}
			if !plausibleImage(src, width, height, minPixels) {
				continue
			}
			return src
		}
	}
}

// plausibleImage rejects empty sources, short data URIs and sub-threshold
// declared dimensions
func plausibleImage(src string, width, height, minPixels int) bool {
	if src == "" {
		return false
	}
	if strings.HasPrefix(src, "data:") && len(src) < minDataURILen {
		return false
	}
	if width >= 0 && width < minPixels {
		return false
	}
	if height >= 0 && height < minPixels {
		return false
	}
	return true
}

// parseDimension parses a width/height attribute, -1 when absent or non-numeric
func parseDimension(val string) int {
	val = strings.TrimSuffix(strings.TrimSpace(val), "px")
	n, err := strconv.Atoi(val)
	if err != nil {
		return -1
	}
	return n
}

// pageImage fetches the article page itself and reads the Open Graph or
// Twitter-card image meta tag. Failures are logged and degrade to no thumbnail.
func (t *Thumbnailer) pageImage(ctx context.Context, articleURL string) string {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, proxiedURL(t.proxy, articleURL), http.NoBody)
	if err != nil {
		lgr.Printf("[DEBUG] thumbnail page request failed for %s: %v", articleURL, err)
		return ""
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		lgr.Printf("[DEBUG] thumbnail page fetch failed for %s: %v", articleURL, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		lgr.Printf("[DEBUG] thumbnail page fetch for %s returned status %d", articleURL, resp.StatusCode)
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		lgr.Printf("[DEBUG] thumbnail page parse failed for %s: %v", articleURL, err)
		return ""
	}

	for _, sel := range []string{
		`meta[property="og:image"]`,
		`meta[name="twitter:image"]`,
		`meta[name="twitter:image:src"]`,
	} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
			return strings.TrimSpace(content)
		}
	}
	return ""
}
