package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
	"github.com/mmcdole/gofeed"

	"github.com/ebosman/buurtkrant/pkg/domain"
)

// Fetcher retrieves a single feed source and maps its raw items into
// canonical articles. Transport failures and malformed items are the normal
// state of affairs for public feeds, so the fetcher isolates both: a fetch
// error is returned for the caller to log and skip, a bad item is dropped
// without aborting the rest of the feed.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	proxy     string
	userAgent string
	attempts  int
	thumbs    *Thumbnailer
	clean     *sanitizer
	now       func() time.Time
}

// FetcherConfig holds feed fetching settings
type FetcherConfig struct {
	Timeout     time.Duration // per-feed fetch timeout
	ProxyURL    string        // optional CORS-bypass proxy prefix
	UserAgent   string
	Attempts    int // total fetch attempts including the first
	Thumbnailer *Thumbnailer
}

// NewFetcher creates a feed fetcher
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 2
	}
	if cfg.Thumbnailer == nil {
		cfg.Thumbnailer = NewThumbnailer(ThumbnailerConfig{UserAgent: cfg.UserAgent, ProxyURL: cfg.ProxyURL})
	}
	return &Fetcher{
		client:    newHTTPClient(cfg.Timeout),
		timeout:   cfg.Timeout,
		proxy:     cfg.ProxyURL,
		userAgent: cfg.UserAgent,
		attempts:  cfg.Attempts,
		thumbs:    cfg.Thumbnailer,
		clean:     newSanitizer(),
		now:       time.Now,
	}
}

// Fetch retrieves and parses one feed source, returning canonical articles.
// Items missing a title, content or URL after normalization are dropped.
// The fetch timeout covers the feed download only; per-item thumbnail page
// fetches run on the caller's context, each bounded by the resolver's own
// timeout, so one slow article page can't starve the items after it.
func (f *Fetcher) Fetch(ctx context.Context, src domain.FeedSource) ([]domain.Article, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var body []byte
	retrier := repeater.NewBackoff(f.attempts, 300*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err := retrier.Do(fetchCtx, func() error {
		data, err := f.fetch(fetchCtx, src.FeedURL)
		if err != nil {
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", src.FeedURL, err)
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.FeedURL, err)
	}

	sourceType := feedSourceType(parsed.FeedType)

	articles := make([]domain.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		article, ok := f.buildArticle(ctx, src, sourceType, item)
		if !ok {
			continue
		}
		articles = append(articles, article)
	}

	return articles, nil
}

// fetch retrieves the raw feed body through the proxy, if configured
func (f *Fetcher) fetch(ctx context.Context, feedURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, proxiedURL(f.proxy, feedURL), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	addBrowserHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// buildArticle converts one raw feed item to a canonical article. Returns
// false when the item lacks required fields; one malformed item never aborts
// the feed.
func (f *Fetcher) buildArticle(ctx context.Context, src domain.FeedSource, sourceType string, item *gofeed.Item) (domain.Article, bool) {
	if item == nil {
		return domain.Article{}, false
	}

	title := strings.TrimSpace(item.Title)

	articleURL := strings.TrimSpace(item.Link)
	if articleURL == "" && strings.HasPrefix(item.GUID, "http") {
		articleURL = strings.TrimSpace(item.GUID)
	}

	// first present of description / content:encoded wins; gofeed folds
	// atom summary into Description and content into Content. Media RSS feeds
	// sometimes carry the body only in media:description, which gofeed leaves
	// as an extension tree.
	rawContent := item.Description
	if strings.TrimSpace(rawContent) == "" {
		rawContent = item.Content
	}
	if strings.TrimSpace(rawContent) == "" {
		rawContent = ExtractText(item.Extensions["media"]["description"])
	}

	if title == "" || articleURL == "" || strings.TrimSpace(rawContent) == "" {
		lgr.Printf("[DEBUG] dropping incomplete item from %s (title=%q url=%q)", src.Name, title, articleURL)
		return domain.Article{}, false
	}

	// the richer of the two HTML payloads feeds the image scan
	htmlForImages := item.Content
	if strings.TrimSpace(htmlForImages) == "" {
		htmlForImages = item.Description
	}

	article := domain.Article{
		ID:           domain.ArticleID(articleURL),
		Title:        title,
		Content:      f.clean.html(rawContent),
		Summary:      f.clean.excerpt(rawContent),
		ThumbnailURL: f.thumbs.Resolve(ctx, item, htmlForImages, articleURL),
		Published:    f.publishedTime(item),
		SourceName:   src.Name,
		Author:       itemAuthor(item),
		URL:          articleURL,
		SourceType:   sourceType,
	}
	return article, true
}

// publishedTime derives the publish timestamp from the first present of
// published/updated, falling back to lenient parsing of the raw date string
// and finally the fetch time
func (f *Fetcher) publishedTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	for _, raw := range []string{item.Published, item.Updated, item.Custom["date"]} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if ts, err := dateparse.ParseAny(raw); err == nil {
			return ts
		}
	}
	return f.now()
}

// itemAuthor picks the first named author, if any
func itemAuthor(item *gofeed.Item) string {
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	if item.Author != nil {
		return item.Author.Name
	}
	return ""
}

// feedSourceType maps gofeed's detected format to a provenance tag
func feedSourceType(feedType string) string {
	switch feedType {
	case "rss":
		return "RSS Feed"
	case "atom":
		return "Atom Feed"
	case "json":
		return "JSON Feed"
	}
	return "Feed"
}
