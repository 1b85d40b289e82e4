package aggregator

import (
	"context"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/ebosman/buurtkrant/pkg/domain"
)

// Fetcher retrieves articles from a single feed source
type Fetcher interface {
	Fetch(ctx context.Context, src domain.FeedSource) ([]domain.Article, error)
}

// SourceProvider resolves the feed sources applicable to a location
type SourceProvider interface {
	SourcesFor(loc domain.Location) []domain.FeedSource
}

// Aggregator fans the fetcher out across all applicable sources concurrently
// and flattens the results. Sources settle independently: a failing or slow
// source contributes nothing and never cancels or delays its siblings.
type Aggregator struct {
	sources    SourceProvider
	fetcher    Fetcher
	maxWorkers int
}

// New creates an aggregator. maxWorkers bounds concurrent source fetches.
func New(sources SourceProvider, fetcher Fetcher, maxWorkers int) *Aggregator {
	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	return &Aggregator{sources: sources, fetcher: fetcher, maxWorkers: maxWorkers}
}

// Aggregate fetches all sources for the location concurrently and returns the
// flattened article list. A location with no configured sources yields an
// empty list, not an error.
func (a *Aggregator) Aggregate(ctx context.Context, loc domain.Location) []domain.Article {
	srcs := a.sources.SourcesFor(loc)
	if len(srcs) == 0 {
		lgr.Printf("[WARN] no sources configured for %s, %s (%s)", loc.City, loc.Region, loc.Country)
		return []domain.Article{}
	}

	lgr.Printf("[DEBUG] aggregating %d sources for %s", len(srcs), loc.City)

	results := make([][]domain.Article, len(srcs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxWorkers)

	for i, src := range srcs {
		g.Go(func() error {
			articles, err := a.fetcher.Fetch(gctx, src)
			if err != nil {
				lgr.Printf("[WARN] source %s failed: %v", src.Name, err)
				return nil // failure is isolated per source
			}
			results[i] = articles
			return nil
		})
	}

	_ = g.Wait() // workers never return errors

	out := make([]domain.Article, 0, 64)
	for _, articles := range results {
		out = append(out, articles...)
	}

	lgr.Printf("[INFO] aggregated %d articles from %d sources for %s", len(out), len(srcs), loc.City)
	return out
}
