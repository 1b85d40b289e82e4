// Package service ties the aggregation pipeline together behind a paginated
// query interface the HTTP layer calls into.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-pkgz/lgr"

	"github.com/ebosman/buurtkrant/pkg/aggregator"
	"github.com/ebosman/buurtkrant/pkg/cache"
	"github.com/ebosman/buurtkrant/pkg/domain"
	"github.com/ebosman/buurtkrant/pkg/relevance"
)

// FilterAll selects every category
const FilterAll = "all"

// Page is one page of articles plus a continuation flag
type Page struct {
	Articles []domain.Article `json:"articles"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	HasMore  bool             `json:"has_more"`
	Cached   bool             `json:"cached"`
}

// News runs the full pipeline per location: aggregate, dedupe, score, cache,
// then filter and paginate per request. The cache key is the location, so
// filter and page changes never trigger a refetch.
type News struct {
	agg    *aggregator.Aggregator
	engine *relevance.Engine
	cache  *cache.Cache
}

// NewNews creates the news service
func NewNews(agg *aggregator.Aggregator, engine *relevance.Engine, articleCache *cache.Cache) *News {
	return &News{agg: agg, engine: engine, cache: articleCache}
}

// GetNews returns one page of relevant articles for the location. filter is
// "all" or a category name; page starts at 1.
func (n *News) GetNews(ctx context.Context, loc domain.Location, page, pageSize int, filter string) (*Page, error) {
	if page < 1 {
		return nil, fmt.Errorf("invalid page %d, pages start at 1", page)
	}
	if pageSize < 1 {
		return nil, fmt.Errorf("invalid page size %d", pageSize)
	}
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		filter = FilterAll
	}
	if filter != FilterAll && !domain.Category(filter).Valid() {
		return nil, fmt.Errorf("unknown filter %q", filter)
	}

	loc.City = strings.TrimSpace(loc.City)
	if loc.City == "" {
		return nil, fmt.Errorf("location city is required")
	}

	articles, cached, err := n.cache.GetOrRefresh(ctx, loc.Key(), func(ctx context.Context) ([]domain.Article, error) {
		raw := n.agg.Aggregate(ctx, loc)
		deduped := aggregator.Dedupe(raw)
		processed := n.engine.Process(deduped, loc)
		lgr.Printf("[INFO] pipeline for %q: %d fetched, %d after dedup, %d relevant",
			loc.Key(), len(raw), len(deduped), len(processed))
		return processed, nil
	})
	if err != nil {
		return nil, fmt.Errorf("refresh articles for %q: %w", loc.Key(), err)
	}

	filtered := articles
	if filter != FilterAll {
		filtered = make([]domain.Article, 0, len(articles))
		for _, article := range articles {
			if article.Category == domain.Category(filter) {
				filtered = append(filtered, article)
			}
		}
	}

	start := (page - 1) * pageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	return &Page{
		Articles: filtered[start:end],
		Page:     page,
		PageSize: pageSize,
		HasMore:  end < len(filtered),
		Cached:   cached,
	}, nil
}
