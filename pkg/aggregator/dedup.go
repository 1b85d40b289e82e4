package aggregator

import (
	"strings"

	"github.com/ebosman/buurtkrant/pkg/domain"
)

// Dedupe removes articles that share a canonical URL or whose titles are
// near-identical (one a case-insensitive substring of the other, which catches
// syndicated reposts with truncated or expanded titles). The higher-scoring
// instance wins, first-seen on ties.
func Dedupe(articles []domain.Article) []domain.Article {
	out := make([]domain.Article, 0, len(articles))
	byURL := make(map[string]int, len(articles))

	for _, article := range articles {
		if idx, ok := byURL[article.URL]; ok {
			if article.RelevanceScore > out[idx].RelevanceScore {
				out[idx] = article
			}
			continue
		}

		dup := -1
		for i := range out {
			if titlesOverlap(out[i].Title, article.Title) {
				dup = i
				break
			}
		}
		if dup >= 0 {
			if article.RelevanceScore > out[dup].RelevanceScore {
				out[dup] = article
			}
			byURL[article.URL] = dup
			continue
		}

		byURL[article.URL] = len(out)
		out = append(out, article)
	}

	return out
}

// titlesOverlap reports whether one title is a case-insensitive substring of
// the other
func titlesOverlap(a, b string) bool {
	na := strings.ToLower(strings.TrimSpace(a))
	nb := strings.ToLower(strings.TrimSpace(b))
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}
