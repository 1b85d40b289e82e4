package domain

import (
	"encoding/base64"
	"time"
)

// Category is a coarse relevance tier for an article, not a topic taxonomy.
type Category string

const (
	CategoryLocal     Category = "local"
	CategoryRegional  Category = "regional"
	CategoryImportant Category = "important"
)

// Valid reports whether the category is one of the known tiers
func (c Category) Valid() bool {
	return c == CategoryLocal || c == CategoryRegional || c == CategoryImportant
}

// Priority returns sort priority, higher sorts first
func (c Category) Priority() int {
	switch c {
	case CategoryImportant:
		return 3
	case CategoryLocal:
		return 2
	case CategoryRegional:
		return 1
	}
	return 0
}

// Article is the canonical cross-source news record produced by the pipeline
type Article struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`           // sanitized HTML
	Summary         string    `json:"summary"`           // plain-text excerpt
	ThumbnailURL    string    `json:"thumbnail_url"`     // empty when no image could be resolved
	DisplayLocation string    `json:"display_location"`  // place the story is attributed to
	Published       time.Time `json:"published_at"`
	SourceName      string    `json:"source_name"`
	Author          string    `json:"author"`
	Category        Category  `json:"category"`
	RelevanceScore  float64   `json:"relevance_score"`
	URL             string    `json:"url"` // canonical link, dedup key
	SourceType      string    `json:"source_type"`
}

// ArticleID derives a stable identifier from the article URL. Repeated fetches
// of the same story produce the same id.
func ArticleID(url string) string {
	id := base64.StdEncoding.EncodeToString([]byte(url))
	if len(id) > 32 {
		id = id[:32]
	}
	return id
}
