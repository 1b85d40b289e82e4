package relevance

import (
	"sort"
	"strings"
	"time"

	"github.com/ebosman/buurtkrant/pkg/domain"
)

// urgencyKeywords upgrade an already local/regional article to the important
// tier
var urgencyKeywords = []string{
	"breaking", "urgent", "belangrijk", "crisis", "noodgeval", "alert", "alarm", "spoed",
}

// Config holds scoring weights and the relevance threshold. The defaults are
// empirically tuned, treat them as knobs rather than meaningful constants:
// the only contract is that higher means more relevant.
type Config struct {
	LocalBoost     float64       `yaml:"local_boost" json:"local_boost" jsonschema:"default=10,description=Score increment for a mention of the user's own or nearby city"`
	TitleBoost     float64       `yaml:"title_boost" json:"title_boost" jsonschema:"default=5,description=Extra increment when the local match is in the title"`
	RegionalBoost  float64       `yaml:"regional_boost" json:"regional_boost" jsonschema:"default=5,description=Score increment for a regional match"`
	ImportantBoost float64       `yaml:"important_boost" json:"important_boost" jsonschema:"default=8,description=Extra increment for urgency keywords on a matched article"`
	RecencyBoost   float64       `yaml:"recency_boost" json:"recency_boost" jsonschema:"default=3,description=Score increment for articles inside the recency window"`
	StaleFactor    float64       `yaml:"stale_factor" json:"stale_factor" jsonschema:"default=0.5,description=Score multiplier for articles outside the recency window"`
	SourceBonus    float64       `yaml:"source_bonus" json:"source_bonus" jsonschema:"default=2,description=Fixed bonus for known regional sources"`
	Threshold      float64       `yaml:"threshold" json:"threshold" jsonschema:"default=0,description=Articles scoring at or below this are dropped"`
	RecencyWindow  time.Duration `yaml:"recency_window" json:"recency_window" jsonschema:"default=24h,description=Age under which the recency boost applies"`
}

// setDefaults fills zero values with the tuned defaults
func (c *Config) setDefaults() {
	if c.LocalBoost == 0 {
		c.LocalBoost = 10
	}
	if c.TitleBoost == 0 {
		c.TitleBoost = 5
	}
	if c.RegionalBoost == 0 {
		c.RegionalBoost = 5
	}
	if c.ImportantBoost == 0 {
		c.ImportantBoost = 8
	}
	if c.RecencyBoost == 0 {
		c.RecencyBoost = 3
	}
	if c.StaleFactor == 0 {
		c.StaleFactor = 0.5
	}
	if c.RecencyWindow == 0 {
		c.RecencyWindow = 24 * time.Hour
	}
}

// NationalChecker reports whether a source belongs to the national or
// international lists. The source registry satisfies this.
type NationalChecker interface {
	IsNational(sourceName string) bool
}

// Engine scores articles against a location, attributes a display location,
// assigns a category and filters out noise.
type Engine struct {
	cfg      Config
	national NationalChecker
	now      func() time.Time
}

// NewEngine creates a relevance engine with the given weights
func NewEngine(cfg Config, national NationalChecker) *Engine {
	cfg.setDefaults()
	return &Engine{cfg: cfg, national: national, now: time.Now}
}

// Process scores and categorizes articles for the location, drops those at or
// below the threshold and sorts the survivors by category priority, publish
// date and score. Identity fields are never touched.
func (e *Engine) Process(articles []domain.Article, loc domain.Location) []domain.Article {
	out := make([]domain.Article, 0, len(articles))
	for _, article := range articles {
		e.score(&article, loc)
		if article.RelevanceScore <= e.cfg.Threshold {
			continue
		}
		out = append(out, article)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if pi, pj := out[i].Category.Priority(), out[j].Category.Priority(); pi != pj {
			return pi > pj
		}
		if !out[i].Published.Equal(out[j].Published) {
			return out[i].Published.After(out[j].Published)
		}
		return out[i].RelevanceScore > out[j].RelevanceScore
	})

	return out
}

// score mutates category, relevance score and display location of one article
func (e *Engine) score(article *domain.Article, loc domain.Location) {
	title := strings.ToLower(article.Title)
	text := title + " " + strings.ToLower(article.Summary) + " " + strings.ToLower(article.Content)

	city := strings.ToLower(strings.TrimSpace(loc.City))
	region := strings.ToLower(strings.TrimSpace(loc.Region))

	// display location: own city, then nearby cities, then the home-country
	// gazetteer, then international places, defaulting to the user's city
	localTerm := ""
	display := ""
	if city != "" && strings.Contains(text, city) {
		localTerm = city
		display = loc.City
	} else {
		for _, nearby := range loc.NearbyCities {
			if n := strings.ToLower(strings.TrimSpace(nearby)); n != "" && strings.Contains(text, n) {
				localTerm = n
				display = nearby
				break
			}
		}
	}
	gazetteerHit := ""
	if display == "" {
		gazetteerHit = findPlace(text, dutchCities)
		display = gazetteerHit
	}
	if display == "" {
		display = findPlace(text, internationalPlaces)
	}
	if display == "" {
		display = loc.City
	}
	article.DisplayLocation = display

	localMatch := localTerm != ""
	regionMatch := region != "" && strings.Contains(text, region)
	sourceRegionMatch := region != "" && strings.Contains(strings.ToLower(article.SourceName), region)

	isNational := e.national != nil && e.national.IsNational(article.SourceName)

	// national noise must not swamp local relevance: a national-source story
	// that mentions none of the user's local terms is zeroed out
	if isNational && !localMatch && !regionMatch {
		article.Category = domain.CategoryRegional
		article.RelevanceScore = 0
		return
	}

	score := 0.0
	category := domain.CategoryRegional

	switch {
	case localMatch:
		score += e.cfg.LocalBoost
		if strings.Contains(title, localTerm) {
			score += e.cfg.TitleBoost
		}
		category = domain.CategoryLocal
	case regionMatch || gazetteerHit != "" || sourceRegionMatch:
		score += e.cfg.RegionalBoost
	}

	// known regional sources get a small fixed bonus
	if !isNational && article.SourceName != "" {
		score += e.cfg.SourceBonus
	}

	// urgency keywords upgrade a matched article to important
	if (localMatch || regionMatch || sourceRegionMatch || gazetteerHit != "") && containsAny(text, urgencyKeywords) {
		category = domain.CategoryImportant
		score += e.cfg.ImportantBoost
	}

	// recency boost inside the window, discount (not zeroing) outside it
	if age := e.now().Sub(article.Published); age < e.cfg.RecencyWindow {
		score += e.cfg.RecencyBoost
	} else {
		score *= e.cfg.StaleFactor
	}

	if score < 0 {
		score = 0
	}

	article.Category = category
	article.RelevanceScore = score
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
