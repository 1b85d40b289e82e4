package domain

// FeedSource describes a single RSS/Atom endpoint. Static configuration data,
// not user data.
type FeedSource struct {
	Name    string `yaml:"name" json:"name"`
	FeedURL string `yaml:"feed_url" json:"feed_url"`
	BaseURL string `yaml:"base_url" json:"base_url"`
}
