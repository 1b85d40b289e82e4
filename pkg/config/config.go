package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ebosman/buurtkrant/pkg/relevance"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Fetch struct {
		Timeout    time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=10s,description=Timeout per feed fetch"`
		Attempts   int           `yaml:"attempts" json:"attempts" jsonschema:"default=2,description=Fetch attempts per feed with backoff"`
		MaxWorkers int           `yaml:"max_workers" json:"max_workers" jsonschema:"default=5,description=Maximum concurrent feed fetches"`
		ProxyURL   string        `yaml:"proxy_url" json:"proxy_url" jsonschema:"description=CORS-style proxy prefix the target URL is appended to, empty for direct fetches"`
		UserAgent  string        `yaml:"user_agent" json:"user_agent" jsonschema:"description=User agent for feed requests, random browser-like when empty"`
	} `yaml:"fetch" json:"fetch" jsonschema:"description=Feed fetching configuration"`

	Thumbnail struct {
		Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=5s,description=Timeout for article page fetches during thumbnail resolution"`
		MinPixels int           `yaml:"min_pixels" json:"min_pixels" jsonschema:"default=50,description=Minimum declared width and height for an inline image to qualify"`
	} `yaml:"thumbnail" json:"thumbnail" jsonschema:"description=Thumbnail resolution configuration"`

	Scoring relevance.Config `yaml:"scoring" json:"scoring" jsonschema:"description=Relevance scoring weights"`

	Cache struct {
		Backend string        `yaml:"backend" json:"backend" jsonschema:"default=memory,enum=memory,enum=sqlite,description=Cache store backend"`
		DSN     string        `yaml:"dsn" json:"dsn" jsonschema:"default=file:buurtkrant-cache.db?cache=shared&mode=rwc,description=SQLite connection string for the sqlite backend"`
		TTL     time.Duration `yaml:"ttl" json:"ttl" jsonschema:"default=5m,description=How long an aggregated article list stays fresh"`
	} `yaml:"cache" json:"cache" jsonschema:"description=Article cache configuration"`

	Sources struct {
		File string `yaml:"file" json:"file" jsonschema:"description=Path to a sources YAML file, embedded defaults when empty"`
	} `yaml:"sources" json:"sources" jsonschema:"description=Feed source registry configuration"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.setDefaults()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

// Default returns a configuration with all defaults applied, used when no
// config file is given
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}

	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = 10 * time.Second
	}
	if c.Fetch.Attempts == 0 {
		c.Fetch.Attempts = 2
	}
	if c.Fetch.MaxWorkers == 0 {
		c.Fetch.MaxWorkers = 5
	}

	if c.Thumbnail.Timeout == 0 {
		c.Thumbnail.Timeout = 5 * time.Second
	}
	if c.Thumbnail.MinPixels == 0 {
		c.Thumbnail.MinPixels = 50
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.DSN == "" {
		c.Cache.DSN = "file:buurtkrant-cache.db?cache=shared&mode=rwc"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}

	if cfg.Fetch.Timeout < time.Second {
		return fmt.Errorf("fetch timeout must be at least 1 second")
	}
	if cfg.Fetch.Attempts < 1 {
		return fmt.Errorf("fetch attempts must be at least 1")
	}
	if cfg.Fetch.MaxWorkers < 1 {
		return fmt.Errorf("fetch max_workers must be at least 1")
	}
	if cfg.Fetch.ProxyURL != "" {
		if _, err := url.Parse(cfg.Fetch.ProxyURL); err != nil {
			return fmt.Errorf("fetch proxy_url is not a valid URL: %w", err)
		}
	}

	if cfg.Thumbnail.MinPixels < 0 {
		return fmt.Errorf("thumbnail min_pixels must be non-negative")
	}

	if cfg.Scoring.StaleFactor < 0 || cfg.Scoring.StaleFactor > 1 {
		return fmt.Errorf("scoring stale_factor must be between 0 and 1")
	}
	if cfg.Scoring.Threshold < 0 {
		return fmt.Errorf("scoring threshold must be non-negative")
	}

	if cfg.Cache.Backend != "memory" && cfg.Cache.Backend != "sqlite" {
		return fmt.Errorf("cache backend must be memory or sqlite, got %q", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL < time.Second {
		return fmt.Errorf("cache ttl must be at least 1 second")
	}

	return nil
}
