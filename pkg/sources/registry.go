package sources

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ebosman/buurtkrant/pkg/domain"
)

//go:embed sources.yml
var defaultSources []byte

// Registry maps geographic regions and countries to feed endpoints. The table
// is static configuration data: a built-in default ships embedded, an external
// YAML file can replace it wholesale.
type Registry struct {
	HomeCountry string                         `yaml:"home_country"`
	National    []domain.FeedSource            `yaml:"national"`
	Regions     map[string][]domain.FeedSource `yaml:"regions"`
	Countries   map[string][]domain.FeedSource `yaml:"countries"`
}

// Load reads a source table from a YAML file. An empty path loads the
// embedded default table.
func Load(path string) (*Registry, error) {
	data := defaultSources
	if path != "" {
		fileData, err := os.ReadFile(path) //nolint:gosec // file path comes from config
		if err != nil {
			return nil, fmt.Errorf("read sources file: %w", err)
		}
		data = fileData
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}

	if reg.HomeCountry == "" {
		return nil, fmt.Errorf("sources table has no home_country")
	}
	if len(reg.National) == 0 && len(reg.Regions) == 0 {
		return nil, fmt.Errorf("sources table has no feeds for %s", reg.HomeCountry)
	}

	return &reg, nil
}

// SourcesFor resolves the source set for a location. Home-country locations
// get the region-specific list merged with the national list, foreign
// locations get the country's list matched exactly or by prefix. An unknown
// location yields an empty set, which the caller treats as zero articles
// rather than an error.
func (r *Registry) SourcesFor(loc domain.Location) []domain.FeedSource {
	country := strings.TrimSpace(loc.Country)
	if country == "" || strings.EqualFold(country, r.HomeCountry) {
		regional := r.regionList(loc.Region)
		out := make([]domain.FeedSource, 0, len(regional)+len(r.National))
		out = append(out, regional...)
		out = append(out, r.National...)
		return out
	}

	// exact match on the foreign country first
	for key, list := range r.Countries {
		if strings.EqualFold(key, country) {
			return append([]domain.FeedSource(nil), list...)
		}
	}
	// then prefix match in either direction, catches "België" vs "Belgie (Vlaanderen)"
	countryLower := strings.ToLower(country)
	for key, list := range r.Countries {
		keyLower := strings.ToLower(key)
		if strings.HasPrefix(countryLower, keyLower) || strings.HasPrefix(keyLower, countryLower) {
			return append([]domain.FeedSource(nil), list...)
		}
	}

	return nil
}

// IsNational reports whether a source name belongs to the national or
// international source lists. Used by the relevance engine to suppress
// national noise.
func (r *Registry) IsNational(sourceName string) bool {
	for _, src := range r.National {
		if strings.EqualFold(src.Name, sourceName) {
			return true
		}
	}
	for _, list := range r.Countries {
		for _, src := range list {
			if strings.EqualFold(src.Name, sourceName) {
				return true
			}
		}
	}
	return false
}

// regionList finds the region entry case-insensitively
func (r *Registry) regionList(region string) []domain.FeedSource {
	for key, list := range r.Regions {
		if strings.EqualFold(key, strings.TrimSpace(region)) {
			return list
		}
	}
	return nil
}
