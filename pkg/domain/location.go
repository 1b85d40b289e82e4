package domain

import "strings"

// Location identifies the "home" point used for relevance scoring and source
// selection. Produced by geocoding/search outside this module, immutable once
// constructed.
type Location struct {
	City         string   `json:"city"`
	Region       string   `json:"region"`
	Country      string   `json:"country"`
	NearbyCities []string `json:"nearby_cities,omitempty"`
	Lat          float64  `json:"lat,omitempty"`
	Lon          float64  `json:"lon,omitempty"`
}

// Key returns the cache key for the location, one entry per city+region pair
func (l Location) Key() string {
	return strings.ToLower(strings.TrimSpace(l.City)) + "|" + strings.ToLower(strings.TrimSpace(l.Region))
}
