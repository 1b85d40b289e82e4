// Package location normalizes raw geocoder output before it enters the
// aggregation pipeline. Geocoders return English province names and sometimes
// miss the province for smaller towns; the source registry and relevance
// engine key on the Dutch names.
package location

import (
	"strings"

	"github.com/ebosman/buurtkrant/pkg/domain"
)

// regionTranslations corrects English province names to the Dutch ones the
// source registry is keyed on
var regionTranslations = map[string]string{
	"South Holland": "Zuid-Holland",
	"North Holland": "Noord-Holland",
	"North Brabant": "Noord-Brabant",
	"Fryslân":       "Friesland",
}

// cityRegionOverrides resolves the province for towns the geocoder tends to
// place wrong or leave empty
var cityRegionOverrides = map[string]string{
	"zevenbergen":         "Noord-Brabant",
	"moerdijk":            "Noord-Brabant",
	"klundert":            "Noord-Brabant",
	"willemstad":          "Noord-Brabant",
	"standdaarbuiten":     "Noord-Brabant",
	"zevenbergschen hoek": "Noord-Brabant",
	"langeweg":            "Noord-Brabant",
}

// countryTranslations maps common English country names to the names used in
// the source registry
var countryTranslations = map[string]string{
	"Netherlands":     "Nederland",
	"The Netherlands": "Nederland",
	"Holland":         "Nederland",
	"Belgium":         "België",
	"Germany":         "Deutschland",
}

// NormalizeRegion translates and corrects a region name. A city-specific
// override wins over the translation table.
func NormalizeRegion(region, city string) string {
	if override, ok := cityRegionOverrides[strings.ToLower(strings.TrimSpace(city))]; ok {
		return override
	}
	if translated, ok := regionTranslations[strings.TrimSpace(region)]; ok {
		return translated
	}
	return strings.TrimSpace(region)
}

// NormalizeCountry translates a country name to registry form
func NormalizeCountry(country string) string {
	if translated, ok := countryTranslations[strings.TrimSpace(country)]; ok {
		return translated
	}
	return strings.TrimSpace(country)
}

// Normalize returns a copy of the location with region and country names
// corrected
func Normalize(loc domain.Location) domain.Location {
	loc.City = strings.TrimSpace(loc.City)
	loc.Region = NormalizeRegion(loc.Region, loc.City)
	loc.Country = NormalizeCountry(loc.Country)
	return loc
}
