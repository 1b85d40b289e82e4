package relevance

import "strings"

// dutchCities is the home-country gazetteer used for display-location
// attribution and regional matching. Ordered by population so the most likely
// attribution wins when an article names several places.
var dutchCities = []string{
	"Amsterdam", "Rotterdam", "Den Haag", "Utrecht", "Eindhoven",
	"Groningen", "Tilburg", "Almere", "Breda", "Nijmegen",
	"Apeldoorn", "Arnhem", "Haarlem", "Enschede", "Amersfoort",
	"Zaanstad", "Haarlemmermeer", "Den Bosch", "'s-Hertogenbosch", "Zwolle",
	"Leiden", "Zoetermeer", "Maastricht", "Dordrecht", "Ede",
	"Leeuwarden", "Emmen", "Venlo", "Delft", "Deventer",
	"Alkmaar", "Helmond", "Heerlen", "Hilversum", "Amstelveen",
	"Roosendaal", "Oss", "Schiedam", "Lelystad", "Middelburg",
	"Assen", "Bergen op Zoom", "Zevenbergen", "Moerdijk",
}

// internationalPlaces covers foreign locations that show up in national and
// cross-border feeds
var internationalPlaces = []string{
	"Brussel", "Antwerpen", "Gent", "Berlijn", "Keulen", "Düsseldorf",
	"Parijs", "Londen", "Madrid", "Rome", "Wenen", "Warschau",
	"Kopenhagen", "Stockholm", "Oslo", "Kyiv", "Moskou",
	"Washington", "New York", "Peking", "Tokio",
}

// findPlace returns the first place name mentioned in the lowercased text,
// empty when none match
func findPlace(lowerText string, places []string) string {
	for _, place := range places {
		if strings.Contains(lowerText, strings.ToLower(place)) {
			return place
		}
	}
	return ""
}
