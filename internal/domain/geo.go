package domain

import "strings"

// CountryAliases maps folded country answers to their canonical name.
// Keys are lower case and trimmed; unmapped answers are title-cased as is.
var CountryAliases = map[string]string{
	// United States
	"united states":            "United States",
	"united states of america": "United States",
	"united state":             "United States",
	"unites states":            "United States",
	"united stated":            "United States",
	"united sates":             "United States",
	"united sttes":             "United States",
	"the united states":        "United States",
	"america":                  "United States",
	"us":                       "United States",
	"u.s.":                     "United States",
	"u.s":                      "United States",
	"u. s.":                    "United States",
	"usa":                      "United States",
	"u.s.a.":                   "United States",
	"u.s.a":                    "United States",
	"🇺🇸":                       "United States",

	// United Kingdom
	"uk":             "United Kingdom",
	"u.k.":           "United Kingdom",
	"united kingdom": "United Kingdom",
	"england":        "United Kingdom",
	"great britain":  "United Kingdom",

	"canada":               "Canada",
	"australia":            "Australia",
	"germany":              "Germany",
	"the netherlands":      "Netherlands",
	"ireland":              "Ireland",
	"new zealand":          "New Zealand",
	"nz":                   "New Zealand",
	"remote (philippines)": "Philippines",
}

// CityAliases maps folded city answers to their canonical name.
var CityAliases = map[string]string{
	"nyc":           "New York",
	"new york city": "New York",

	"washington dc":  "Washington, DC",
	"washington, dc": "Washington, DC",
	"dc":             "Washington, DC",
	"d.c.":           "Washington, DC",
	"washington":     "Washington, DC",

	"sf":       "San Francisco",
	"s.f.":     "San Francisco",
	"bay area": "San Francisco",

	"la":   "Los Angeles",
	"l.a.": "Los Angeles",

	"saint louis": "St. Louis",
	"st louis":    "St. Louis",

	"st. paul": "Saint Paul",
}

// NonGeographicCities are city answers that name no place.
var NonGeographicCities = map[string]bool{
	"remote": true,
	"nan":    true,
}

// acronymMaxLen is the longest all-caps city answer kept verbatim.
const acronymMaxLen = 4

// NormalizeCountry maps a country answer to its canonical, title-cased name.
func NormalizeCountry(raw string) string {
	key := lookupKey(raw)
	if canonical, ok := CountryAliases[key]; ok {
		return titleCase(canonical)
	}
	return titleCase(key)
}

// NormalizeCity maps a city answer to its canonical name. It reports false
// when the answer names no place ("remote").
func NormalizeCity(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	key := lookupKey(raw)
	if NonGeographicCities[key] {
		return "", false
	}

	var city string
	switch canonical, ok := CityAliases[key]; {
	case ok:
		city = canonical
	case isAllUpper(raw) && runeLen(raw) <= acronymMaxLen:
		city = raw
	default:
		city = titleCase(key)
	}
	return strings.ReplaceAll(city, "Washington, Dc", "Washington, DC"), true
}

// NormalizeCountryValue applies NormalizeCountry to a table cell. Null stays null.
func NormalizeCountryValue(v Value) Value {
	if v.IsNull() {
		return v
	}
	return String(NormalizeCountry(v.Text()))
}

// NormalizeCityValue applies NormalizeCity to a table cell. Null stays null.
func NormalizeCityValue(v Value) Value {
	if v.IsNull() {
		return v
	}
	city, ok := NormalizeCity(v.Text())
	if !ok {
		return Null()
	}
	return String(city)
}
