package builder

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Static classification tables. Unrecognized categories fall back to an
// explicit default, never an error.

func marketSeason(month time.Month) string {
	switch month {
	case time.January:
		return "Winter/Post-Holiday"
	case time.February:
		return "Winter/Valentine"
	case time.March:
		return "Spring"
	case time.April:
		return "Spring/Easter"
	case time.May:
		return "Spring/Mother Day"
	case time.June, time.July:
		return "Summer"
	case time.August:
		return "Back-to-School"
	case time.September, time.October:
		return "Fall/Halloween"
	case time.November, time.December:
		return "Holiday Season"
	default:
		return "Unknown"
	}
}

func sellingSeason(month time.Month) string {
	switch month {
	case time.November, time.December, time.January:
		return "Holiday"
	case time.August, time.September:
		return "Back-to-School"
	case time.April, time.May:
		return "Spring"
	case time.June, time.July:
		return "Summer"
	default:
		return "Regular"
	}
}

func isPeakSeason(month time.Month) bool {
	switch month {
	case time.November, time.December, time.January, time.February:
		return true
	default:
		return false
	}
}

var continentByCountry = map[string]string{
	"United States":  "North America",
	"Canada":         "North America",
	"Mexico":         "North America",
	"United Kingdom": "Europe",
	"Germany":        "Europe",
	"France":         "Europe",
	"Australia":      "Oceania",
	"Japan":          "Asia",
}

var regionByCountry = map[string]string{
	"United States":  "North America",
	"Canada":         "North America",
	"United Kingdom": "Western Europe",
	"Germany":        "Western Europe",
	"Australia":      "Asia Pacific",
}

var currencyByCountry = map[string]string{
	"United States":  "USD",
	"Canada":         "CAD",
	"United Kingdom": "GBP",
	"Germany":        "EUR",
	"France":         "EUR",
	"Australia":      "AUD",
	"Japan":          "JPY",
}

var timezoneByCountry = map[string]string{
	"United States":  "America/New_York",
	"Canada":         "America/Toronto",
	"United Kingdom": "Europe/London",
	"Germany":        "Europe/Berlin",
	"Australia":      "Australia/Sydney",
}

func continentOf(country string) string {
	if c, ok := continentByCountry[country]; ok {
		return c
	}
	return "Unknown"
}

func regionOf(country string) string {
	if r, ok := regionByCountry[country]; ok {
		return r
	}
	return "Other"
}

func marketOf(country string) string {
	switch country {
	case "United States":
		return "US"
	case "United Kingdom", "Germany", "France":
		return "EU"
	default:
		return "International"
	}
}

func currencyOf(country string) string {
	if c, ok := currencyByCountry[country]; ok {
		return c
	}
	return "USD"
}

func timezoneOf(country string) string {
	if tz, ok := timezoneByCountry[country]; ok {
		return tz
	}
	return "UTC"
}

func shippingZoneOf(country string) string {
	if country == "United States" {
		return "Domestic"
	}
	return "International"
}

// LocationFingerprint is the geography business key: a content-only hash of
// the country|state|city triple. NFC-normalized so composed and decomposed
// spellings of the same place collapse to one key.
func LocationFingerprint(country, state, city string) string {
	raw := norm.NFC.String(country + "|" + state + "|" + city)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:16]
}
