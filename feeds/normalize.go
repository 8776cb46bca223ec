package feeds

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// homeIDRegexp captures the stable numeric identifier some sources
	// expose at the end of a listing URL (".../home/12345").
	homeIDRegexp = regexp.MustCompile(`/home/(\d+)$`)
	// numericRegexp strips everything but digits and decimal points from
	// price/area strings before parsing.
	numericRegexp = regexp.MustCompile(`[^0-9.]`)
)

// HomeIDFromURL extracts the numeric listing identifier from a URL path, or
// "" when the URL doesn't carry one.
func HomeIDFromURL(url string) string {
	match := homeIDRegexp.FindStringSubmatch(strings.TrimSpace(url))
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

// SlugKey builds a dedup key for sources that only expose free-form URLs:
// the final path segment prefixed with the source name, so keys from
// different sources can never collide.
func SlugKey(source, url string) string {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if url == "" {
		return ""
	}
	parts := strings.Split(url, "/")
	slug := parts[len(parts)-1]
	if slug == "" {
		return ""
	}
	return source + "_" + slug
}

// CityFromAddress derives a locality from a comma-separated address by
// taking the second-to-last segment. For addresses shaped
// "street, city, state, country" this yields the state abbreviation rather
// than the city. Kept as-is: downstream joins depend on matching the
// values the feeds have historically served. A single-segment address
// yields "".
func CityFromAddress(address string) string {
	parts := strings.Split(address, ",")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[len(parts)-2])
}

// ParsePrice strips non-numeric characters from a raw price string and
// rounds the remaining value half-up to a whole major currency unit.
// "$450,000.60" → 450001. Unparseable or negative input yields 0.
func ParsePrice(raw string) int64 {
	cleaned := numericRegexp.ReplaceAllString(raw, "")
	if cleaned == "" {
		return 0
	}
	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || val < 0 {
		return 0
	}
	return int64(math.Floor(val + 0.5))
}

// ParseArea parses an area string the same way as ParsePrice: strip
// non-numeric characters, round half-up.
func ParseArea(raw string) int {
	return int(ParsePrice(raw))
}

// TruncateDecimal parses a decimal string by cutting it off at the decimal
// point instead of rounding ("1234.99" → 1234). JamesEdition publishes
// price_usd and area_sqft with this precision semantic and it is preserved
// per source rather than unified.
func TruncateDecimal(raw string) int64 {
	cleaned := numericRegexp.ReplaceAllString(raw, "")
	whole, _, _ := strings.Cut(cleaned, ".")
	if whole == "" {
		return 0
	}
	val, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || val < 0 {
		return 0
	}
	return val
}
