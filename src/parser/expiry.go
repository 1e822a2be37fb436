package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var expiryRegex = regexp.MustCompile(`(?i)^([a-z]{3})(\d{2})?$`)

// expiryDay approximates the standard monthly expiry (3rd Friday falls in
// the 15-21 range). Exact OCC calendar math is deliberately not attempted.
const expiryDay = 16

// parseExpiryToken parses "Jun26" or a bare "jun". A year-less month maps to
// its next occurrence relative to now.
func parseExpiryToken(token string, now time.Time) (time.Time, bool) {
	m := expiryRegex.FindStringSubmatch(token)
	if m == nil {
		return time.Time{}, false
	}

	month, ok := months[strings.ToLower(m[1])]
	if !ok {
		return time.Time{}, false
	}

	var year int
	if m[2] != "" {
		yy, err := strconv.Atoi(m[2])
		if err != nil {
			return time.Time{}, false
		}
		year = 2000 + yy
	} else {
		year = now.Year()
		if month < now.Month() {
			year++
		}
	}

	return time.Date(year, month, expiryDay, 0, 0, 0, 0, time.UTC), true
}

// ParseExpiry parses an expiry token like "Jun26" into its approximate
// monthly expiry date, failing on unknown months.
func ParseExpiry(token string) (time.Time, error) {
	expiry, ok := parseExpiryToken(token, time.Now())
	if !ok {
		return time.Time{}, fmt.Errorf("ParseExpiry: cannot parse expiry: %s", token)
	}

	return expiry, nil
}
