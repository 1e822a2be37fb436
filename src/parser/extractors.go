package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jiaming2012/idb-pricer/src/models"
)

// Field extractors for IDB broker shorthand. Each one scans the whole order
// text for a single semantic field and is tolerant of surrounding noise, so
// the fields can appear in any order.

var (
	stockRefRegex = regexp.MustCompile(`(?i)\b(?:vs\.?|tt|t)\s*(\d+(?:\.\d+)?)`)
	deltaRegex    = regexp.MustCompile(`(?i)\b(?:on\s+a\s+)?(\d+(?:\.\d+)?)d([pc])?\b`)
	quantityX     = regexp.MustCompile(`(?i)\b(\d+)x\b`)
	quantityK     = regexp.MustCompile(`(?i)\b(\d+)k\b`)
	quantityAt    = regexp.MustCompile(`(?i)\b(\d+)\s*(?:@|at\b)`)
	bidRegex      = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:bid|b)\b`)
	offerRegex    = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*offer(?:ed)?\b`)
	atPriceRegex  = regexp.MustCompile(`(?i)(?:@|\bat\b)\s*(\d+(?:\.\d+)?)`)
	atSpanRegex   = regexp.MustCompile(`(?i)(?:\d+\s+)?(?:@|\bat\b)\s*\d+(?:\.\d+)?`)
	ratioRegex    = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)x(\d+(?:\.\d+)?)(?:x(\d+(?:\.\d+)?))?\b`)
	putOverRegex  = regexp.MustCompile(`(?i)\bput\s?over\b`)
	callOverRegex = regexp.MustCompile(`(?i)\bcall\s?over\b`)
	nxOverRegex   = regexp.MustCompile(`(?i)\b(\d+)\s*x\s*over\b`)
	overRegex     = regexp.MustCompile(`(?i)^\s*over\b`)
)

// ExtractStockRef finds a reference/tie price such as "vs250.32", "vs 262.54",
// "tt69.86" or "t 250.00".
func ExtractStockRef(text string) (float64, bool) {
	m := stockRefRegex.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	ref, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}

	return ref, true
}

// ExtractDelta finds a delta magnitude such as "30d", "3d", "on a 11d" or
// "30dp". The magnitude is always positive; the sign is resolved separately.
func ExtractDelta(text string) (float64, bool) {
	m := deltaRegex.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	delta, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}

	return delta, true
}

// ExtractDeltaDirection returns "put" for a trailing p suffix ("30dp"),
// "call" for c ("20dc"), and "" when the token carries no direction.
func ExtractDeltaDirection(text string) string {
	m := deltaRegex.FindStringSubmatch(text)
	if m == nil {
		return ""
	}

	switch strings.ToLower(m[2]) {
	case "p":
		return "put"
	case "c":
		return "call"
	}

	return ""
}

// ExtractQuantity finds the order's base lot size: "500x", "1k" (thousands)
// or the leading quantity of a "500 @ 2.55" price. The digits inside a ratio
// token ("1X2") or an "NX over" modifier never count as a quantity.
func ExtractQuantity(text string) (int, bool) {
	for _, loc := range quantityX.FindAllStringSubmatchIndex(text, -1) {
		if overRegex.MatchString(text[loc[1]:]) {
			continue
		}

		qty, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil {
			continue
		}

		return qty, true
	}

	if m := quantityK.FindStringSubmatch(text); m != nil {
		qty, err := strconv.Atoi(m[1])
		if err == nil {
			return qty * 1000, true
		}
	}

	if m := quantityAt.FindStringSubmatch(text); m != nil {
		qty, err := strconv.Atoi(m[1])
		if err == nil {
			return qty, true
		}
	}

	return 0, false
}

// ExtractPriceAndSide finds the broker's quoted price and which side of the
// screen it references: "20.50 bid", "2.4b", "5.00 offer", "@ 1.60",
// "500 @ 2.55" or "at 50.00".
func ExtractPriceAndSide(text string) (float64, models.QuoteSide, bool) {
	if m := bidRegex.FindStringSubmatch(text); m != nil {
		if price, err := strconv.ParseFloat(m[1], 64); err == nil {
			return price, models.QuoteSideBid, true
		}
	}

	if m := offerRegex.FindStringSubmatch(text); m != nil {
		if price, err := strconv.ParseFloat(m[1], 64); err == nil {
			return price, models.QuoteSideOffer, true
		}
	}

	if m := atPriceRegex.FindStringSubmatch(text); m != nil {
		if price, err := strconv.ParseFloat(m[1], 64); err == nil {
			return price, models.QuoteSideOffer, true
		}
	}

	return 0, "", false
}

// ExtractRatio finds a two- or three-part leg ratio such as "1X2" or
// "1x1.5x1". Returns nil when no ratio shorthand is present.
func ExtractRatio(text string) []float64 {
	m := ratioRegex.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	var ratios []float64
	for _, part := range m[1:] {
		if part == "" {
			continue
		}

		r, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil
		}

		ratios = append(ratios, r)
	}

	return ratios
}

// ExtractModifier recognizes trade-convention qualifiers: "putover" /
// "put over", "callover" / "call over", and "NX over" (returned as
// "<n>x_over"). Returns "" when no modifier is present.
func ExtractModifier(text string) string {
	if putOverRegex.MatchString(text) {
		return "putover"
	}

	if callOverRegex.MatchString(text) {
		return "callover"
	}

	if m := nxOverRegex.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%sx_over", m[1])
	}

	return ""
}
