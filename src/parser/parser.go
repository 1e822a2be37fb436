package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jiaming2012/idb-pricer/src/models"
)

var (
	tickerRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z.]*$`)
	strikeRegex = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)([pc])?$`)
)

// maskRegexes are blanked out of the order text before the anchor scan, so
// digits belonging to the tie price, delta, ratio, broker price or lot size
// are never mistaken for strikes. Modifier spans go before the ratio and
// quantity patterns ("1X over" must not surface a 1x quantity).
var maskRegexes = []*regexp.Regexp{
	stockRefRegex,
	deltaRegex,
	putOverRegex,
	callOverRegex,
	nxOverRegex,
	ratioRegex,
	bidRegex,
	offerRegex,
	atSpanRegex,
	quantityX,
	quantityK,
}

func maskExtractorSpans(text string) string {
	masked := text
	for _, re := range maskRegexes {
		masked = re.ReplaceAllStringFunc(masked, func(m string) string {
			return strings.Repeat(" ", len(m))
		})
	}

	return masked
}

type anchorScan struct {
	expiries    []indexedExpiry
	strikes     []indexedStrike
	defaultType models.OptionType
	live        bool
}

type indexedExpiry struct {
	pos    int
	expiry time.Time
}

type indexedStrike struct {
	pos        int
	strike     float64
	optionType models.OptionType
}

// scanAnchors walks the masked token stream collecting expiry months, strike
// tokens (optionally P/C suffixed, optionally slash-joined) and the
// text-level default option type. Unknown tokens are noise and ignored.
func scanAnchors(tokens []string, now time.Time) anchorScan {
	var scan anchorScan

	for i, token := range tokens {
		token = strings.Trim(token, ".,;()")
		if token == "" {
			continue
		}

		if expiry, ok := parseExpiryToken(token, now); ok {
			scan.expiries = append(scan.expiries, indexedExpiry{pos: i, expiry: expiry})
			continue
		}

		if parsed, ok := parseStrikeToken(token); ok {
			for _, s := range parsed {
				scan.strikes = append(scan.strikes, indexedStrike{pos: i, strike: s.strike, optionType: s.optionType})
			}
			continue
		}

		switch strings.ToLower(token) {
		case "call", "calls", "c":
			if scan.defaultType == "" {
				scan.defaultType = models.OptionTypeCall
			}
		case "put", "puts", "p":
			if scan.defaultType == "" {
				scan.defaultType = models.OptionTypePut
			}
		case "live":
			scan.live = true
		}
	}

	return scan
}

type scannedStrike struct {
	strike     float64
	optionType models.OptionType
}

// parseStrikeToken parses "300", "45P", "130p" or slash lists like
// "240/220" and "150P/160C".
func parseStrikeToken(token string) ([]scannedStrike, bool) {
	var out []scannedStrike
	for _, part := range strings.Split(token, "/") {
		m := strikeRegex.FindStringSubmatch(part)
		if m == nil {
			return nil, false
		}

		strike, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, false
		}

		s := scannedStrike{strike: strike}
		switch strings.ToLower(m[2]) {
		case "p":
			s.optionType = models.OptionTypePut
		case "c":
			s.optionType = models.OptionTypeCall
		}

		out = append(out, s)
	}

	return out, len(out) > 0
}

// ParseOrder parses IDB broker shorthand, e.g.
//
//	"AAPL Jun26 240/220 PS 1X2 vs250 15d 500x @ 3.50 1X over"
//
// into a structured order. It fails with a trader-readable error on
// malformed input and never returns a partial order.
func ParseOrder(text string) (models.ParsedOrder, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return models.ParsedOrder{}, fmt.Errorf("ParseOrder: order text is empty")
	}

	stockRef, hasRef := ExtractStockRef(trimmed)
	delta, _ := ExtractDelta(trimmed)
	direction := ExtractDeltaDirection(trimmed)
	quantity, hasQty := ExtractQuantity(trimmed)
	price, quoteSide, hasPrice := ExtractPriceAndSide(trimmed)
	ratios := ExtractRatio(trimmed)
	modifier := ExtractModifier(trimmed)
	tag := ExtractStructureType(trimmed)

	tokens := strings.Fields(maskExtractorSpans(trimmed))
	if len(tokens) == 0 || !tickerRegex.MatchString(tokens[0]) {
		return models.ParsedOrder{}, fmt.Errorf("ParseOrder: cannot locate underlying ticker in %q", trimmed)
	}
	underlying := strings.ToUpper(tokens[0])

	scan := scanAnchors(tokens[1:], time.Now())

	if len(scan.expiries) == 0 {
		return models.ParsedOrder{}, fmt.Errorf("ParseOrder: cannot locate expiry in %q", trimmed)
	}

	if len(scan.strikes) == 0 {
		return models.ParsedOrder{}, fmt.Errorf("ParseOrder: no strikes found in %q", trimmed)
	}

	if scan.live && hasRef {
		return models.ParsedOrder{}, fmt.Errorf("ParseOrder: order is marked live but also tied vs %.2f", stockRef)
	}

	if scan.live {
		// A live order works with no fixed tie; there is nothing to
		// delta-adjust against.
		stockRef = 0
		delta = 0
	}

	strikes := assignExpiries(scan)

	if tag == "" {
		switch len(strikes) {
		case 1:
			tag = "single"
		case 2:
			tag = "spread"
		case 3:
			tag = "butterfly"
		default:
			return models.ParsedOrder{}, fmt.Errorf("ParseOrder: cannot determine structure type for %d strikes", len(strikes))
		}
	}

	defaultType := scan.defaultType
	if tag == "butterfly" && defaultType == "" && !anyExplicitType(strikes) {
		// A bare "fly" with untyped strikes prices as a call fly.
		defaultType = models.OptionTypeCall
	}

	if !hasQty {
		quantity = 1
	}

	legs, err := buildLegs(tag, buildParams{
		underlying:  underlying,
		strikes:     strikes,
		defaultType: defaultType,
		quantity:    quantity,
		ratios:      ratios,
	})
	if err != nil {
		return models.ParsedOrder{}, fmt.Errorf("ParseOrder: %v", err)
	}

	name := displayName(tag, legs)

	if !hasPrice {
		price = 0
		quoteSide = models.QuoteSideBid
	}

	return models.ParsedOrder{
		Underlying: underlying,
		Structure: models.OptionStructure{
			Name:        name,
			Legs:        legs,
			Description: fmt.Sprintf("%s %s %dx", underlying, name, quantity),
		},
		StockRef:  stockRef,
		Delta:     signDelta(delta, direction, modifier, tag, legs),
		Price:     price,
		QuoteSide: quoteSide,
		Quantity:  quantity,
		RawText:   text,
	}, nil
}

// assignExpiries ties each strike to the nearest preceding expiry token, so
// calendar forms like "feb 257 apr 280" pair correctly; strikes stated
// before any month ("QCOM 85P Jan27") fall back to the first expiry.
func assignExpiries(scan anchorScan) []strikeToken {
	var out []strikeToken
	for _, s := range scan.strikes {
		expiry := scan.expiries[0].expiry
		for _, e := range scan.expiries {
			if e.pos < s.pos {
				expiry = e.expiry
			}
		}

		out = append(out, strikeToken{Strike: s.strike, OptionType: s.optionType, Expiry: expiry})
	}

	return out
}

func anyExplicitType(strikes []strikeToken) bool {
	for _, s := range strikes {
		if s.OptionType != "" {
			return true
		}
	}

	return false
}

func displayName(tag string, legs []models.OptionLeg) string {
	switch tag {
	case "single":
		return string(legs[0].OptionType)
	case "spread":
		return string(legs[0].OptionType) + " spread"
	}

	return structureDisplayName(tag)
}

// signDelta resolves the delta sign: an explicit dp/dc suffix wins, then a
// putover/callover modifier, then the structure's own put/call bias.
func signDelta(delta float64, direction, modifier, tag string, legs []models.OptionLeg) float64 {
	if delta == 0 {
		return 0
	}

	switch direction {
	case "put":
		return -delta
	case "call":
		return delta
	}

	switch modifier {
	case "putover":
		return -delta
	case "callover":
		return delta
	}

	if putDominant(tag, legs) {
		return -delta
	}

	return delta
}

func putDominant(tag string, legs []models.OptionLeg) bool {
	switch tag {
	case "put_spread", "put_fly", "put_condor", "put_stupid":
		return true
	case "single", "spread", "butterfly":
		return legs[0].OptionType == models.OptionTypePut
	}

	return false
}
