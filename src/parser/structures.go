package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jiaming2012/idb-pricer/src/models"
)

// Canonical structure tags. Multi-word phrases are checked before the
// abbreviation table so "put spread collar" never resolves as "put spread".
var structurePhrases = []struct {
	phrase string
	tag    string
}{
	{"call spread collar", "call_spread_collar"},
	{"put spread collar", "put_spread_collar"},
	{"iron butterfly", "iron_butterfly"},
	{"iron condor", "iron_condor"},
	{"risk reversal", "risk_reversal"},
	{"put stupid", "put_stupid"},
	{"call stupid", "call_stupid"},
	{"put spread", "put_spread"},
	{"call spread", "call_spread"},
	{"put fly", "put_fly"},
	{"call fly", "call_fly"},
	{"put condor", "put_condor"},
	{"call condor", "call_condor"},
}

var structureAbbrevs = map[string]string{
	"ps":        "put_spread",
	"cs":        "call_spread",
	"rr":        "risk_reversal",
	"risky":     "risk_reversal",
	"straddle":  "straddle",
	"strangle":  "strangle",
	"fly":       "butterfly",
	"bf":        "butterfly",
	"butterfly": "butterfly",
	"pf":        "put_fly",
	"cf":        "call_fly",
	"if":        "iron_butterfly",
	"ibf":       "iron_butterfly",
	"ic":        "iron_condor",
	"pc":        "put_condor",
	"cc":        "call_condor",
	"csc":       "call_spread_collar",
	"psc":       "put_spread_collar",
	"collar":    "collar",
	"spread":    "spread",
}

var tokenSplitRegex = regexp.MustCompile(`\s+`)

// ExtractStructureType maps structure keywords and abbreviations
// (case-insensitive) to a canonical underscore tag, e.g. "PS" ->
// "put_spread". Returns "" when the text names no structure.
func ExtractStructureType(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = tokenSplitRegex.ReplaceAllString(normalized, " ")

	for _, p := range structurePhrases {
		if strings.Contains(normalized, p.phrase) {
			return p.tag
		}
	}

	for _, token := range strings.Fields(normalized) {
		token = strings.Trim(token, ".,;")
		if tag, ok := structureAbbrevs[token]; ok {
			return tag
		}
	}

	return ""
}

// structureDisplayName converts a canonical tag to its blotter display name.
func structureDisplayName(tag string) string {
	return strings.ReplaceAll(tag, "_", " ")
}

// strikeToken is one strike anchor from the order text, with its optional
// explicit type suffix ("240P") and the expiry it is tied to.
type strikeToken struct {
	Strike     float64
	OptionType models.OptionType // "" when no explicit suffix
	Expiry     time.Time
}

// buildParams carries everything a structure recipe needs to lay out legs.
type buildParams struct {
	underlying  string
	strikes     []strikeToken
	defaultType models.OptionType // "" when the text names none
	quantity    int
	ratios      []float64 // nil when no ratio shorthand was given
}

type buildFunc func(p buildParams) ([]models.OptionLeg, error)

// structureRecipes dispatches a canonical tag to its leg-building recipe.
// Adding a structure is a local, additive change here plus an entry in the
// abbreviation table.
var structureRecipes = map[string]buildFunc{
	"single":             buildSingle,
	"spread":             makeSpreadBuilder("spread", ""),
	"put_spread":         makeSpreadBuilder("put spread", models.OptionTypePut),
	"call_spread":        makeSpreadBuilder("call spread", models.OptionTypeCall),
	"straddle":           buildStraddle,
	"strangle":           buildStrangle,
	"butterfly":          makeFlyBuilder("butterfly", ""),
	"put_fly":            makeFlyBuilder("put fly", models.OptionTypePut),
	"call_fly":           makeFlyBuilder("call fly", models.OptionTypeCall),
	"risk_reversal":      buildRiskReversal,
	"collar":             buildCollar,
	"call_spread_collar": buildCallSpreadCollar,
	"put_spread_collar":  buildPutSpreadCollar,
	"iron_butterfly":     buildIronButterfly,
	"iron_condor":        buildIronCondor,
	"put_condor":         makeCondorBuilder("put condor", models.OptionTypePut),
	"call_condor":        makeCondorBuilder("call condor", models.OptionTypeCall),
	"put_stupid":         makeStupidBuilder("put stupid", models.OptionTypePut),
	"call_stupid":        makeStupidBuilder("call stupid", models.OptionTypeCall),
}

// buildLegs runs the recipe for a canonical structure tag.
func buildLegs(tag string, p buildParams) ([]models.OptionLeg, error) {
	recipe, ok := structureRecipes[tag]
	if !ok {
		return nil, fmt.Errorf("buildLegs: unknown structure type: %s", tag)
	}

	return recipe(p)
}

func (p buildParams) ratioAt(i int, fallback float64) float64 {
	if i < len(p.ratios) {
		return p.ratios[i]
	}

	return fallback
}

func (p buildParams) leg(s strikeToken, optionType models.OptionType, side models.Side, ratio float64) models.OptionLeg {
	return models.OptionLeg{
		Underlying: p.underlying,
		Expiry:     s.Expiry,
		Strike:     s.Strike,
		OptionType: optionType,
		Side:       side,
		Quantity:   float64(p.quantity) * ratio,
		Ratio:      ratio,
	}
}

func (p buildParams) requireStrikes(name string, n int) error {
	if len(p.strikes) != n {
		return fmt.Errorf("%s requires exactly %d strikes, got %d", name, n, len(p.strikes))
	}

	return nil
}

// resolveType picks a leg's option type: explicit strike suffix first, then
// the structure-implied or text-level default.
func resolveType(explicit, implied, fallback models.OptionType) (models.OptionType, error) {
	if explicit != "" {
		return explicit, nil
	}

	if implied != "" {
		return implied, nil
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("cannot determine option type (call or put)")
}

func sortedByStrike(strikes []strikeToken) []strikeToken {
	out := make([]strikeToken, len(strikes))
	copy(out, strikes)
	sort.Slice(out, func(i, j int) bool { return out[i].Strike < out[j].Strike })

	return out
}

func buildSingle(p buildParams) ([]models.OptionLeg, error) {
	if err := p.requireStrikes("single option", 1); err != nil {
		return nil, err
	}

	optionType, err := resolveType(p.strikes[0].OptionType, "", p.defaultType)
	if err != nil {
		return nil, err
	}

	return []models.OptionLeg{
		p.leg(p.strikes[0], optionType, models.SideBuy, p.ratioAt(0, 1)),
	}, nil
}

// makeSpreadBuilder returns a two-leg spread recipe: buy the first strike in
// textual order, sell the second. Leg types follow the structure's implied
// type unless a strike carries an explicit suffix.
func makeSpreadBuilder(name string, implied models.OptionType) buildFunc {
	return func(p buildParams) ([]models.OptionLeg, error) {
		if err := p.requireStrikes(name, 2); err != nil {
			return nil, err
		}

		type1, err := resolveType(p.strikes[0].OptionType, implied, p.defaultType)
		if err != nil {
			return nil, err
		}

		type2, err := resolveType(p.strikes[1].OptionType, implied, p.defaultType)
		if err != nil {
			return nil, err
		}

		return []models.OptionLeg{
			p.leg(p.strikes[0], type1, models.SideBuy, p.ratioAt(0, 1)),
			p.leg(p.strikes[1], type2, models.SideSell, p.ratioAt(1, 1)),
		}, nil
	}
}

func buildStraddle(p buildParams) ([]models.OptionLeg, error) {
	if err := p.requireStrikes("straddle", 1); err != nil {
		return nil, err
	}

	return []models.OptionLeg{
		p.leg(p.strikes[0], models.OptionTypeCall, models.SideBuy, p.ratioAt(0, 1)),
		p.leg(p.strikes[0], models.OptionTypePut, models.SideBuy, p.ratioAt(1, 1)),
	}, nil
}

// buildStrangle sorts the strikes; the lower strike is always the put. The
// textual order is deliberately not preserved here.
func buildStrangle(p buildParams) ([]models.OptionLeg, error) {
	if err := p.requireStrikes("strangle", 2); err != nil {
		return nil, err
	}

	s := sortedByStrike(p.strikes)

	return []models.OptionLeg{
		p.leg(s[0], models.OptionTypePut, models.SideBuy, p.ratioAt(0, 1)),
		p.leg(s[1], models.OptionTypeCall, models.SideBuy, p.ratioAt(1, 1)),
	}, nil
}

// makeFlyBuilder returns a butterfly recipe: strikes sorted ascending, wings
// bought, body sold at 2x unless a custom ratio overrides it.
func makeFlyBuilder(name string, implied models.OptionType) buildFunc {
	return func(p buildParams) ([]models.OptionLeg, error) {
		if err := p.requireStrikes(name, 3); err != nil {
			return nil, err
		}

		s := sortedByStrike(p.strikes)

		optionType, err := resolveType(s[0].OptionType, implied, p.defaultType)
		if err != nil {
			return nil, err
		}

		return []models.OptionLeg{
			p.leg(s[0], optionType, models.SideBuy, p.ratioAt(0, 1)),
			p.leg(s[1], optionType, models.SideSell, p.ratioAt(1, 2)),
			p.leg(s[2], optionType, models.SideBuy, p.ratioAt(2, 1)),
		}, nil
	}
}

// buildRiskReversal keeps textual strike order; by convention the put leg is
// sold and the call leg is bought. A "putover" modifier flips the delta sign
// upstream, not the leg sides.
func buildRiskReversal(p buildParams) ([]models.OptionLeg, error) {
	if err := p.requireStrikes("risk reversal", 2); err != nil {
		return nil, err
	}

	type1, err := resolveType(p.strikes[0].OptionType, models.OptionTypePut, "")
	if err != nil {
		return nil, err
	}

	type2, err := resolveType(p.strikes[1].OptionType, models.OptionTypeCall, "")
	if err != nil {
		return nil, err
	}

	sideFor := func(t models.OptionType) models.Side {
		if t == models.OptionTypePut {
			return models.SideSell
		}

		return models.SideBuy
	}

	return []models.OptionLeg{
		p.leg(p.strikes[0], type1, sideFor(type1), p.ratioAt(0, 1)),
		p.leg(p.strikes[1], type2, sideFor(type2), p.ratioAt(1, 1)),
	}, nil
}

// buildCollar buys the protective put (first strike) and sells the call.
func buildCollar(p buildParams) ([]models.OptionLeg, error) {
	if err := p.requireStrikes("collar", 2); err != nil {
		return nil, err
	}

	type1, err := resolveType(p.strikes[0].OptionType, models.OptionTypePut, "")
	if err != nil {
		return nil, err
	}

	type2, err := resolveType(p.strikes[1].OptionType, models.OptionTypeCall, "")
	if err != nil {
		return nil, err
	}

	return []models.OptionLeg{
		p.leg(p.strikes[0], type1, models.SideBuy, p.ratioAt(0, 1)),
		p.leg(p.strikes[1], type2, models.SideSell, p.ratioAt(1, 1)),
	}, nil
}

// buildCallSpreadCollar: buy the low put, sell the mid call, buy the high
// call.
func buildCallSpreadCollar(p buildParams) ([]models.OptionLeg, error) {
	if err := p.requireStrikes("call spread collar", 3); err != nil {
		return nil, err
	}

	s := sortedByStrike(p.strikes)

	return []models.OptionLeg{
		p.leg(s[0], models.OptionTypePut, models.SideBuy, p.ratioAt(0, 1)),
		p.leg(s[1], models.OptionTypeCall, models.SideSell, p.ratioAt(1, 1)),
		p.leg(s[2], models.OptionTypeCall, models.SideBuy, p.ratioAt(2, 1)),
	}, nil
}

// buildPutSpreadCollar: sell the low put, buy the mid put, sell the high
// call.
func buildPutSpreadCollar(p buildParams) ([]models.OptionLeg, error) {
	if err := p.requireStrikes("put spread collar", 3); err != nil {
		return nil, err
	}

	s := sortedByStrike(p.strikes)

	return []models.OptionLeg{
		p.leg(s[0], models.OptionTypePut, models.SideSell, p.ratioAt(0, 1)),
		p.leg(s[1], models.OptionTypePut, models.SideBuy, p.ratioAt(1, 1)),
		p.leg(s[2], models.OptionTypeCall, models.SideSell, p.ratioAt(2, 1)),
	}, nil
}

// buildIronButterfly: three strikes, four legs. Wings bought, both body legs
// sold at the middle strike.
func buildIronButterfly(p buildParams) ([]models.OptionLeg, error) {
	if err := p.requireStrikes("iron butterfly", 3); err != nil {
		return nil, err
	}

	s := sortedByStrike(p.strikes)

	return []models.OptionLeg{
		p.leg(s[0], models.OptionTypePut, models.SideBuy, p.ratioAt(0, 1)),
		p.leg(s[1], models.OptionTypePut, models.SideSell, p.ratioAt(1, 1)),
		p.leg(s[1], models.OptionTypeCall, models.SideSell, p.ratioAt(2, 1)),
		p.leg(s[2], models.OptionTypeCall, models.SideBuy, p.ratioAt(3, 1)),
	}, nil
}

func buildIronCondor(p buildParams) ([]models.OptionLeg, error) {
	if err := p.requireStrikes("iron condor", 4); err != nil {
		return nil, err
	}

	s := sortedByStrike(p.strikes)

	return []models.OptionLeg{
		p.leg(s[0], models.OptionTypePut, models.SideBuy, p.ratioAt(0, 1)),
		p.leg(s[1], models.OptionTypePut, models.SideSell, p.ratioAt(1, 1)),
		p.leg(s[2], models.OptionTypeCall, models.SideSell, p.ratioAt(2, 1)),
		p.leg(s[3], models.OptionTypeCall, models.SideBuy, p.ratioAt(3, 1)),
	}, nil
}

// makeCondorBuilder returns a single-type condor recipe: strikes sorted
// ascending, legs buy/sell/sell/buy.
func makeCondorBuilder(name string, implied models.OptionType) buildFunc {
	return func(p buildParams) ([]models.OptionLeg, error) {
		if err := p.requireStrikes(name, 4); err != nil {
			return nil, err
		}

		s := sortedByStrike(p.strikes)
		sides := []models.Side{models.SideBuy, models.SideSell, models.SideSell, models.SideBuy}

		var legs []models.OptionLeg
		for i, st := range s {
			optionType, err := resolveType(st.OptionType, implied, p.defaultType)
			if err != nil {
				return nil, err
			}

			legs = append(legs, p.leg(st, optionType, sides[i], p.ratioAt(i, 1)))
		}

		return legs, nil
	}
}

// makeStupidBuilder returns a two-leg same-type, same-side recipe. Both legs
// are bought; a stupid is a doubled-up position, not a spread.
func makeStupidBuilder(name string, implied models.OptionType) buildFunc {
	return func(p buildParams) ([]models.OptionLeg, error) {
		if err := p.requireStrikes(name, 2); err != nil {
			return nil, err
		}

		return []models.OptionLeg{
			p.leg(p.strikes[0], implied, models.SideBuy, p.ratioAt(0, 1)),
			p.leg(p.strikes[1], implied, models.SideBuy, p.ratioAt(1, 1)),
		}, nil
	}
}
