package models

// OptionStructure is a named combination of option legs (spread, straddle,
// butterfly, etc.). Leg order is significant only for display.
type OptionStructure struct {
	Name        string      `json:"name"`
	Legs        []OptionLeg `json:"legs"`
	Description string      `json:"description"`
}

// TotalPayoff returns the structure payoff at expiration for a given spot.
func (s OptionStructure) TotalPayoff(spot float64) float64 {
	total := 0.0
	for _, leg := range s.Legs {
		total += leg.Payoff(spot)
	}

	return total
}

// NetQuantity is the signed sum of leg quantities.
func (s OptionStructure) NetQuantity() float64 {
	total := 0.0
	for _, leg := range s.Legs {
		total += float64(leg.Direction()) * leg.Quantity
	}

	return total
}

func (s OptionStructure) Underlyings() []string {
	seen := map[string]bool{}
	var out []string
	for _, leg := range s.Legs {
		if !seen[leg.Underlying] {
			seen[leg.Underlying] = true
			out = append(out, leg.Underlying)
		}
	}

	return out
}
