package models

import (
	"fmt"
	"time"
)

// OptionLeg is a single option contract within a structure. Quantity is the
// absolute contract count for this leg (base lot size times Ratio); Ratio is
// the leg's relative weight within the structure and is always positive.
type OptionLeg struct {
	Underlying string     `json:"underlying"`
	Expiry     time.Time  `json:"expiry"`
	Strike     float64    `json:"strike"`
	OptionType OptionType `json:"option_type"`
	Side       Side       `json:"side"`
	Quantity   float64    `json:"quantity"`
	Ratio      float64    `json:"ratio"`
}

// Direction returns +1 for buy legs, -1 for sell legs.
func (leg OptionLeg) Direction() int {
	return leg.Side.Direction()
}

// Payoff returns the leg's payoff at expiration for a given spot price.
func (leg OptionLeg) Payoff(spot float64) float64 {
	var intrinsic float64
	if leg.OptionType == OptionTypeCall {
		intrinsic = max(spot-leg.Strike, 0)
	} else {
		intrinsic = max(leg.Strike-spot, 0)
	}

	return float64(leg.Direction()) * leg.Quantity * intrinsic
}

func (leg OptionLeg) String() string {
	return fmt.Sprintf("%s %.0fx %s %s %.2f %s", leg.Side, leg.Quantity, leg.Underlying, leg.Expiry.Format("Jan06"), leg.Strike, leg.OptionType)
}
