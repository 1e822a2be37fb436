package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func makeCallSpread() OptionStructure {
	expiry := time.Date(2026, time.January, 16, 0, 0, 0, 0, time.UTC)

	return OptionStructure{
		Name: "call spread",
		Legs: []OptionLeg{
			{Underlying: "AAPL", Expiry: expiry, Strike: 150, OptionType: OptionTypeCall, Side: SideBuy, Quantity: 1, Ratio: 1},
			{Underlying: "AAPL", Expiry: expiry, Strike: 160, OptionType: OptionTypeCall, Side: SideSell, Quantity: 1, Ratio: 1},
		},
		Description: "AAPL 150/160 call spread",
	}
}

func TestOptionStructurePayoff(t *testing.T) {
	s := makeCallSpread()

	t.Run("below both strikes", func(t *testing.T) {
		assert.Equal(t, 0.0, s.TotalPayoff(140))
	})

	t.Run("between strikes", func(t *testing.T) {
		assert.Equal(t, 5.0, s.TotalPayoff(155))
	})

	t.Run("above both strikes", func(t *testing.T) {
		assert.Equal(t, 10.0, s.TotalPayoff(170))
	})

	t.Run("straddle payoff is symmetric", func(t *testing.T) {
		expiry := time.Date(2026, time.January, 16, 0, 0, 0, 0, time.UTC)
		straddle := OptionStructure{
			Name: "straddle",
			Legs: []OptionLeg{
				{Strike: 150, OptionType: OptionTypeCall, Side: SideBuy, Quantity: 1, Expiry: expiry},
				{Strike: 150, OptionType: OptionTypePut, Side: SideBuy, Quantity: 1, Expiry: expiry},
			},
		}

		assert.Equal(t, 0.0, straddle.TotalPayoff(150))
		assert.Equal(t, 10.0, straddle.TotalPayoff(160))
		assert.Equal(t, 10.0, straddle.TotalPayoff(140))
	})
}

func TestOptionStructureNetQuantity(t *testing.T) {
	s := makeCallSpread()
	assert.Equal(t, 0.0, s.NetQuantity())
}

func TestOptionStructureUnderlyings(t *testing.T) {
	s := makeCallSpread()
	assert.Equal(t, []string{"AAPL"}, s.Underlyings())
}

func TestLegMarketData(t *testing.T) {
	t.Run("two sided mid", func(t *testing.T) {
		m := LegMarketData{Bid: 2.00, Offer: 2.20}
		assert.InDelta(t, 2.10, m.Mid(), 1e-9)
		assert.False(t, m.Failed())
	})

	t.Run("one sided mid falls back", func(t *testing.T) {
		assert.Equal(t, 2.00, LegMarketData{Bid: 2.00}.Mid())
		assert.Equal(t, 2.20, LegMarketData{Offer: 2.20}.Mid())
	})

	t.Run("empty quote is failed", func(t *testing.T) {
		m := LegMarketData{}
		assert.True(t, m.Failed())
		assert.Equal(t, 0.0, m.Mid())
	})
}
