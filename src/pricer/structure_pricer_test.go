package pricer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/idb-pricer/src/models"
)

var testExpiry = time.Date(2026, time.June, 16, 0, 0, 0, 0, time.UTC)

func makeLeg(strike float64, optionType models.OptionType, side models.Side, quantity float64) models.OptionLeg {
	ratio := 1.0
	return models.OptionLeg{
		Underlying: "AAPL",
		Expiry:     testExpiry,
		Strike:     strike,
		OptionType: optionType,
		Side:       side,
		Quantity:   quantity,
		Ratio:      ratio,
	}
}

func makeOrder(legs []models.OptionLeg, stockRef, delta float64) models.ParsedOrder {
	return models.ParsedOrder{
		Underlying: "AAPL",
		Structure: models.OptionStructure{
			Name: "test structure",
			Legs: legs,
		},
		StockRef:  stockRef,
		Delta:     delta,
		QuoteSide: models.QuoteSideBid,
		Quantity:  1,
	}
}

func TestPriceStructureFromMarket(t *testing.T) {
	t.Run("single long leg passes quote through", func(t *testing.T) {
		order := makeOrder([]models.OptionLeg{
			makeLeg(300, models.OptionTypeCall, models.SideBuy, 500),
		}, 0, 0)

		market := []models.LegMarketData{
			{Bid: 2.00, BidSize: 250, Offer: 2.20, OfferSize: 400},
		}

		result, err := PriceStructureFromMarket(order, market, 295.0)
		require.Nil(t, err)

		assert.InDelta(t, 2.00, result.StructureBid, 1e-9)
		assert.InDelta(t, 2.20, result.StructureOffer, 1e-9)
		assert.Equal(t, 400, result.StructureBidSize)
		assert.Equal(t, 250, result.StructureOfferSize)
	})

	t.Run("call spread crosses the sold leg", func(t *testing.T) {
		order := makeOrder([]models.OptionLeg{
			makeLeg(150, models.OptionTypeCall, models.SideBuy, 100),
			makeLeg(160, models.OptionTypeCall, models.SideSell, 100),
		}, 0, 0)

		market := []models.LegMarketData{
			{Bid: 8.00, BidSize: 100, Offer: 8.40, OfferSize: 100},
			{Bid: 3.00, BidSize: 100, Offer: 3.30, OfferSize: 100},
		}

		result, err := PriceStructureFromMarket(order, market, 155.0)
		require.Nil(t, err)

		// bid = 8.00 - 3.30, offer = 8.40 - 3.00
		assert.InDelta(t, 4.70, result.StructureBid, 1e-9)
		assert.InDelta(t, 5.40, result.StructureOffer, 1e-9)
		assert.True(t, result.StructureBid <= result.StructureOffer)
	})

	t.Run("ratio legs aggregate per structure unit", func(t *testing.T) {
		// 1x2 put spread: buy 500 of the 240s, sell 1000 of the 220s
		order := makeOrder([]models.OptionLeg{
			makeLeg(240, models.OptionTypePut, models.SideBuy, 500),
			makeLeg(220, models.OptionTypePut, models.SideSell, 1000),
		}, 0, 0)

		market := []models.LegMarketData{
			{Bid: 6.00, BidSize: 500, Offer: 6.50, OfferSize: 600},
			{Bid: 2.00, BidSize: 900, Offer: 2.25, OfferSize: 800},
		}

		result, err := PriceStructureFromMarket(order, market, 250.0)
		require.Nil(t, err)

		// bid = 6.00 - 2*2.25, offer = 6.50 - 2*2.00
		assert.InDelta(t, 1.50, result.StructureBid, 1e-9)
		assert.InDelta(t, 2.50, result.StructureOffer, 1e-9)

		// bid side: buy leg needs offers (600/1), sell leg needs bids (900/2)
		assert.Equal(t, 450, result.StructureBidSize)
		// offer side: buy leg needs bids (500/1), sell leg needs offers (800/2)
		assert.Equal(t, 400, result.StructureOfferSize)
	})

	t.Run("tie adjustment shifts both sides", func(t *testing.T) {
		order := makeOrder([]models.OptionLeg{
			makeLeg(300, models.OptionTypeCall, models.SideBuy, 500),
		}, 250.0, 30.0)

		market := []models.LegMarketData{
			{Bid: 2.00, BidSize: 100, Offer: 2.20, OfferSize: 100},
		}

		result, err := PriceStructureFromMarket(order, market, 252.0)
		require.Nil(t, err)

		// (30/100) * (252 - 250) = 0.60
		assert.InDelta(t, 2.60, result.StructureBid, 1e-9)
		assert.InDelta(t, 2.80, result.StructureOffer, 1e-9)
	})

	t.Run("negative delta tie adjustment", func(t *testing.T) {
		order := makeOrder([]models.OptionLeg{
			makeLeg(240, models.OptionTypePut, models.SideBuy, 500),
		}, 250.0, -15.0)

		market := []models.LegMarketData{
			{Bid: 4.00, BidSize: 100, Offer: 4.40, OfferSize: 100},
		}

		result, err := PriceStructureFromMarket(order, market, 248.0)
		require.Nil(t, err)

		// (-15/100) * (248 - 250) = +0.30
		assert.InDelta(t, 4.30, result.StructureBid, 1e-9)
		assert.InDelta(t, 4.70, result.StructureOffer, 1e-9)
	})

	t.Run("no tie adjustment without stock ref", func(t *testing.T) {
		order := makeOrder([]models.OptionLeg{
			makeLeg(300, models.OptionTypeCall, models.SideBuy, 500),
		}, 0, 30.0)

		market := []models.LegMarketData{
			{Bid: 2.00, BidSize: 100, Offer: 2.20, OfferSize: 100},
		}

		result, err := PriceStructureFromMarket(order, market, 252.0)
		require.Nil(t, err)

		assert.InDelta(t, 2.00, result.StructureBid, 1e-9)
		assert.InDelta(t, 2.20, result.StructureOffer, 1e-9)
	})

	t.Run("failed leg still aggregates", func(t *testing.T) {
		order := makeOrder([]models.OptionLeg{
			makeLeg(150, models.OptionTypeCall, models.SideBuy, 100),
			makeLeg(160, models.OptionTypeCall, models.SideSell, 100),
		}, 0, 0)

		market := []models.LegMarketData{
			{Bid: 8.00, BidSize: 100, Offer: 8.40, OfferSize: 100},
			{},
		}

		result, err := PriceStructureFromMarket(order, market, 155.0)
		require.Nil(t, err)

		assert.True(t, result.AnyLegFailed())
		assert.InDelta(t, 8.00, result.StructureBid, 1e-9)
		assert.InDelta(t, 8.40, result.StructureOffer, 1e-9)
	})

	t.Run("leg count mismatch fails", func(t *testing.T) {
		order := makeOrder([]models.OptionLeg{
			makeLeg(150, models.OptionTypeCall, models.SideBuy, 100),
			makeLeg(160, models.OptionTypeCall, models.SideSell, 100),
		}, 0, 0)

		market := []models.LegMarketData{
			{Bid: 8.00, BidSize: 100, Offer: 8.40, OfferSize: 100},
		}

		_, err := PriceStructureFromMarket(order, market, 155.0)
		assert.NotNil(t, err)
	})

	t.Run("retains display context", func(t *testing.T) {
		order := makeOrder([]models.OptionLeg{
			makeLeg(300, models.OptionTypeCall, models.SideBuy, 500),
		}, 250.0, 30.0)

		market := []models.LegMarketData{
			{Bid: 2.00, BidSize: 100, Offer: 2.20, OfferSize: 100},
		}

		result, err := PriceStructureFromMarket(order, market, 252.0)
		require.Nil(t, err)

		assert.Equal(t, 252.0, result.StockPrice)
		assert.Equal(t, 250.0, result.StockRef)
		assert.Equal(t, 30.0, result.Delta)
		require.Len(t, result.LegData, 1)
		assert.Equal(t, 300.0, result.LegData[0].Leg.Strike)
		assert.Equal(t, 2.00, result.LegData[0].Market.Bid)
	})
}

func TestStructureMarketDataMid(t *testing.T) {
	data := models.StructureMarketData{StructureBid: 4.70, StructureOffer: 5.40}
	assert.InDelta(t, 5.05, data.Mid(), 1e-9)
}
