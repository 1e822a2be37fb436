package pricer

import (
	"fmt"
	"math"

	"github.com/jiaming2012/idb-pricer/src/models"
)

// PriceStructureFromMarket computes the per-unit structure bid/offer from
// one screen quote per leg, plus the max structure count fillable on each
// side.
//
// Uses signed ratios (positive = buy, negative = sell) normalised to the
// smallest leg so the result is a per-structure price independent of order
// size. For each leg with signed ratio s:
//
//	s > 0 (buy):  bid += s * leg_bid,   offer += s * leg_offer
//	s < 0 (sell): bid += s * leg_offer, offer += s * leg_bid
//
// which keeps structure_bid <= structure_offer whenever every leg quote is
// two-sided and sane. When the order carries a stock ref and delta, a tie
// adjustment of (delta/100) * (spot - ref) is added to both sides.
//
// A leg quote with zero bid and zero offer is valid input meaning "quote
// unavailable"; the result is still computed and callers decide whether to
// suppress it (see StructureMarketData.AnyLegFailed). The only error is a
// leg/quote count mismatch.
func PriceStructureFromMarket(order models.ParsedOrder, legMarket []models.LegMarketData, stockPrice float64) (models.StructureMarketData, error) {
	legs := order.Structure.Legs

	if len(legs) != len(legMarket) {
		return models.StructureMarketData{}, fmt.Errorf("PriceStructureFromMarket: leg count mismatch: %d legs but %d market entries", len(legs), len(legMarket))
	}

	baseQty := baseQuantity(legs)

	structBid := 0.0
	structOffer := 0.0

	for i, leg := range legs {
		mkt := legMarket[i]
		ratio := math.Floor(leg.Quantity / baseQty)
		signed := float64(leg.Direction()) * ratio

		if signed > 0 {
			structBid += signed * mkt.Bid
			structOffer += signed * mkt.Offer
		} else if signed < 0 {
			structBid += signed * mkt.Offer
			structOffer += signed * mkt.Bid
		}
	}

	// Tie adjustment for structures with a stock reference
	if order.StockRef > 0 && order.Delta != 0 {
		tieAdj := (order.Delta / 100.0) * (stockPrice - order.StockRef)
		structBid += tieAdj
		structOffer += tieAdj
	}

	legData := make([]models.PricedLeg, len(legs))
	for i, leg := range legs {
		legData[i] = models.PricedLeg{Leg: leg, Market: legMarket[i]}
	}

	return models.StructureMarketData{
		LegData:            legData,
		StockPrice:         stockPrice,
		StockRef:           order.StockRef,
		Delta:              order.Delta,
		StructureBid:       structBid,
		StructureOffer:     structOffer,
		StructureBidSize:   structureSize(legs, legMarket, true),
		StructureOfferSize: structureSize(legs, legMarket, false),
	}, nil
}

func baseQuantity(legs []models.OptionLeg) float64 {
	if len(legs) == 0 {
		return 1
	}

	base := legs[0].Quantity
	for _, leg := range legs[1:] {
		if leg.Quantity < base {
			base = leg.Quantity
		}
	}

	if base <= 0 {
		return 1
	}

	return base
}

// structureSize is the max structure quantity the screen supports: each
// leg's relevant size divided by its per-structure ratio, minimum across
// legs, floored. Legs with a non-positive ratio are degenerate and skipped.
func structureSize(legs []models.OptionLeg, legMarket []models.LegMarketData, forBid bool) int {
	minStructures := math.Inf(1)
	baseQty := baseQuantity(legs)

	for i, leg := range legs {
		mkt := legMarket[i]
		isBuy := leg.Direction() > 0

		var available int
		if forBid {
			// Structure bid: someone buys the structure from the market,
			// buy legs lift the offer, sell legs hit the bid.
			if isBuy {
				available = mkt.OfferSize
			} else {
				available = mkt.BidSize
			}
		} else {
			if isBuy {
				available = mkt.BidSize
			} else {
				available = mkt.OfferSize
			}
		}

		ratio := leg.Quantity / baseQty
		if ratio > 0 {
			minStructures = math.Min(minStructures, float64(available)/ratio)
		}
	}

	if math.IsInf(minStructures, 1) {
		return 0
	}

	return int(minStructures)
}
