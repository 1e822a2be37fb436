package models

// PricedLeg pairs a structure leg with its screen quote.
type PricedLeg struct {
	Leg    OptionLeg     `json:"leg"`
	Market LegMarketData `json:"market"`
}

// StructureMarketData is the aggregate two-sided market for a whole
// structure, per unit (independent of lot size), plus the leg-level data and
// spot/tie context retained for display.
type StructureMarketData struct {
	LegData            []PricedLeg `json:"leg_data"`
	StockPrice         float64     `json:"stock_price"`
	StockRef           float64     `json:"stock_ref"`
	Delta              float64     `json:"delta"`
	StructureBid       float64     `json:"structure_bid"`
	StructureOffer     float64     `json:"structure_offer"`
	StructureBidSize   int         `json:"structure_bid_size"`
	StructureOfferSize int         `json:"structure_offer_size"`
}

// Mid is the simple structure midpoint. Callers that need single-sided or
// no-quote fallback handling apply it themselves after checking
// AnyLegFailed.
func (s StructureMarketData) Mid() float64 {
	return (s.StructureBid + s.StructureOffer) / 2.0
}

func (s StructureMarketData) AnyLegFailed() bool {
	for _, ld := range s.LegData {
		if ld.Market.Failed() {
			return true
		}
	}

	return false
}
