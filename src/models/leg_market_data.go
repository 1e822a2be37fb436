package models

// LegMarketData is one leg's live screen quote. A zero bid together with a
// zero offer signals "quote unavailable" rather than an error.
type LegMarketData struct {
	Bid       float64 `json:"bid"`
	BidSize   int     `json:"bid_size"`
	Offer     float64 `json:"offer"`
	OfferSize int     `json:"offer_size"`
}

func (m LegMarketData) Failed() bool {
	return m.Bid == 0 && m.Offer == 0
}

// Mid returns the quote midpoint, falling back to the live side when the
// quote is one-sided and 0 when both sides are missing.
func (m LegMarketData) Mid() float64 {
	if m.Bid > 0 && m.Offer > 0 {
		return (m.Bid + m.Offer) / 2.0
	}

	if m.Bid > 0 {
		return m.Bid
	}

	return m.Offer
}
