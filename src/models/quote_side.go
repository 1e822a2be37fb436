package models

import "fmt"

// QuoteSide is the side of the screen a broker's quoted price references.
type QuoteSide string

const (
	QuoteSideBid   QuoteSide = "bid"
	QuoteSideOffer QuoteSide = "offer"
)

func (q QuoteSide) Validate() error {
	if q != QuoteSideBid && q != QuoteSideOffer {
		return fmt.Errorf("QuoteSide: Validate: invalid quote side: %s", q)
	}

	return nil
}
