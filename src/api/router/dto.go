package router

import (
	"fmt"
	"time"

	"github.com/jiaming2012/idb-pricer/src/models"
	"github.com/jiaming2012/idb-pricer/src/orderstore"
)

const expiryLayout = "2006-01-02"

type ParseRequest struct {
	Text string `json:"text"`
}

type LegSpec struct {
	Underlying string  `json:"underlying,omitempty"`
	Expiry     string  `json:"expiry"`
	Strike     float64 `json:"strike"`
	OptionType string  `json:"option_type"`
	Side       string  `json:"side"`
	Quantity   float64 `json:"quantity"`
	Ratio      float64 `json:"ratio"`
}

func (s LegSpec) ToLeg(fallbackUnderlying string) (models.OptionLeg, error) {
	underlying := s.Underlying
	if underlying == "" {
		underlying = fallbackUnderlying
	}

	expiry, err := time.Parse(expiryLayout, s.Expiry)
	if err != nil {
		return models.OptionLeg{}, fmt.Errorf("LegSpec.ToLeg: invalid expiry %q: %w", s.Expiry, err)
	}

	optionType := models.OptionType(s.OptionType)
	if err := optionType.Validate(); err != nil {
		return models.OptionLeg{}, fmt.Errorf("LegSpec.ToLeg: %w", err)
	}

	side := models.Side(s.Side)
	if err := side.Validate(); err != nil {
		return models.OptionLeg{}, fmt.Errorf("LegSpec.ToLeg: %w", err)
	}

	quantity := s.Quantity
	if quantity == 0 {
		quantity = 1
	}

	ratio := s.Ratio
	if ratio == 0 {
		ratio = 1
	}

	return models.OptionLeg{
		Underlying: underlying,
		Expiry:     expiry,
		Strike:     s.Strike,
		OptionType: optionType,
		Side:       side,
		Quantity:   quantity,
		Ratio:      ratio,
	}, nil
}

type PriceRequest struct {
	Underlying    string    `json:"underlying"`
	StructureName string    `json:"structure_name"`
	Legs          []LegSpec `json:"legs"`
	StockRef      float64   `json:"stock_ref"`
	Delta         float64   `json:"delta"`
	Price         float64   `json:"price"`
	QuoteSide     string    `json:"quote_side"`
	Quantity      int       `json:"quantity"`
}

type OrderUpdateRequest struct {
	Side        *string `json:"side,omitempty"`
	Size        *string `json:"size,omitempty"`
	Traded      *string `json:"traded,omitempty"`
	BoughtSold  *string `json:"bought_sold,omitempty"`
	TradedPrice *string `json:"traded_price,omitempty"`
	Initiator   *string `json:"initiator,omitempty"`
}

func (req OrderUpdateRequest) Updates() map[string]interface{} {
	updates := map[string]interface{}{}
	if req.Side != nil {
		updates["side"] = *req.Side
	}
	if req.Size != nil {
		updates["size"] = *req.Size
	}
	if req.Traded != nil {
		updates["traded"] = *req.Traded
	}
	if req.BoughtSold != nil {
		updates["bought_sold"] = *req.BoughtSold
	}
	if req.TradedPrice != nil {
		updates["traded_price"] = *req.TradedPrice
	}
	if req.Initiator != nil {
		updates["initiator"] = *req.Initiator
	}

	return updates
}

type OrderDeleteRequest struct {
	IDs []string `json:"ids"`
}

type LegResponse struct {
	Underlying string  `json:"underlying"`
	Expiry     string  `json:"expiry"`
	Strike     float64 `json:"strike"`
	OptionType string  `json:"option_type"`
	Side       string  `json:"side"`
	Quantity   float64 `json:"quantity"`
	Ratio      float64 `json:"ratio"`
}

type ParseResponse struct {
	Underlying    string        `json:"underlying"`
	StructureName string        `json:"structure_name"`
	Legs          []LegResponse `json:"legs"`
	StockRef      float64       `json:"stock_ref"`
	Delta         float64       `json:"delta"`
	Price         float64       `json:"price"`
	QuoteSide     string        `json:"quote_side"`
	Quantity      int           `json:"quantity"`
	RawText       string        `json:"raw_text"`
}

// LegRow is one display row of the pricing table. Numeric cells are
// preformatted strings so a failed leg can render as "--".
type LegRow struct {
	Leg       string      `json:"leg"`
	Expiry    string      `json:"expiry"`
	Strike    interface{} `json:"strike"`
	Type      string      `json:"type"`
	Ratio     interface{} `json:"ratio"`
	BidSize   string      `json:"bid_size"`
	Bid       string      `json:"bid"`
	Mid       string      `json:"mid"`
	Offer     string      `json:"offer"`
	OfferSize string      `json:"offer_size"`
}

type OrderHeader struct {
	Underlying    string  `json:"underlying"`
	StructureName string  `json:"structure_name"`
	StockRef      float64 `json:"stock_ref"`
	StockPrice    float64 `json:"stock_price"`
	Delta         float64 `json:"delta"`
}

type BrokerQuote struct {
	BrokerPrice float64  `json:"broker_price"`
	QuoteSide   string   `json:"quote_side"`
	ScreenMid   *float64 `json:"screen_mid,omitempty"`
	Edge        *float64 `json:"edge,omitempty"`
}

type CurrentStructure struct {
	Underlying      string   `json:"underlying"`
	StructureName   string   `json:"structure_name"`
	StructureDetail string   `json:"structure_detail"`
	Bid             *float64 `json:"bid,omitempty"`
	Mid             *float64 `json:"mid,omitempty"`
	Offer           *float64 `json:"offer,omitempty"`
	BidSize         *int     `json:"bid_size,omitempty"`
	OfferSize       *int     `json:"offer_size,omitempty"`
	Multiplier      int      `json:"multiplier"`
}

type PriceResponse struct {
	TableData        []LegRow         `json:"table_data"`
	Header           OrderHeader      `json:"header"`
	BrokerQuote      *BrokerQuote     `json:"broker_quote,omitempty"`
	CurrentStructure CurrentStructure `json:"current_structure"`
}

type OrdersResponse struct {
	Orders []orderstore.OrderRecord `json:"orders"`
}

type OrderResponse struct {
	Order orderstore.OrderRecord `json:"order"`
}

type SourceResponse struct {
	Source    string `json:"source"`
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

type HealthResponse struct {
	Source string `json:"source"`
	Status string `json:"status"`
}
