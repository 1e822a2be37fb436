package models

// ParsedOrder is the structured form of an IDB broker shorthand order.
// StockRef and Price are 0 when the broker stated none; Delta carries the
// signed delta estimate in percentage points (negative = put-dominant).
type ParsedOrder struct {
	Underlying string          `json:"underlying"`
	Structure  OptionStructure `json:"structure"`
	StockRef   float64         `json:"stock_ref"`
	Delta      float64         `json:"delta"`
	Price      float64         `json:"price"`
	QuoteSide  QuoteSide       `json:"quote_side"`
	Quantity   int             `json:"quantity"`
	RawText    string          `json:"raw_text"`
}
