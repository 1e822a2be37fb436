package router

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/idb-pricer/src/models"
	"github.com/jiaming2012/idb-pricer/src/pricer"
)

func buildParsedOrder(req PriceRequest) (models.ParsedOrder, error) {
	if len(req.Legs) == 0 {
		return models.ParsedOrder{}, fmt.Errorf("buildParsedOrder: no legs in request")
	}

	legs := make([]models.OptionLeg, 0, len(req.Legs))
	for i, spec := range req.Legs {
		leg, err := spec.ToLeg(req.Underlying)
		if err != nil {
			return models.ParsedOrder{}, fmt.Errorf("buildParsedOrder: leg %d: %w", i+1, err)
		}
		legs = append(legs, leg)
	}

	quoteSide := models.QuoteSide(req.QuoteSide)
	if quoteSide != models.QuoteSideBid && quoteSide != models.QuoteSideOffer {
		quoteSide = models.QuoteSideBid
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	return models.ParsedOrder{
		Underlying: req.Underlying,
		Structure: models.OptionStructure{
			Name:        req.StructureName,
			Legs:        legs,
			Description: "API request",
		},
		StockRef:  req.StockRef,
		Delta:     req.Delta,
		Price:     req.Price,
		QuoteSide: quoteSide,
		Quantity:  quantity,
	}, nil
}

// fetchAndPrice pulls a screen quote for each leg plus the spot, then prices
// the structure. A spot of zero falls back to the stock ref, then 100.
func fetchAndPrice(r *http.Request, order models.ParsedOrder) (float64, []models.LegMarketData, models.StructureMarketData, int, error) {
	c := getClient()
	ctx := r.Context()

	spot, err := c.GetSpot(ctx, order.Underlying)
	if err != nil {
		return 0, nil, models.StructureMarketData{}, 0, fmt.Errorf("fetchAndPrice: fetch spot: %w", err)
	}

	if spot == 0 {
		if order.StockRef > 0 {
			spot = order.StockRef
		} else {
			spot = 100.0
		}
	}

	legMarket := make([]models.LegMarketData, 0, len(order.Structure.Legs))
	for _, leg := range order.Structure.Legs {
		quote, err := c.GetOptionQuote(ctx, leg.Underlying, leg.Expiry, leg.Strike, leg.OptionType)
		if err != nil {
			log.Warnf("fetchAndPrice: quote %s %s %.2f %s failed: %v", leg.Underlying, leg.Expiry.Format("2006-01-02"), leg.Strike, leg.OptionType, err)
			quote = models.LegMarketData{}
		}
		legMarket = append(legMarket, quote)
	}

	structData, err := pricer.PriceStructureFromMarket(order, legMarket, spot)
	if err != nil {
		return 0, nil, models.StructureMarketData{}, 0, fmt.Errorf("fetchAndPrice: %w", err)
	}

	return spot, legMarket, structData, c.GetContractMultiplier(order.Underlying), nil
}

func buildTableRows(order models.ParsedOrder, legMarket []models.LegMarketData, structData models.StructureMarketData) []LegRow {
	legs := order.Structure.Legs

	baseQty := 1.0
	if len(legs) > 0 {
		baseQty = legs[0].Quantity
		for _, leg := range legs[1:] {
			if leg.Quantity < baseQty {
				baseQty = leg.Quantity
			}
		}
	}
	if baseQty <= 0 {
		baseQty = 1
	}

	rows := make([]LegRow, 0, len(legs)+1)
	for i, leg := range legs {
		mkt := legMarket[i]

		typeCode := "P"
		if leg.OptionType == models.OptionTypeCall {
			typeCode = "C"
		}

		ratio := int(math.Floor(leg.Quantity / baseQty))
		signedRatio := ratio * leg.Direction()

		bothFailed := mkt.Failed()
		bidStr := "--"
		if mkt.Bid > 0 {
			bidStr = fmt.Sprintf("%.2f", mkt.Bid)
		}
		offerStr := "--"
		if mkt.Offer > 0 {
			offerStr = fmt.Sprintf("%.2f", mkt.Offer)
		}

		var midStr string
		switch {
		case mkt.Bid > 0 && mkt.Offer > 0:
			midStr = fmt.Sprintf("%.2f", (mkt.Bid+mkt.Offer)/2.0)
		case bothFailed:
			midStr = "--"
		case mkt.Bid > 0:
			midStr = bidStr
		default:
			midStr = offerStr
		}

		bidSizeStr := "--"
		offerSizeStr := "--"
		if !bothFailed {
			bidSizeStr = strconv.Itoa(mkt.BidSize)
			offerSizeStr = strconv.Itoa(mkt.OfferSize)
		}

		rows = append(rows, LegRow{
			Leg:       fmt.Sprintf("Leg %d", i+1),
			Expiry:    leg.Expiry.Format("Jan06"),
			Strike:    leg.Strike,
			Type:      typeCode,
			Ratio:     signedRatio,
			BidSize:   bidSizeStr,
			Bid:       bidStr,
			Mid:       midStr,
			Offer:     offerStr,
			OfferSize: offerSizeStr,
		})
	}

	if structData.AnyLegFailed() {
		rows = append(rows, LegRow{
			Leg: "Structure", Strike: "", Ratio: "",
			BidSize: "--", Bid: "--", Mid: "--", Offer: "--", OfferSize: "--",
		})
	} else {
		rows = append(rows, LegRow{
			Leg: "Structure", Strike: "", Ratio: "",
			BidSize:   strconv.Itoa(structData.StructureBidSize),
			Bid:       fmt.Sprintf("%.2f", structData.StructureBid),
			Mid:       fmt.Sprintf("%.2f", structData.Mid()),
			Offer:     fmt.Sprintf("%.2f", structData.StructureOffer),
			OfferSize: strconv.Itoa(structData.StructureOfferSize),
		})
	}

	return rows
}

func handlePrice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(404)
		return
	}

	var req PriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		setErrorResponse("handlePrice: decode request", 400, err, w)
		return
	}

	order, err := buildParsedOrder(req)
	if err != nil {
		setErrorResponse("handlePrice: validation", 400, err, w)
		return
	}

	spot, legMarket, structData, multiplier, err := fetchAndPrice(r, order)
	if err != nil {
		log.Errorf("handlePrice: %v", err)
		setErrorResponse("handlePrice: pricing", 500, err, w)
		return
	}

	tableRows := buildTableRows(order, legMarket, structData)

	var dispBid, dispMid, dispOffer *float64
	var bidSize, offerSize *int
	if !structData.AnyLegFailed() {
		b, m, o := structData.StructureBid, structData.Mid(), structData.StructureOffer
		bs, offs := structData.StructureBidSize, structData.StructureOfferSize
		dispBid, dispMid, dispOffer = &b, &m, &o
		bidSize, offerSize = &bs, &offs
	}

	var brokerQuote *BrokerQuote
	if order.Price > 0 {
		brokerQuote = &BrokerQuote{
			BrokerPrice: order.Price,
			QuoteSide:   strings.ToUpper(string(order.QuoteSide)),
		}
		if dispMid != nil {
			edge := order.Price - *dispMid
			brokerQuote.ScreenMid = dispMid
			brokerQuote.Edge = &edge
		}
	}

	legDetails := make([]string, 0, len(order.Structure.Legs))
	for _, leg := range order.Structure.Legs {
		t := "P"
		if leg.OptionType == models.OptionTypeCall {
			t = "C"
		}
		legDetails = append(legDetails, fmt.Sprintf("%.0f%s %s", leg.Strike, t, leg.Expiry.Format("Jan06")))
	}

	resp := PriceResponse{
		TableData: tableRows,
		Header: OrderHeader{
			Underlying:    order.Underlying,
			StructureName: strings.ToUpper(order.Structure.Name),
			StockRef:      order.StockRef,
			StockPrice:    spot,
			Delta:         order.Delta,
		},
		BrokerQuote: brokerQuote,
		CurrentStructure: CurrentStructure{
			Underlying:      order.Underlying,
			StructureName:   strings.ToUpper(order.Structure.Name),
			StructureDetail: strings.Join(legDetails, " / "),
			Bid:             dispBid,
			Mid:             dispMid,
			Offer:           dispOffer,
			BidSize:         bidSize,
			OfferSize:       offerSize,
			Multiplier:      multiplier,
		},
	}

	if err := setResponse(resp, w); err != nil {
		setErrorResponse("handlePrice: set response", 500, err, w)
	}
}
