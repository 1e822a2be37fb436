package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/idb-pricer/src/parser"
)

func handleParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(404)
		return
	}

	var req ParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		setErrorResponse("handleParse: decode request", 400, err, w)
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		setErrorResponse("handleParse: validation", 400, fmt.Errorf("order text is empty"), w)
		return
	}

	order, err := parser.ParseOrder(req.Text)
	if err != nil {
		log.Debugf("handleParse: %v", err)
		setErrorResponse("handleParse: parse order", 400, err, w)
		return
	}

	legs := make([]LegResponse, 0, len(order.Structure.Legs))
	for _, leg := range order.Structure.Legs {
		legs = append(legs, LegResponse{
			Underlying: leg.Underlying,
			Expiry:     leg.Expiry.Format(expiryLayout),
			Strike:     leg.Strike,
			OptionType: string(leg.OptionType),
			Side:       string(leg.Side),
			Quantity:   leg.Quantity,
			Ratio:      leg.Ratio,
		})
	}

	resp := ParseResponse{
		Underlying:    order.Underlying,
		StructureName: order.Structure.Name,
		Legs:          legs,
		StockRef:      order.StockRef,
		Delta:         order.Delta,
		Price:         order.Price,
		QuoteSide:     string(order.QuoteSide),
		Quantity:      order.Quantity,
		RawText:       order.RawText,
	}

	if err := setResponse(resp, w); err != nil {
		setErrorResponse("handleParse: set response", 500, err, w)
	}
}
