package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/idb-pricer/src/orderstore"
)

var manualFields = map[string]bool{
	"side":         true,
	"size":         true,
	"traded":       true,
	"bought_sold":  true,
	"traded_price": true,
	"initiator":    true,
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// recalcPnl recomputes order["pnl"] from the traded price against the
// screen mid stored on the row. Orders not marked traded carry no pnl.
func recalcPnl(order orderstore.OrderRecord) {
	traded, _ := order["traded"].(string)
	if traded != "Yes" {
		order["pnl"] = ""
		return
	}

	boughtSold, _ := order["bought_sold"].(string)
	if boughtSold != "Bought" && boughtSold != "Sold" {
		return
	}

	tradedPrice, ok := toFloat(order["traded_price"])
	if !ok {
		order["pnl"] = ""
		return
	}

	mid, _ := toFloat(order["mid"])
	sizeF, _ := toFloat(order["size"])
	size := int(sizeF)

	multiplier := 100.0
	if m, ok := toFloat(order["multiplier"]); ok && m > 0 {
		multiplier = m
	}

	var pnl float64
	if boughtSold == "Bought" {
		pnl = (mid - tradedPrice) * float64(size) * multiplier
	} else {
		pnl = (tradedPrice - mid) * float64(size) * multiplier
	}

	order["pnl"] = fmt.Sprintf("%+.0f", pnl)
}

func handleOrders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		setResponse(OrdersResponse{Orders: store.LoadOrders()}, w)

	case http.MethodPost:
		var order orderstore.OrderRecord
		if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
			setErrorResponse("handleOrders: decode request", 400, err, w)
			return
		}

		orders, err := store.AddOrder(order)
		if err != nil {
			log.Errorf("handleOrders: %v", err)
			setErrorResponse("handleOrders: add order", 500, err, w)
			return
		}

		setResponse(OrdersResponse{Orders: orders}, w)

	case http.MethodDelete:
		var req OrderDeleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			setErrorResponse("handleOrders: decode request", 400, err, w)
			return
		}

		if len(req.IDs) == 0 {
			setErrorResponse("handleOrders: validation", 400, fmt.Errorf("no ids provided"), w)
			return
		}

		remaining, removed, err := store.DeleteOrders(req.IDs)
		if err != nil {
			log.Errorf("handleOrders: %v", err)
			setErrorResponse("handleOrders: delete orders", 500, err, w)
			return
		}

		if removed == 0 {
			setErrorResponse("handleOrders: delete orders", 404, fmt.Errorf("no matching orders found"), w)
			return
		}

		setResponse(OrdersResponse{Orders: remaining}, w)

	default:
		w.WriteHeader(404)
	}
}

func handleOrderByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(404)
		return
	}

	vars := mux.Vars(r)
	orderID := vars["id"]

	var req OrderUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		setErrorResponse("handleOrderByID: decode request", 400, err, w)
		return
	}

	updates := req.Updates()
	if len(updates) == 0 {
		setErrorResponse("handleOrderByID: validation", 400, fmt.Errorf("no fields to update"), w)
		return
	}

	for field := range updates {
		if !manualFields[field] {
			setErrorResponse("handleOrderByID: validation", 400, fmt.Errorf("field %q is not editable", field), w)
			return
		}
	}

	orders, found, err := store.UpdateOrder(orderID, updates)
	if err != nil {
		log.Errorf("handleOrderByID: %v", err)
		setErrorResponse("handleOrderByID: update order", 500, err, w)
		return
	}

	if !found {
		setErrorResponse("handleOrderByID: update order", 404, fmt.Errorf("order %s not found", orderID), w)
		return
	}

	var target orderstore.OrderRecord
	for _, order := range orders {
		if order.ID() == orderID {
			target = order
			recalcPnl(target)
			break
		}
	}

	if err := store.SaveOrdersLocked(orders); err != nil {
		log.Errorf("handleOrderByID: %v", err)
		setErrorResponse("handleOrderByID: persist order", 500, err, w)
		return
	}

	setResponse(OrderResponse{Order: target}, w)
}
