package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/idb-pricer/src/marketdata"
	"github.com/jiaming2012/idb-pricer/src/orderstore"
)

func newTestServer(t *testing.T) *httptest.Server {
	store, err := orderstore.NewStore(t.TempDir())
	require.Nil(t, err)

	r := mux.NewRouter()
	SetupHandler(r.PathPrefix("/api").Subrouter(), marketdata.NewMockClient(), store)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return srv
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	data, err := json.Marshal(body)
	require.Nil(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.Nil(t, err)

	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	defer resp.Body.Close()
	require.Nil(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHandleParse(t *testing.T) {
	srv := newTestServer(t)

	t.Run("valid order", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/parse", ParseRequest{
			Text: "AAPL jun26 300 calls vs250.32 30d 20.50 bid 1058x",
		})
		require.Equal(t, 200, resp.StatusCode)

		var parsed ParseResponse
		decodeJSON(t, resp, &parsed)

		assert.Equal(t, "AAPL", parsed.Underlying)
		assert.Equal(t, "call", parsed.StructureName)
		assert.Equal(t, 250.32, parsed.StockRef)
		assert.Equal(t, 30.0, parsed.Delta)
		assert.Equal(t, 20.50, parsed.Price)
		assert.Equal(t, "bid", parsed.QuoteSide)
		assert.Equal(t, 1058, parsed.Quantity)
		require.Len(t, parsed.Legs, 1)
		assert.Equal(t, 300.0, parsed.Legs[0].Strike)
		assert.Equal(t, "2026-06-16", parsed.Legs[0].Expiry)
	})

	t.Run("empty text rejected", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/parse", ParseRequest{Text: "   "})
		defer resp.Body.Close()
		assert.Equal(t, 400, resp.StatusCode)
	})

	t.Run("unparseable text rejected", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/parse", ParseRequest{Text: "???"})
		defer resp.Body.Close()
		assert.Equal(t, 400, resp.StatusCode)
	})
}

func TestHandlePrice(t *testing.T) {
	srv := newTestServer(t)

	t.Run("call spread priced off the mock screen", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/price", PriceRequest{
			Underlying:    "AAPL",
			StructureName: "call spread",
			Legs: []LegSpec{
				{Expiry: "2026-06-16", Strike: 190, OptionType: "call", Side: "buy", Quantity: 500, Ratio: 1},
				{Expiry: "2026-06-16", Strike: 200, OptionType: "call", Side: "sell", Quantity: 500, Ratio: 1},
			},
			StockRef:  185.50,
			Delta:     25,
			Price:     4.20,
			QuoteSide: "bid",
			Quantity:  500,
		})
		require.Equal(t, 200, resp.StatusCode)

		var priced PriceResponse
		decodeJSON(t, resp, &priced)

		assert.Equal(t, "AAPL", priced.Header.Underlying)
		assert.Equal(t, "CALL SPREAD", priced.Header.StructureName)
		assert.Equal(t, 185.50, priced.Header.StockPrice)

		// Two leg rows plus the structure row
		require.Len(t, priced.TableData, 3)
		assert.Equal(t, "Leg 1", priced.TableData[0].Leg)
		assert.Equal(t, "Structure", priced.TableData[2].Leg)
		assert.NotEqual(t, "--", priced.TableData[2].Bid)

		require.NotNil(t, priced.BrokerQuote)
		assert.Equal(t, 4.20, priced.BrokerQuote.BrokerPrice)
		assert.Equal(t, "BID", priced.BrokerQuote.QuoteSide)
		require.NotNil(t, priced.BrokerQuote.ScreenMid)
		require.NotNil(t, priced.BrokerQuote.Edge)
		assert.InDelta(t, 4.20-*priced.BrokerQuote.ScreenMid, *priced.BrokerQuote.Edge, 1e-9)

		require.NotNil(t, priced.CurrentStructure.Mid)
		assert.Equal(t, 100, priced.CurrentStructure.Multiplier)
	})

	t.Run("no legs rejected", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/price", PriceRequest{Underlying: "AAPL"})
		defer resp.Body.Close()
		assert.Equal(t, 400, resp.StatusCode)
	})

	t.Run("bad expiry rejected", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/price", PriceRequest{
			Underlying:    "AAPL",
			StructureName: "call",
			Legs: []LegSpec{
				{Expiry: "June 2026", Strike: 190, OptionType: "call", Side: "buy"},
			},
		})
		defer resp.Body.Close()
		assert.Equal(t, 400, resp.StatusCode)
	})
}

func TestHandleOrders(t *testing.T) {
	srv := newTestServer(t)

	t.Run("empty blotter", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/orders")
		require.Nil(t, err)
		require.Equal(t, 200, resp.StatusCode)

		var orders OrdersResponse
		decodeJSON(t, resp, &orders)
		assert.Empty(t, orders.Orders)
	})

	t.Run("add list update delete", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/orders", map[string]interface{}{
			"id":         "abc",
			"underlying": "AAPL",
			"structure":  "CALL 300C Jun26",
			"mid":        "2.50",
			"traded":     "No",
		})
		require.Equal(t, 200, resp.StatusCode)

		var orders OrdersResponse
		decodeJSON(t, resp, &orders)
		require.Len(t, orders.Orders, 1)

		// Update manual fields
		body, err := json.Marshal(map[string]string{
			"traded":       "Yes",
			"bought_sold":  "Bought",
			"traded_price": "2.40",
			"size":         "500",
		})
		require.Nil(t, err)

		req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/orders/abc", bytes.NewReader(body))
		require.Nil(t, err)

		updateResp, err := http.DefaultClient.Do(req)
		require.Nil(t, err)
		require.Equal(t, 200, updateResp.StatusCode)

		var updated OrderResponse
		decodeJSON(t, updateResp, &updated)
		assert.Equal(t, "Yes", updated.Order["traded"])
		// Bought 500 at 2.40 against a 2.50 mid: +0.10 * 500 * 100
		assert.Equal(t, "+5000", updated.Order["pnl"])

		// Delete
		delBody, err := json.Marshal(OrderDeleteRequest{IDs: []string{"abc"}})
		require.Nil(t, err)

		delReq, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/orders", bytes.NewReader(delBody))
		require.Nil(t, err)

		delResp, err := http.DefaultClient.Do(delReq)
		require.Nil(t, err)
		require.Equal(t, 200, delResp.StatusCode)

		var remaining OrdersResponse
		decodeJSON(t, delResp, &remaining)
		assert.Empty(t, remaining.Orders)
	})

	t.Run("unknown field yields 400", func(t *testing.T) {
		postJSON(t, srv.URL+"/api/orders", map[string]interface{}{"id": "xyz"}).Body.Close()

		body := []byte(`{"pnl": "999999"}`)
		req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/orders/xyz", bytes.NewReader(body))
		require.Nil(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.Nil(t, err)
		defer resp.Body.Close()
		assert.Equal(t, 400, resp.StatusCode)
	})

	t.Run("update unknown id is 404", func(t *testing.T) {
		body := []byte(`{"traded": "Yes"}`)
		req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/orders/nope", bytes.NewReader(body))
		require.Nil(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.Nil(t, err)
		defer resp.Body.Close()
		assert.Equal(t, 404, resp.StatusCode)
	})

	t.Run("delete with no ids rejected", func(t *testing.T) {
		body := []byte(`{"ids": []}`)
		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/orders", bytes.NewReader(body))
		require.Nil(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.Nil(t, err)
		defer resp.Body.Close()
		assert.Equal(t, 400, resp.StatusCode)
	})
}

func TestHandleToggleSource(t *testing.T) {
	srv := newTestServer(t)
	t.Setenv("POLYGON_API_KEY", "")

	t.Run("stays on mock without an api key", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/toggle-source", "application/json", nil)
		require.Nil(t, err)
		require.Equal(t, 200, resp.StatusCode)

		var source SourceResponse
		decodeJSON(t, resp, &source)
		assert.Equal(t, "mock", source.Source)
		assert.False(t, source.Connected)
		assert.NotEmpty(t, source.Error)
	})

	t.Run("health still reports mock", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/health")
		require.Nil(t, err)
		require.Equal(t, 200, resp.StatusCode)

		var health HealthResponse
		decodeJSON(t, resp, &health)
		assert.Equal(t, "mock", health.Source)
	})

	t.Run("get is not routed", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/toggle-source")
		require.Nil(t, err)
		defer resp.Body.Close()
		assert.Equal(t, 404, resp.StatusCode)
	})
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	require.Nil(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var health HealthResponse
	decodeJSON(t, resp, &health)
	assert.Equal(t, "mock", health.Source)
	assert.Equal(t, "ok", health.Status)
}
