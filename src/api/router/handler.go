package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/jiaming2012/idb-pricer/src/marketdata"
	"github.com/jiaming2012/idb-pricer/src/orderstore"
)

var (
	clientMu sync.RWMutex
	client   marketdata.Client
	store    *orderstore.Store
)

func getClient() marketdata.Client {
	clientMu.RLock()
	defer clientMu.RUnlock()
	return client
}

func setClient(c marketdata.Client) {
	clientMu.Lock()
	defer clientMu.Unlock()
	client = c
}

type errorResponse struct {
	Type string `json:"type"`
	Msg  string `json:"message"`
}

func NewErrorResponse(errType string, message string) *errorResponse {
	return &errorResponse{
		Type: errType,
		Msg:  message,
	}
}

func setResponse(response interface{}, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		return fmt.Errorf("SetResponse: encode: %w", err)
	}

	return nil
}

func setErrorResponse(errType string, statusCode int, err error, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := NewErrorResponse(errType, err.Error())
	if encodeErr := json.NewEncoder(w).Encode(resp); encodeErr != nil {
		return encodeErr
	}

	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	source := "polygon"
	if _, ok := getClient().(*marketdata.MockClient); ok {
		source = "mock"
	}

	setResponse(HealthResponse{Source: source, Status: "ok"}, w)
}

// handleToggleSource flips between the live data vendor and the mock feed.
func handleToggleSource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(404)
		return
	}

	if _, ok := getClient().(*marketdata.MockClient); ok {
		live := marketdata.NewClient(false)
		if _, isMock := live.(*marketdata.MockClient); isMock {
			setResponse(SourceResponse{
				Source:    "mock",
				Connected: false,
				Error:     "live data vendor unavailable, check POLYGON_API_KEY",
			}, w)
			return
		}

		if err := live.Connect(); err != nil {
			setResponse(SourceResponse{
				Source:    "mock",
				Connected: false,
				Error:     err.Error(),
			}, w)
			return
		}

		setClient(live)
		setResponse(SourceResponse{Source: "polygon", Connected: true}, w)
		return
	}

	getClient().Disconnect()
	setClient(marketdata.NewMockClient())
	setResponse(SourceResponse{Source: "mock", Connected: true}, w)
}

// SetupHandler registers the pricing surface under the given subrouter.
func SetupHandler(router *mux.Router, dataClient marketdata.Client, orderStore *orderstore.Store) {
	setClient(dataClient)
	store = orderStore

	router.HandleFunc("/parse", handleParse)
	router.HandleFunc("/price", handlePrice)
	router.HandleFunc("/orders", handleOrders)
	router.HandleFunc("/orders/{id}", handleOrderByID)
	router.HandleFunc("/toggle-source", handleToggleSource)
	router.HandleFunc("/health", handleHealth)
}
