package marketdata

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	polygonmodels "github.com/polygon-io/client-go/rest/models"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/idb-pricer/src/models"
)

// PolygonClient fetches spots and option NBBO quotes from the Polygon REST
// API. Option legs are keyed by their OCC ticker (O: prefixed).
type PolygonClient struct {
	client *polygon.Client
}

func NewPolygonClient(apiKey string) *PolygonClient {
	return &PolygonClient{
		client: polygon.New(apiKey),
	}
}

func (c *PolygonClient) Connect() error { return nil }

func (c *PolygonClient) Disconnect() {}

// GetSpot returns the previous close for the underlying, or 0 when no data
// is available.
func (c *PolygonClient) GetSpot(ctx context.Context, underlying string) (float64, error) {
	params := polygonmodels.GetPreviousCloseAggParams{
		Ticker: underlying,
	}.WithAdjusted(true)

	resp, err := c.client.GetPreviousCloseAgg(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("PolygonClient.GetSpot: fetch previous close for %s: %w", underlying, err)
	}

	if len(resp.Results) == 0 {
		log.Debugf("PolygonClient.GetSpot: no previous close for %s", underlying)
		return 0, nil
	}

	return resp.Results[0].Close, nil
}

// GetOptionQuote returns the last NBBO for the option contract, or a zero
// quote when the contract has no data.
func (c *PolygonClient) GetOptionQuote(ctx context.Context, underlying string, expiry time.Time, strike float64, optionType models.OptionType) (models.LegMarketData, error) {
	symbol, err := models.NewOptionSymbol(underlying, expiry, strike, optionType)
	if err != nil {
		return models.LegMarketData{}, fmt.Errorf("PolygonClient.GetOptionQuote: %w", err)
	}

	resp, err := c.client.GetLastQuote(ctx, &polygonmodels.GetLastQuoteParams{
		Ticker: symbol.WithPrefix(),
	})
	if err != nil {
		return models.LegMarketData{}, fmt.Errorf("PolygonClient.GetOptionQuote: fetch last quote for %s: %w", symbol, err)
	}

	return models.LegMarketData{
		Bid:       resp.Results.BidPrice,
		BidSize:   int(resp.Results.BidSize),
		Offer:     resp.Results.AskPrice,
		OfferSize: int(resp.Results.AskSize),
	}, nil
}

func (c *PolygonClient) GetContractMultiplier(underlying string) int {
	return 100
}
