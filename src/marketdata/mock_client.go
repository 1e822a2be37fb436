package marketdata

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jiaming2012/idb-pricer/src/models"
)

// MockConfigYAML overrides the mock client's built-in spots and vols, e.g.
//
//	spots:
//	  AAPL: 185.50
//	vols:
//	  AAPL: 0.22
type MockConfigYAML struct {
	Spots map[string]float64 `yaml:"spots"`
	Vols  map[string]float64 `yaml:"vols"`
}

func LoadMockConfig(path string) (*MockConfigYAML, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadMockConfig: read %s: %w", path, err)
	}

	var cfg MockConfigYAML
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("LoadMockConfig: unmarshal %s: %w", path, err)
	}

	return &cfg, nil
}

var mockSpots = map[string]float64{
	"AAPL":  185.50,
	"MSFT":  415.20,
	"GOOGL": 175.80,
	"AMZN":  195.60,
	"TSLA":  245.30,
	"SPY":   520.40,
	"QQQ":   445.10,
	"META":  560.75,
	"NVDA":  880.50,
	"IWM":   205.60,
}

var mockVols = map[string]float64{
	"AAPL":  0.22,
	"MSFT":  0.20,
	"GOOGL": 0.25,
	"AMZN":  0.28,
	"TSLA":  0.45,
	"SPY":   0.14,
	"QQQ":   0.18,
	"META":  0.32,
	"NVDA":  0.42,
	"IWM":   0.18,
}

// MockClient serves deterministic synthetic market data so the dashboard
// and tests run without a data vendor connection.
type MockClient struct {
	spots map[string]float64
	vols  map[string]float64
}

func NewMockClient() *MockClient {
	spots := make(map[string]float64, len(mockSpots))
	for k, v := range mockSpots {
		spots[k] = v
	}

	vols := make(map[string]float64, len(mockVols))
	for k, v := range mockVols {
		vols[k] = v
	}

	return &MockClient{spots: spots, vols: vols}
}

func NewMockClientWithConfig(cfg *MockConfigYAML) *MockClient {
	client := NewMockClient()
	for k, v := range cfg.Spots {
		client.spots[strings.ToUpper(k)] = v
	}
	for k, v := range cfg.Vols {
		client.vols[strings.ToUpper(k)] = v
	}

	return client
}

func (c *MockClient) Connect() error { return nil }

func (c *MockClient) Disconnect() {}

func (c *MockClient) GetSpot(ctx context.Context, underlying string) (float64, error) {
	if spot, ok := c.spots[strings.ToUpper(underlying)]; ok {
		return spot, nil
	}

	return 100.0, nil
}

func (c *MockClient) impliedVol(underlying string, strike float64) float64 {
	baseVol, ok := c.vols[strings.ToUpper(underlying)]
	if !ok {
		baseVol = 0.25
	}

	spot, _ := c.GetSpot(context.Background(), underlying)

	// Simple vol skew: OTM puts carry higher vol
	moneyness := strike / spot
	if moneyness < 1.0 {
		return baseVol + 0.05*(1.0-moneyness)
	}

	return baseVol
}

// GetOptionQuote synthesizes a two-sided screen quote: intrinsic value plus
// a crude vol-scaled time value, with a proportional spread. This is quote
// synthesis for demos and tests, not a valuation model.
func (c *MockClient) GetOptionQuote(ctx context.Context, underlying string, expiry time.Time, strike float64, optionType models.OptionType) (models.LegMarketData, error) {
	spot, _ := c.GetSpot(ctx, underlying)
	vol := c.impliedVol(underlying, strike)

	years := time.Until(expiry).Hours() / (24 * 365)
	if years < 0.02 {
		years = 0.02
	}

	var intrinsic float64
	if optionType == models.OptionTypeCall {
		intrinsic = max(spot-strike, 0)
	} else {
		intrinsic = max(strike-spot, 0)
	}

	timeValue := 0.4 * spot * vol * math.Sqrt(years) * math.Exp(-2.0*math.Abs(spot-strike)/spot)
	mid := intrinsic + timeValue

	spread := math.Max(0.02, mid*0.04)
	bid := mid - spread/2
	if bid < 0.01 {
		bid = 0.01
	}

	return models.LegMarketData{
		Bid:       round2(bid),
		BidSize:   100 + int(strike*7)%900,
		Offer:     round2(bid + spread),
		OfferSize: 100 + int(strike*13)%900,
	}, nil
}

func (c *MockClient) GetContractMultiplier(underlying string) int {
	return 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
