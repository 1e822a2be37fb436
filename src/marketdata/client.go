package marketdata

import (
	"context"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/idb-pricer/src/models"
)

// Client is the market-data collaborator the pricing surface consumes. A
// quote with zero bid and zero offer means "no data"; implementations return
// errors for transport failures only.
type Client interface {
	Connect() error
	Disconnect()
	GetSpot(ctx context.Context, underlying string) (float64, error)
	GetOptionQuote(ctx context.Context, underlying string, expiry time.Time, strike float64, optionType models.OptionType) (models.LegMarketData, error)
	GetContractMultiplier(underlying string) int
}

// NewClient creates the market-data client: Polygon when POLYGON_API_KEY is
// set, the deterministic mock otherwise. Pass useMock to force the mock.
// MOCK_CONFIG names an optional YAML file overriding the mock's spots/vols.
func NewClient(useMock bool) Client {
	apiKey := os.Getenv("POLYGON_API_KEY")
	if useMock || apiKey == "" {
		log.Info("market data: using mock client")
		return newMockFromEnv()
	}

	log.Info("market data: using polygon client")
	return NewPolygonClient(apiKey)
}

func newMockFromEnv() *MockClient {
	path := os.Getenv("MOCK_CONFIG")
	if path == "" {
		return NewMockClient()
	}

	cfg, err := LoadMockConfig(path)
	if err != nil {
		log.Warnf("NewClient: mock config ignored: %v", err)
		return NewMockClient()
	}

	log.Infof("market data: mock overrides loaded from %s", path)
	return NewMockClientWithConfig(cfg)
}
