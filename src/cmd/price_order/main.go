package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jiaming2012/idb-pricer/src/marketdata"
	"github.com/jiaming2012/idb-pricer/src/models"
	"github.com/jiaming2012/idb-pricer/src/parser"
	"github.com/jiaming2012/idb-pricer/src/pricer"
	"github.com/jiaming2012/idb-pricer/src/utils"
)

type RunArgs struct {
	Text    string
	UseMock bool
}

type RunResult struct {
	Order  models.ParsedOrder
	Market models.StructureMarketData
}

var runCmd = &cobra.Command{
	Use:   `go run src/cmd/price_order/main.go "IWM jan 210/220 call spread vs 205.60 25d 500x 2.15 bid"`,
	Short: "Parse broker shorthand and price the structure against the screen",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		useMock, err := cmd.Flags().GetBool("mock")
		if err != nil {
			log.Fatalf("error getting mock: %v", err)
		}

		result, err := Run(RunArgs{
			Text:    strings.Join(args, " "),
			UseMock: useMock,
		})
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		fmt.Print(render(result))
	},
}

func Run(args RunArgs) (RunResult, error) {
	if err := utils.InitEnvironmentVariables(); err != nil {
		return RunResult{}, fmt.Errorf("Run: load environment: %w", err)
	}

	order, err := parser.ParseOrder(args.Text)
	if err != nil {
		return RunResult{}, fmt.Errorf("Run: %w", err)
	}

	client := marketdata.NewClient(args.UseMock)
	if err := client.Connect(); err != nil {
		return RunResult{}, fmt.Errorf("Run: connect market data: %w", err)
	}
	defer client.Disconnect()

	ctx := context.Background()

	spot, err := client.GetSpot(ctx, order.Underlying)
	if err != nil {
		return RunResult{}, fmt.Errorf("Run: fetch spot: %w", err)
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
		quote, err := client.GetOptionQuote(ctx, leg.Underlying, leg.Expiry, leg.Strike, leg.OptionType)
		if err != nil {
			log.Warnf("Run: quote %s %.2f %s failed: %v", leg.Underlying, leg.Strike, leg.OptionType, err)
			quote = models.LegMarketData{}
		}
		legMarket = append(legMarket, quote)
	}

	market, err := pricer.PriceStructureFromMarket(order, legMarket, spot)
	if err != nil {
		return RunResult{}, fmt.Errorf("Run: %w", err)
	}

	return RunResult{Order: order, Market: market}, nil
}

func render(result RunResult) string {
	display := &strings.Builder{}
	p := message.NewPrinter(language.English)

	order := result.Order
	market := result.Market

	display.WriteString(fmt.Sprintf("%s %s", order.Underlying, strings.ToUpper(order.Structure.Name)))
	if order.StockRef > 0 {
		display.WriteString(p.Sprintf(" vs %.2f", order.StockRef))
	}
	if order.Delta != 0 {
		display.WriteString(fmt.Sprintf(" %.0fd", math.Abs(order.Delta)))
	}
	display.WriteString(p.Sprintf("  (spot %.2f)\n", market.StockPrice))

	table := tablewriter.NewWriter(display)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetColumnSeparator("")
	table.SetHeader([]string{"Leg", "Expiry", "Strike", "Type", "Ratio", "BidSz", "Bid", "Mid", "Offer", "OfferSz"})

	baseQty := 1.0
	if len(order.Structure.Legs) > 0 {
		baseQty = order.Structure.Legs[0].Quantity
		for _, leg := range order.Structure.Legs[1:] {
			if leg.Quantity < baseQty {
				baseQty = leg.Quantity
			}
		}
		if baseQty <= 0 {
			baseQty = 1
		}
	}

	for i, priced := range market.LegData {
		leg := priced.Leg
		mkt := priced.Market

		typeCode := "P"
		if leg.OptionType == models.OptionTypeCall {
			typeCode = "C"
		}

		ratio := int(math.Floor(leg.Quantity/baseQty)) * leg.Direction()

		bid, mid, offer := "--", "--", "--"
		bidSize, offerSize := "--", "--"
		if !mkt.Failed() {
			if mkt.Bid > 0 {
				bid = fmt.Sprintf("%.2f", mkt.Bid)
			}
			if mkt.Offer > 0 {
				offer = fmt.Sprintf("%.2f", mkt.Offer)
			}
			mid = fmt.Sprintf("%.2f", mkt.Mid())
			bidSize = p.Sprintf("%d", mkt.BidSize)
			offerSize = p.Sprintf("%d", mkt.OfferSize)
		}

		table.Append([]string{
			fmt.Sprintf("Leg %d", i+1),
			leg.Expiry.Format("Jan06"),
			strconv.FormatFloat(leg.Strike, 'f', -1, 64),
			typeCode,
			fmt.Sprintf("%+d", ratio),
			bidSize, bid, mid, offer, offerSize,
		})
	}

	if market.AnyLegFailed() {
		table.Append([]string{"Structure", "", "", "", "", "--", "--", "--", "--", "--"})
	} else {
		table.Append([]string{
			"Structure", "", "", "", "",
			p.Sprintf("%d", market.StructureBidSize),
			fmt.Sprintf("%.2f", market.StructureBid),
			fmt.Sprintf("%.2f", market.Mid()),
			fmt.Sprintf("%.2f", market.StructureOffer),
			p.Sprintf("%d", market.StructureOfferSize),
		})
	}

	table.Render()

	if order.Price > 0 && !market.AnyLegFailed() {
		edge := order.Price - market.Mid()
		display.WriteString(p.Sprintf("Broker %.2f %s, screen mid %.2f, edge %+.2f\n",
			order.Price, strings.ToUpper(string(order.QuoteSide)), market.Mid(), edge))
	}

	return display.String()
}

func main() {
	log.SetOutput(os.Stderr)

	runCmd.PersistentFlags().Bool("mock", false, "Force the deterministic mock market data client.")

	runCmd.Execute()
}
