package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"depthsim/internal/service"
	"depthsim/internal/simulation"
	"depthsim/internal/types"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	simVenue  string
	simSymbol string
	simKind   string
	simSide   string
	simQty    string
	simPrice  string
	simWait   time.Duration
	simFormat string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate an order against the current book of one venue",
	Long: `Wait for the first book of a venue, then report how a hypothetical order
would fill: average price, slippage, market impact and time to fill.

Examples:
  orderbook simulate --venue OKX --symbol BTC-USD --side buy --qty 5
  orderbook simulate --venue Bybit --symbol BTC-USD --kind limit --side sell --qty 1 --price 65000`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringVar(&simVenue, "venue", "OKX", "Venue to simulate against")
	simulateCmd.Flags().StringVar(&simSymbol, "symbol", "BTC-USD", "Trading symbol")
	simulateCmd.Flags().StringVar(&simKind, "kind", "market", "Order kind (market|limit)")
	simulateCmd.Flags().StringVar(&simSide, "side", "buy", "Order side (buy|sell)")
	simulateCmd.Flags().StringVar(&simQty, "qty", "", "Order quantity")
	simulateCmd.Flags().StringVar(&simPrice, "price", "0", "Limit price (ignored for market orders)")
	simulateCmd.Flags().DurationVar(&simWait, "wait", 15*time.Second, "How long to wait for the first book")
	simulateCmd.Flags().StringVar(&simFormat, "format", "table", "Output format (table|json)")
	_ = simulateCmd.MarkFlagRequired("qty")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	order, err := parseOrder()
	if err != nil {
		return err
	}

	svc := service.New(cfg, service.Options{Logger: logger})
	defer svc.Close()

	sub, err := svc.Subscribe(order.Venue, order.Symbol)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), simWait)
	defer cancel()

	snap, err := waitForSnapshot(ctx, sub)
	if err != nil {
		return err
	}

	m, err := svc.Simulate(order)
	if err != nil {
		return err
	}

	if strings.ToLower(simFormat) == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{"order": order, "metrics": m})
	}
	printMetrics(order, snap, m)
	return nil
}

func parseOrder() (simulation.Order, error) {
	kind, err := simulation.ParseKind(simKind)
	if err != nil {
		return simulation.Order{}, err
	}
	side, err := simulation.ParseSide(simSide)
	if err != nil {
		return simulation.Order{}, err
	}
	qty, err := decimal.NewFromString(simQty)
	if err != nil {
		return simulation.Order{}, fmt.Errorf("invalid --qty %q: %w", simQty, err)
	}
	price, err := decimal.NewFromString(simPrice)
	if err != nil {
		return simulation.Order{}, fmt.Errorf("invalid --price %q: %w", simPrice, err)
	}
	return simulation.NewOrder(simVenue, simSymbol, kind, side, price, qty)
}

func waitForSnapshot(ctx context.Context, sub *service.Subscription) (*types.BookSnapshot, error) {
	for {
		if snap := sub.Snapshot(); snap != nil {
			return snap, nil
		}
		select {
		case <-sub.Changes():
		case <-ctx.Done():
			return nil, fmt.Errorf("no book from %s within %s: %w", sub.Venue(), simWait, service.ErrNoSnapshot)
		}
	}
}

func printMetrics(order simulation.Order, snap *types.BookSnapshot, m simulation.Metrics) {
	source := "live"
	if snap.Synthetic {
		source = "synthetic"
	}

	fmt.Printf("%s%s %s %s %s %s%s (%s book)\n", colorBold,
		strings.ToUpper(string(order.Side)), order.Quantity, order.Symbol, order.Kind, order.Venue, colorReset, source)
	if order.Kind == simulation.Limit {
		fmt.Printf("  Limit price:     %s\n", order.Price)
	}
	fmt.Printf("  Execution:       %s\n", m.ExecutionType)
	fmt.Printf("  Filled:          %s (%s%%)\n", m.FilledQuantity, m.FillPercentage.StringFixed(2))
	fmt.Printf("  Avg price:       %s\n", m.AvgPrice.StringFixed(2))
	fmt.Printf("  Slippage:        %s%%\n", m.SlippagePercent.StringFixed(3))
	fmt.Printf("  Market impact:   %s\n", m.MarketImpact)
	fmt.Printf("  Time to fill:    %s\n", m.TimeToFill)
	if m.PriceDistancePercent != nil {
		fmt.Printf("  Distance:        %s%%\n", m.PriceDistancePercent.StringFixed(3))
	}
	if w := simulation.Warning(m); w != "" {
		fmt.Printf("  %s%s%s\n", colorYellow, w, colorReset)
	}
}
