package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"depthsim/internal/orderbook"
	"depthsim/internal/service"
	"depthsim/internal/types"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

const (
	colorReset   = "\033[0m"
	colorYellow  = "\033[33m"
	colorGreen   = "\033[32m"
	colorRed     = "\033[31m"
	colorMagenta = "\033[35m"
	colorBold    = "\033[1m"
)

var (
	watchVenue    string
	watchSymbol   string
	watchInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print periodic depth stats for one venue",
	Long: `Subscribe to one venue and print mid, spread, depth and imbalance at a
fixed interval. Unreachable or unsupported venues print synthetic books.

Examples:
  orderbook watch --venue OKX --symbol BTC-USD
  orderbook watch --venue Deribit --symbol BTC-USD --interval 2s`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchVenue, "venue", "OKX", "Venue to monitor")
	watchCmd.Flags().StringVar(&watchSymbol, "symbol", "BTC-USD", "Trading symbol to monitor")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Interval for logging orderbook stats (default from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	interval := watchInterval
	if interval <= 0 {
		interval = cfg.Display.LogInterval
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := service.New(cfg, service.Options{Logger: logger})
	defer svc.Close()

	sub, err := svc.Subscribe(watchVenue, watchSymbol)
	if err != nil {
		return err
	}

	logger.Info().
		Str("venue", watchVenue).
		Str("symbol", watchSymbol).
		Dur("interval", interval).
		Msg("Starting orderbook monitor")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := sub.Status().State
	for {
		select {
		case <-sub.Changes():
			if state := sub.Status().State; state != last {
				last = state
				logger.Info().Str("state", state.String()).Str("error", sub.ErrorMessage()).Msg("Connection state changed")
			}
		case <-ticker.C:
			printStats(sub.Snapshot(), sub.Status())
		case <-ctx.Done():
			logger.Info().Msg("Shutting down...")
			return nil
		}
	}
}

func printStats(snap *types.BookSnapshot, status types.Status) {
	if snap == nil {
		fmt.Printf("%s%s%s  waiting for first book (%s)\n", colorBold, watchVenue, colorReset, status.State)
		return
	}

	stats := orderbook.CalculateStats(snap)

	source := "live"
	if snap.Synthetic {
		source = "synthetic"
	}

	fmt.Println()
	fmt.Printf("%s%s %s%s (%s)", colorBold, snap.Venue, snap.Symbol, colorReset, source)
	fmt.Printf("  Mid: %s%10s%s │ Spread: %s%8s%s | BB: %s%10s%s │ BA: %s%10s%s\n",
		colorYellow, stats.MidPrice.StringFixed(2), colorReset,
		colorMagenta, stats.Spread.StringFixed(4), colorReset,
		colorGreen, stats.BestBid.StringFixed(2), colorReset,
		colorRed, stats.BestAsk.StringFixed(2), colorReset)

	fmt.Printf("  DEPTH 0.5%% Bids: %s%9s%s │ Asks: %s%9s%s │ Δ: %s%10s%s\n",
		colorGreen, stats.BidLiquidity05Pct.StringFixed(2), colorReset,
		colorRed, stats.AskLiquidity05Pct.StringFixed(2), colorReset,
		getDeltaColor(stats.DeltaLiquidity05Pct), stats.DeltaLiquidity05Pct.StringFixed(2), colorReset)

	fmt.Printf("  DEPTH 2%%:  Bids: %s%9s%s │ Asks: %s%9s%s │ Δ: %s%10s%s\n",
		colorGreen, stats.BidLiquidity2Pct.StringFixed(2), colorReset,
		colorRed, stats.AskLiquidity2Pct.StringFixed(2), colorReset,
		getDeltaColor(stats.DeltaLiquidity2Pct), stats.DeltaLiquidity2Pct.StringFixed(2), colorReset)

	fmt.Printf("  DEPTH 10%%  Bids: %s%9s%s │ Asks: %s%9s%s │ Δ: %s%10s%s\n",
		colorGreen, stats.BidLiquidity10Pct.StringFixed(2), colorReset,
		colorRed, stats.AskLiquidity10Pct.StringFixed(2), colorReset,
		getDeltaColor(stats.DeltaLiquidity10Pct), stats.DeltaLiquidity10Pct.StringFixed(2), colorReset)

	fmt.Printf("  TOTAL QTY: Bids: %s%9s%s │ Asks: %s%9s%s\n",
		colorGreen, stats.TotalBidsQty.StringFixed(2), colorReset,
		colorRed, stats.TotalAsksQty.StringFixed(2), colorReset)

	if imb, ok := orderbook.CalculateImbalance(snap); ok {
		fmt.Printf("  IMBALANCE: %s%s%s (%s) ratio %s │ Bids %s%% / Asks %s%%\n",
			getDeltaColor(imb.BidVolume.Sub(imb.AskVolume)), imb.Type, colorReset, imb.Strength,
			imb.Ratio.StringFixed(2), imb.BidPercentage.StringFixed(1), imb.AskPercentage.StringFixed(1))
	}

	if msg := status.ErrorMessage(); msg != "" {
		fmt.Printf("  %s%s%s\n", colorRed, msg, colorReset)
	}
}

func getDeltaColor(delta decimal.Decimal) string {
	if delta.GreaterThan(decimal.Zero) {
		return colorGreen
	} else if delta.LessThan(decimal.Zero) {
		return colorRed
	}
	return colorYellow
}
