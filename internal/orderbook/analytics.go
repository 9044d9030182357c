package orderbook

import (
	"depthsim/internal/types"

	"github.com/shopspring/decimal"
)

const imbalanceDepth = 10

// ImbalanceType is the direction of top-of-book pressure
type ImbalanceType string

const (
	Balanced     ImbalanceType = "Balanced"
	BuyPressure  ImbalanceType = "Buy Pressure"
	SellPressure ImbalanceType = "Sell Pressure"
)

// ImbalanceStrength grades an imbalance
type ImbalanceStrength string

const (
	Neutral  ImbalanceStrength = "Neutral"
	Moderate ImbalanceStrength = "Moderate"
	Strong   ImbalanceStrength = "Strong"
)

// Imbalance summarizes bid vs ask volume over the top levels of a book
type Imbalance struct {
	BidVolume     decimal.Decimal   `json:"bidVolume"`
	AskVolume     decimal.Decimal   `json:"askVolume"`
	BidPercentage decimal.Decimal   `json:"bidPercentage"`
	AskPercentage decimal.Decimal   `json:"askPercentage"`
	Ratio         decimal.Decimal   `json:"ratio"`
	Type          ImbalanceType     `json:"type"`
	Strength      ImbalanceStrength `json:"strength"`
}

var (
	hundred         = decimal.NewFromInt(100)
	buyThreshold    = decimal.RequireFromString("1.5")
	strongBuy       = decimal.NewFromInt(2)
	sellThreshold   = decimal.RequireFromString("0.67")
	strongSell      = decimal.RequireFromString("0.5")
	oneSidedRatio   = decimal.NewFromInt(999)
	depthThresholds = [3]decimal.Decimal{
		decimal.RequireFromString("0.005"),
		decimal.RequireFromString("0.02"),
		decimal.RequireFromString("0.10"),
	}
)

// CalculateImbalance grades the top ten levels of snap. ok is false when
// there is no volume on either side.
func CalculateImbalance(snap *types.BookSnapshot) (Imbalance, bool) {
	if snap == nil {
		return Imbalance{}, false
	}

	bidVolume := sumQuantity(snap.Bids, imbalanceDepth)
	askVolume := sumQuantity(snap.Asks, imbalanceDepth)
	total := bidVolume.Add(askVolume)
	if total.IsZero() {
		return Imbalance{}, false
	}

	var ratio decimal.Decimal
	switch {
	case askVolume.IsPositive():
		ratio = bidVolume.Div(askVolume)
	case bidVolume.IsPositive():
		ratio = oneSidedRatio
	default:
		ratio = decimal.NewFromInt(1)
	}

	imb := Imbalance{
		BidVolume:     bidVolume,
		AskVolume:     askVolume,
		BidPercentage: bidVolume.Div(total).Mul(hundred),
		AskPercentage: askVolume.Div(total).Mul(hundred),
		Ratio:         ratio,
		Type:          Balanced,
		Strength:      Neutral,
	}

	switch {
	case ratio.GreaterThan(buyThreshold):
		imb.Type = BuyPressure
		imb.Strength = Moderate
		if ratio.GreaterThan(strongBuy) {
			imb.Strength = Strong
		}
	case ratio.LessThan(sellThreshold):
		imb.Type = SellPressure
		imb.Strength = Moderate
		if ratio.LessThan(strongSell) {
			imb.Strength = Strong
		}
	}
	return imb, true
}

// CalculateStats computes spread and liquidity depth for snap
func CalculateStats(snap *types.BookSnapshot) types.Stats {
	var stats types.Stats
	if snap == nil {
		return stats
	}

	stats.BidLevels = len(snap.Bids)
	stats.AskLevels = len(snap.Asks)
	stats.TotalBidsQty = sumQuantity(snap.Bids, 0)
	stats.TotalAsksQty = sumQuantity(snap.Asks, 0)
	stats.TotalDelta = stats.TotalBidsQty.Sub(stats.TotalAsksQty)

	bestBid, hasBid := snap.BestBid()
	bestAsk, hasAsk := snap.BestAsk()
	if hasBid {
		stats.BestBid = bestBid.Price
	}
	if hasAsk {
		stats.BestAsk = bestAsk.Price
	}
	if !hasBid || !hasAsk {
		return stats
	}

	if bestAsk.Price.GreaterThan(bestBid.Price) {
		stats.Spread = bestAsk.Price.Sub(bestBid.Price)
	}
	mid := bestBid.Price.Add(bestAsk.Price).Div(decimal.NewFromInt(2))
	stats.MidPrice = mid

	var bidLiq, askLiq [3]decimal.Decimal
	for i, pct := range depthThresholds {
		band := mid.Mul(pct)
		minBid := mid.Sub(band)
		maxAsk := mid.Add(band)

		for _, level := range snap.Bids {
			if level.Price.GreaterThanOrEqual(minBid) {
				bidLiq[i] = bidLiq[i].Add(level.Quantity)
			}
		}
		for _, level := range snap.Asks {
			if level.Price.LessThanOrEqual(maxAsk) {
				askLiq[i] = askLiq[i].Add(level.Quantity)
			}
		}
	}

	stats.BidLiquidity05Pct, stats.AskLiquidity05Pct = bidLiq[0], askLiq[0]
	stats.BidLiquidity2Pct, stats.AskLiquidity2Pct = bidLiq[1], askLiq[1]
	stats.BidLiquidity10Pct, stats.AskLiquidity10Pct = bidLiq[2], askLiq[2]

	// positive = more bid liquidity = bullish pressure
	stats.DeltaLiquidity05Pct = bidLiq[0].Sub(askLiq[0])
	stats.DeltaLiquidity2Pct = bidLiq[1].Sub(askLiq[1])
	stats.DeltaLiquidity10Pct = bidLiq[2].Sub(askLiq[2])
	return stats
}

func sumQuantity(levels []types.PriceLevel, limit int) decimal.Decimal {
	if limit > 0 && len(levels) > limit {
		levels = levels[:limit]
	}
	total := decimal.Zero
	for _, level := range levels {
		total = total.Add(level.Quantity)
	}
	return total
}
