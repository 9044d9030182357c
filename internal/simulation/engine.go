// Package simulation estimates how a hypothetical order would fill against
// an order book snapshot. Every function is pure and safe for concurrent use.
package simulation

import (
	"encoding/json"
	"time"

	"depthsim/internal/types"

	"github.com/shopspring/decimal"
)

// Impact grades the price impact of an order
type Impact string

const (
	ImpactLow    Impact = "Low"
	ImpactMedium Impact = "Medium"
	ImpactHigh   Impact = "High"
)

// ExecutionType tells whether an order would cross the book on arrival
type ExecutionType string

const (
	Immediate ExecutionType = "immediate"
	Pending   ExecutionType = "pending"
)

const (
	maxMarketFillTime = 30 * time.Second
	farFromMarketTime = 300 * time.Second
)

var (
	hundred         = decimal.NewFromInt(100)
	two             = decimal.NewFromInt(2)
	highImpact      = decimal.RequireFromString("0.5")
	mediumImpact    = decimal.RequireFromString("0.2")
	pendingFillTime = []struct {
		below decimal.Decimal
		wait  time.Duration
	}{
		{decimal.RequireFromString("0.1"), 10 * time.Second},
		{decimal.RequireFromString("0.5"), 30 * time.Second},
		{decimal.NewFromInt(1), 120 * time.Second},
	}
)

// FillResult is the outcome of walking one side of the book
type FillResult struct {
	FilledQuantity decimal.Decimal
	AvgPrice       decimal.Decimal
	FillPercentage decimal.Decimal
}

// Metrics is derived fresh for every (snapshot, order) pair
type Metrics struct {
	Kind                 Kind
	FilledQuantity       decimal.Decimal
	FillPercentage       decimal.Decimal
	AvgPrice             decimal.Decimal
	SlippagePercent      decimal.Decimal
	MarketImpact         Impact
	TimeToFill           time.Duration
	ExecutionType        ExecutionType
	PriceDistancePercent *decimal.Decimal
}

// MarshalJSON renders durations in seconds and rounds for display
func (m Metrics) MarshalJSON() ([]byte, error) {
	type view struct {
		Kind                 Kind             `json:"kind"`
		FilledQuantity       decimal.Decimal  `json:"filledQuantity"`
		FillPercentage       decimal.Decimal  `json:"fillPercentage"`
		AvgPrice             decimal.Decimal  `json:"avgPrice"`
		SlippagePercent      decimal.Decimal  `json:"slippagePercent"`
		MarketImpact         Impact           `json:"marketImpact"`
		TimeToFillSeconds    float64          `json:"timeToFillSeconds"`
		ExecutionType        ExecutionType    `json:"executionType"`
		PriceDistancePercent *decimal.Decimal `json:"priceDistancePercent,omitempty"`
		Warning              string           `json:"warning,omitempty"`
	}
	return json.Marshal(view{
		Kind:                 m.Kind,
		FilledQuantity:       m.FilledQuantity,
		FillPercentage:       m.FillPercentage.Round(2),
		AvgPrice:             m.AvgPrice,
		SlippagePercent:      m.SlippagePercent.Round(3),
		MarketImpact:         m.MarketImpact,
		TimeToFillSeconds:    m.TimeToFill.Seconds(),
		ExecutionType:        m.ExecutionType,
		PriceDistancePercent: m.PriceDistancePercent,
		Warning:              Warning(m),
	})
}

// WalkBook consumes levels best-first until target is filled or the side is
// exhausted.
func WalkBook(levels []types.PriceLevel, target decimal.Decimal) FillResult {
	remaining := target
	cost := decimal.Zero

	for _, level := range levels {
		if !remaining.IsPositive() {
			break
		}
		fill := decimal.Min(remaining, level.Quantity)
		cost = cost.Add(fill.Mul(level.Price))
		remaining = remaining.Sub(fill)
	}

	result := FillResult{
		FilledQuantity: target.Sub(remaining),
		AvgPrice:       decimal.Zero,
		FillPercentage: decimal.Zero,
	}
	if result.FilledQuantity.IsPositive() {
		result.AvgPrice = cost.Div(result.FilledQuantity)
	}
	if target.IsPositive() {
		result.FillPercentage = result.FilledQuantity.Div(target).Mul(hundred)
	}
	return result
}

// Slippage returns the unsigned percentage deviation of actual from
// expected, or zero when either price is zero.
func Slippage(expected, actual decimal.Decimal) decimal.Decimal {
	if expected.IsZero() || actual.IsZero() {
		return decimal.Zero
	}
	return actual.Sub(expected).Div(expected).Abs().Mul(hundred)
}

// Simulate computes fill metrics for order against snap
func Simulate(order Order, snap *types.BookSnapshot) Metrics {
	if snap == nil {
		snap = &types.BookSnapshot{}
	}
	if order.Kind == Limit {
		return simulateLimit(order, snap)
	}
	return immediateFill(order, snap, snap.LastPrice)
}

// immediateFill walks the opposite side and grades the result against reference
func immediateFill(order Order, snap *types.BookSnapshot, reference decimal.Decimal) Metrics {
	m := Metrics{
		Kind:           order.Kind,
		FilledQuantity: decimal.Zero,
		FillPercentage: decimal.Zero,
		AvgPrice:       decimal.Zero,
		MarketImpact:   ImpactLow,
		ExecutionType:  Immediate,
	}

	fill := WalkBook(opposite(order.Side, snap), order.Quantity)
	if !fill.FilledQuantity.IsPositive() {
		m.SlippagePercent = decimal.Zero
		return m
	}

	m.FilledQuantity = fill.FilledQuantity
	m.FillPercentage = fill.FillPercentage
	m.AvgPrice = fill.AvgPrice
	m.SlippagePercent = Slippage(reference, fill.AvgPrice)
	m.MarketImpact = gradeImpact(m.SlippagePercent)
	m.TimeToFill = marketFillTime(order.Quantity)
	return m
}

func simulateLimit(order Order, snap *types.BookSnapshot) Metrics {
	levels := opposite(order.Side, snap)
	if len(levels) == 0 {
		return pending(order, nil, farFromMarketTime)
	}

	best := levels[0].Price
	crosses := order.Price.GreaterThanOrEqual(best)
	if order.Side == Sell {
		crosses = order.Price.LessThanOrEqual(best)
	}
	if crosses {
		return immediateFill(order, snap, order.Price)
	}

	distance := order.Price.Sub(best).Abs().Div(best).Mul(hundred)
	return pending(order, &distance, pendingFillTimeFor(distance))
}

func pending(order Order, distance *decimal.Decimal, wait time.Duration) Metrics {
	return Metrics{
		Kind:                 order.Kind,
		FilledQuantity:       decimal.Zero,
		FillPercentage:       decimal.Zero,
		AvgPrice:             order.Price,
		SlippagePercent:      decimal.Zero,
		MarketImpact:         ImpactLow,
		TimeToFill:           wait,
		ExecutionType:        Pending,
		PriceDistancePercent: distance,
	}
}

func opposite(side Side, snap *types.BookSnapshot) []types.PriceLevel {
	if side == Buy {
		return snap.Asks
	}
	return snap.Bids
}

func gradeImpact(slippage decimal.Decimal) Impact {
	switch {
	case slippage.GreaterThan(highImpact):
		return ImpactHigh
	case slippage.GreaterThan(mediumImpact):
		return ImpactMedium
	default:
		return ImpactLow
	}
}

// marketFillTime is a heuristic: two seconds per unit, capped at 30s, one
// second for orders of at most one unit.
func marketFillTime(quantity decimal.Decimal) time.Duration {
	if quantity.LessThanOrEqual(decimal.NewFromInt(1)) {
		return time.Second
	}
	seconds := quantity.Mul(two)
	if seconds.GreaterThanOrEqual(decimal.NewFromFloat(maxMarketFillTime.Seconds())) {
		return maxMarketFillTime
	}
	return time.Duration(seconds.Mul(decimal.NewFromInt(int64(time.Second))).IntPart())
}

// pendingFillTimeFor steps on the distance to the best opposite price
func pendingFillTimeFor(distance decimal.Decimal) time.Duration {
	for _, step := range pendingFillTime {
		if distance.LessThan(step.below) {
			return step.wait
		}
	}
	return farFromMarketTime
}
