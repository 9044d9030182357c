package types

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// TickLevel represents available tick size options for price aggregation
type TickLevel float64

const (
	Tick001 TickLevel = 0.01
	Tick01  TickLevel = 0.1
	Tick1   TickLevel = 1.0
	Tick10  TickLevel = 10.0
	Tick50  TickLevel = 50.0
	Tick100 TickLevel = 100.0
)

// AvailableTickLevels defines the available tick levels in order of precision
var AvailableTickLevels = []TickLevel{
	Tick001,
	Tick01,
	Tick1,
	Tick10,
	Tick50,
	Tick100,
}

// IsValidTickLevel reports whether tick is one of AvailableTickLevels
func IsValidTickLevel(tick TickLevel) bool {
	for _, available := range AvailableTickLevels {
		if available == tick {
			return true
		}
	}
	return false
}

// PriceLevel represents a single price level in the order book
type PriceLevel struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// BookSnapshot is the canonical, venue-agnostic view of one order book.
// Instances are replaced wholesale on every accepted update and must not be
// mutated once handed to a consumer.
type BookSnapshot struct {
	Venue     string          `json:"venue"`
	Symbol    string          `json:"symbol"`
	Bids      []PriceLevel    `json:"bids"` // descending, best bid first
	Asks      []PriceLevel    `json:"asks"` // ascending, best ask first
	LastPrice decimal.Decimal `json:"lastPrice"`
	Timestamp int64           `json:"timestamp"` // epoch milliseconds
	Synthetic bool            `json:"synthetic"`
}

// BestBid returns the highest bid, if any
func (s *BookSnapshot) BestBid() (PriceLevel, bool) {
	if s == nil || len(s.Bids) == 0 {
		return PriceLevel{}, false
	}
	return s.Bids[0], true
}

// BestAsk returns the lowest ask, if any
func (s *BookSnapshot) BestAsk() (PriceLevel, bool) {
	if s == nil || len(s.Asks) == 0 {
		return PriceLevel{}, false
	}
	return s.Asks[0], true
}

// Validate checks the ordering and positivity invariants of the snapshot.
func (s *BookSnapshot) Validate() error {
	for i, lvl := range s.Bids {
		if !lvl.Price.IsPositive() || !lvl.Quantity.IsPositive() {
			return fmt.Errorf("bid %d has non-positive price or quantity (%s @ %s)", i, lvl.Quantity, lvl.Price)
		}
		if i > 0 && !lvl.Price.LessThan(s.Bids[i-1].Price) {
			return fmt.Errorf("bids not strictly descending at %d (%s after %s)", i, lvl.Price, s.Bids[i-1].Price)
		}
	}
	for i, lvl := range s.Asks {
		if !lvl.Price.IsPositive() || !lvl.Quantity.IsPositive() {
			return fmt.Errorf("ask %d has non-positive price or quantity (%s @ %s)", i, lvl.Quantity, lvl.Price)
		}
		if i > 0 && !lvl.Price.GreaterThan(s.Asks[i-1].Price) {
			return fmt.Errorf("asks not strictly ascending at %d (%s after %s)", i, lvl.Price, s.Asks[i-1].Price)
		}
	}
	if s.LastPrice.IsNegative() {
		return fmt.Errorf("negative last price %s", s.LastPrice)
	}
	return nil
}

// NormalizeBids drops non-positive entries, merges duplicate prices and sorts
// the result descending. A positive limit truncates to that many levels.
func NormalizeBids(levels []PriceLevel, limit int) []PriceLevel {
	out := normalize(levels)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Price.GreaterThan(out[j].Price)
	})
	return truncate(out, limit)
}

// NormalizeAsks is the ask-side counterpart of NormalizeBids (ascending order).
func NormalizeAsks(levels []PriceLevel, limit int) []PriceLevel {
	out := normalize(levels)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Price.LessThan(out[j].Price)
	})
	return truncate(out, limit)
}

func normalize(levels []PriceLevel) []PriceLevel {
	byPrice := make(map[string]int, len(levels))
	out := make([]PriceLevel, 0, len(levels))
	for _, lvl := range levels {
		if !lvl.Price.IsPositive() || !lvl.Quantity.IsPositive() {
			continue
		}
		key := lvl.Price.String()
		if idx, ok := byPrice[key]; ok {
			out[idx].Quantity = out[idx].Quantity.Add(lvl.Quantity)
			continue
		}
		byPrice[key] = len(out)
		out = append(out, lvl)
	}
	return out
}

func truncate(levels []PriceLevel, limit int) []PriceLevel {
	if limit > 0 && len(levels) > limit {
		return levels[:limit]
	}
	return levels
}

// Stats holds statistical information about a book snapshot
type Stats struct {
	BidLevels int
	AskLevels int
	BestBid   decimal.Decimal
	BestAsk   decimal.Decimal
	MidPrice  decimal.Decimal
	Spread    decimal.Decimal

	// Liquidity depth metrics (in base asset units)
	BidLiquidity05Pct decimal.Decimal // Total bid size within 0.5% of mid
	AskLiquidity05Pct decimal.Decimal // Total ask size within 0.5% of mid
	BidLiquidity2Pct  decimal.Decimal // Total bid size within 2% of mid
	AskLiquidity2Pct  decimal.Decimal // Total ask size within 2% of mid
	BidLiquidity10Pct decimal.Decimal // Total bid size within 10% of mid
	AskLiquidity10Pct decimal.Decimal // Total ask size within 10% of mid

	// Liquidity imbalance (positive = more bids, negative = more asks)
	DeltaLiquidity05Pct decimal.Decimal
	DeltaLiquidity2Pct  decimal.Decimal
	DeltaLiquidity10Pct decimal.Decimal

	TotalBidsQty decimal.Decimal
	TotalAsksQty decimal.Decimal
	TotalDelta   decimal.Decimal
}

// GetNextTickLevel returns the next tick level in the sequence
func GetNextTickLevel(current TickLevel) TickLevel {
	for i, tick := range AvailableTickLevels {
		if tick == current {
			if i+1 < len(AvailableTickLevels) {
				return AvailableTickLevels[i+1]
			}
			return AvailableTickLevels[0]
		}
	}
	return AvailableTickLevels[0]
}

// GetPreviousTickLevel returns the previous tick level in the sequence
func GetPreviousTickLevel(current TickLevel) TickLevel {
	for i, tick := range AvailableTickLevels {
		if tick == current {
			if i-1 >= 0 {
				return AvailableTickLevels[i-1]
			}
			return AvailableTickLevels[len(AvailableTickLevels)-1]
		}
	}
	return AvailableTickLevels[0]
}
