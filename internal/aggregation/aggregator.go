package aggregation

import (
	"sort"
	"sync"

	"depthsim/internal/types"

	"github.com/shopspring/decimal"
)

// Aggregator groups book levels into tick-sized price buckets. It is safe
// for concurrent use.
type Aggregator struct {
	mu          sync.RWMutex
	currentTick types.TickLevel
}

var _ types.PriceAggregator = (*Aggregator)(nil)

// LadderLevel is an aggregated level with the running total from the top of book
type LadderLevel struct {
	Price      decimal.Decimal `json:"price"`
	Quantity   decimal.Decimal `json:"quantity"`
	Cumulative decimal.Decimal `json:"cumulative"`
}

// New creates a new Aggregator instance
func New(tick types.TickLevel) *Aggregator {
	if !types.IsValidTickLevel(tick) {
		tick = types.Tick1
	}
	return &Aggregator{
		currentTick: tick,
	}
}

// SetTickLevel updates the tick level; unknown ticks are ignored
func (a *Aggregator) SetTickLevel(tick types.TickLevel) {
	a.TrySetTickLevel(tick)
}

// TrySetTickLevel is SetTickLevel reporting whether tick was accepted
func (a *Aggregator) TrySetTickLevel(tick types.TickLevel) bool {
	if !types.IsValidTickLevel(tick) {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.currentTick = tick
	return true
}

// GetTickLevel returns the current tick level
func (a *Aggregator) GetTickLevel() types.TickLevel {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.currentTick
}

// TickUp moves to the next coarser tick, wrapping around
func (a *Aggregator) TickUp() types.TickLevel {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.currentTick = types.GetNextTickLevel(a.currentTick)
	return a.currentTick
}

// TickDown moves to the next finer tick, wrapping around
func (a *Aggregator) TickDown() types.TickLevel {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.currentTick = types.GetPreviousTickLevel(a.currentTick)
	return a.currentTick
}

// AggregateBids floors bid prices to the tick and returns them best first
func (a *Aggregator) AggregateBids(levels []types.PriceLevel) []types.PriceLevel {
	out := a.bucket(levels, decimal.Decimal.Floor)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Price.GreaterThan(out[j].Price)
	})
	return out
}

// AggregateAsks ceils ask prices to the tick and returns them best first.
// Flooring bids and ceiling asks never lets the aggregated book cross.
func (a *Aggregator) AggregateAsks(levels []types.PriceLevel) []types.PriceLevel {
	out := a.bucket(levels, decimal.Decimal.Ceil)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Price.LessThan(out[j].Price)
	})
	return out
}

// Ladder aggregates both sides of snap and adds cumulative quantities
func (a *Aggregator) Ladder(snap *types.BookSnapshot) (bids, asks []LadderLevel) {
	if snap == nil {
		return []LadderLevel{}, []LadderLevel{}
	}
	return cumulative(a.AggregateBids(snap.Bids)), cumulative(a.AggregateAsks(snap.Asks))
}

func (a *Aggregator) bucket(levels []types.PriceLevel, round func(decimal.Decimal) decimal.Decimal) []types.PriceLevel {
	if len(levels) == 0 {
		return []types.PriceLevel{}
	}

	tickSize := decimal.NewFromFloat(float64(a.GetTickLevel()))

	index := make(map[string]int, len(levels))
	out := make([]types.PriceLevel, 0, len(levels))
	for _, level := range levels {
		price := level.Price
		if tickSize.IsPositive() {
			price = round(price.Div(tickSize)).Mul(tickSize)
		}
		key := price.String()

		if i, ok := index[key]; ok {
			out[i].Quantity = out[i].Quantity.Add(level.Quantity)
			continue
		}
		index[key] = len(out)
		out = append(out, types.PriceLevel{Price: price, Quantity: level.Quantity})
	}
	return out
}

func cumulative(levels []types.PriceLevel) []LadderLevel {
	out := make([]LadderLevel, 0, len(levels))
	total := decimal.Zero
	for _, level := range levels {
		total = total.Add(level.Quantity)
		out = append(out, LadderLevel{
			Price:      level.Price,
			Quantity:   level.Quantity,
			Cumulative: total,
		})
	}
	return out
}
