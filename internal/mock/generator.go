// Package mock produces plausible synthetic order books for venues whose
// live feed is unavailable.
package mock

import (
	"math/rand"
	"sync"
	"time"

	"depthsim/internal/exchange"
	"depthsim/internal/types"

	"github.com/shopspring/decimal"
)

const (
	bandWidth   = 1000.0
	maxGap      = 50.0
	minGap      = 0.5
	maxSpread   = 10.0
	minQuantity = 1.0
	maxQuantity = 5.0
)

// base price bands keep the venues visually distinguishable
var bandStart = map[exchange.Venue]float64{
	exchange.OKX:     41000,
	exchange.Bybit:   42000,
	exchange.Deribit: 43900,
}

const defaultBandStart = 45000.0

// Generator builds synthetic snapshots. It is safe for concurrent use.
type Generator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	levels int
}

// NewGenerator creates a generator producing levels entries per side. A zero
// seed seeds from the clock.
func NewGenerator(seed int64, levels int) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if levels <= 0 {
		levels = 15
	}
	return &Generator{
		rng:    rand.New(rand.NewSource(seed)),
		levels: levels,
	}
}

// Generate returns a fresh synthetic snapshot for venue and symbol
func (g *Generator) Generate(venue, symbol string) *types.BookSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	start, ok := bandStart[exchange.Venue(venue)]
	if !ok {
		start = defaultBandStart
	}

	base := round2(start + g.rng.Float64()*bandWidth)
	halfSpread := round2(minGap + g.rng.Float64()*maxSpread)

	bids := make([]types.PriceLevel, 0, g.levels)
	price := base.Sub(halfSpread)
	for i := 0; i < g.levels && price.IsPositive(); i++ {
		bids = append(bids, types.PriceLevel{Price: price, Quantity: g.quantity()})
		price = price.Sub(g.gap())
	}

	asks := make([]types.PriceLevel, 0, g.levels)
	price = base.Add(halfSpread)
	for i := 0; i < g.levels; i++ {
		asks = append(asks, types.PriceLevel{Price: price, Quantity: g.quantity()})
		price = price.Add(g.gap())
	}

	return &types.BookSnapshot{
		Venue:     venue,
		Symbol:    symbol,
		Bids:      bids,
		Asks:      asks,
		LastPrice: base,
		Timestamp: time.Now().UnixMilli(),
		Synthetic: true,
	}
}

// gap must be called with mu held
func (g *Generator) gap() decimal.Decimal {
	return round2(minGap + g.rng.Float64()*maxGap)
}

// quantity must be called with mu held
func (g *Generator) quantity() decimal.Decimal {
	return round2(minQuantity + g.rng.Float64()*maxQuantity)
}

func round2(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}
