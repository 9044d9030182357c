package orderbook

import (
	"sync"
	"time"

	"depthsim/internal/exchange"
	"depthsim/internal/types"

	"github.com/shopspring/decimal"
)

// Book merges the snapshot and delta stream of one venue connection into
// canonical snapshots. A Book belongs to exactly one connection.
type Book struct {
	mu            sync.RWMutex
	bids          map[string]types.PriceLevel
	asks          map[string]types.PriceLevel
	initialized   bool
	lastTimestamp int64
}

// New creates an empty Book
func New() *Book {
	return &Book{
		bids: make(map[string]types.PriceLevel),
		asks: make(map[string]types.PriceLevel),
	}
}

// Load replaces the book with the levels of a full snapshot message
func (b *Book) Load(msg exchange.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.bids = make(map[string]types.PriceLevel, len(msg.Bids))
	b.asks = make(map[string]types.PriceLevel, len(msg.Asks))
	applyLevels(b.bids, msg.Bids)
	applyLevels(b.asks, msg.Asks)

	b.initialized = true
	b.touch(msg.Timestamp)
}

// Apply merges a delta message into the book. A zero quantity removes the
// level. Deltas arriving before the first snapshot are dropped and Apply
// reports false.
func (b *Book) Apply(msg exchange.Message) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return false
	}

	applyLevels(b.bids, msg.Bids)
	applyLevels(b.asks, msg.Asks)
	b.touch(msg.Timestamp)
	return true
}

// Snapshot renders the current book as a fresh BookSnapshot, keeping at most
// maxLevels per side. LastPrice is the best bid.
func (b *Book) Snapshot(venue, symbol string, maxLevels int) *types.BookSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bids := make([]types.PriceLevel, 0, len(b.bids))
	for _, level := range b.bids {
		bids = append(bids, level)
	}
	asks := make([]types.PriceLevel, 0, len(b.asks))
	for _, level := range b.asks {
		asks = append(asks, level)
	}

	snap := &types.BookSnapshot{
		Venue:     venue,
		Symbol:    symbol,
		Bids:      types.NormalizeBids(bids, maxLevels),
		Asks:      types.NormalizeAsks(asks, maxLevels),
		LastPrice: decimal.Zero,
		Timestamp: b.lastTimestamp,
	}
	if best, ok := snap.BestBid(); ok {
		snap.LastPrice = best.Price
	}
	return snap
}

// touch advances the book timestamp (must be called with mutex locked).
// Timestamps never move backwards within one connection.
func (b *Book) touch(ts int64) {
	if ts <= 0 {
		ts = time.Now().UnixMilli()
	}
	if ts > b.lastTimestamp {
		b.lastTimestamp = ts
	}
}

func applyLevels(side map[string]types.PriceLevel, levels []types.PriceLevel) {
	for _, level := range levels {
		if !level.Price.IsPositive() {
			continue
		}
		key := level.Price.String()
		if !level.Quantity.IsPositive() {
			delete(side, key)
			continue
		}
		side[key] = level
	}
}
