package orderbook

import (
	"testing"

	"depthsim/internal/exchange"
	"depthsim/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lvl(price, qty string) types.PriceLevel {
	return types.PriceLevel{
		Price:    decimal.RequireFromString(price),
		Quantity: decimal.RequireFromString(qty),
	}
}

func prices(levels []types.PriceLevel) []string {
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = l.Price.String()
	}
	return out
}

func TestLoadAndSnapshot(t *testing.T) {
	book := New()
	book.Load(exchange.Message{
		Kind:      exchange.KindSnapshot,
		Bids:      []types.PriceLevel{lvl("99", "1"), lvl("100", "2"), lvl("98", "0")},
		Asks:      []types.PriceLevel{lvl("102", "1"), lvl("101", "3")},
		Timestamp: 1000,
	})

	snap := book.Snapshot("OKX", "BTC-USD", 15)
	require.NoError(t, snap.Validate())
	assert.Equal(t, []string{"100", "99"}, prices(snap.Bids))
	assert.Equal(t, []string{"101", "102"}, prices(snap.Asks))
	assert.True(t, snap.LastPrice.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, int64(1000), snap.Timestamp)
	assert.Equal(t, "OKX", snap.Venue)
	assert.Equal(t, "BTC-USD", snap.Symbol)
	assert.False(t, snap.Synthetic)
}

func TestApplyDelta(t *testing.T) {
	book := New()
	book.Load(exchange.Message{
		Bids:      []types.PriceLevel{lvl("100", "2"), lvl("99", "1")},
		Asks:      []types.PriceLevel{lvl("101", "3"), lvl("102", "1")},
		Timestamp: 1000,
	})

	applied := book.Apply(exchange.Message{
		Kind:      exchange.KindDelta,
		Bids:      []types.PriceLevel{lvl("100", "0"), lvl("99.5", "4")},
		Asks:      []types.PriceLevel{lvl("101", "1.5")},
		Timestamp: 1100,
	})
	require.True(t, applied)

	snap := book.Snapshot("Bybit", "BTC-USD", 15)
	assert.Equal(t, []string{"99.5", "99"}, prices(snap.Bids))
	assert.True(t, snap.Asks[0].Quantity.Equal(decimal.RequireFromString("1.5")))
	assert.True(t, snap.LastPrice.Equal(decimal.RequireFromString("99.5")))
	assert.Equal(t, int64(1100), snap.Timestamp)
}

func TestApplyBeforeSnapshotIsDropped(t *testing.T) {
	book := New()
	assert.False(t, book.Apply(exchange.Message{Bids: []types.PriceLevel{lvl("100", "1")}}))
	assert.Empty(t, book.Snapshot("OKX", "BTC-USD", 15).Bids)
}

func TestPriceKeyIgnoresTrailingZeros(t *testing.T) {
	book := New()
	book.Load(exchange.Message{Bids: []types.PriceLevel{lvl("100.10", "1")}, Timestamp: 1})
	book.Apply(exchange.Message{Bids: []types.PriceLevel{lvl("100.1", "0")}, Timestamp: 2})

	assert.Empty(t, book.Snapshot("OKX", "BTC-USD", 15).Bids)
}

func TestSnapshotTruncates(t *testing.T) {
	book := New()
	var bids, asks []types.PriceLevel
	for i := 0; i < 30; i++ {
		bids = append(bids, types.PriceLevel{Price: decimal.NewFromInt(int64(1000 - i)), Quantity: decimal.NewFromInt(1)})
		asks = append(asks, types.PriceLevel{Price: decimal.NewFromInt(int64(1001 + i)), Quantity: decimal.NewFromInt(1)})
	}
	book.Load(exchange.Message{Bids: bids, Asks: asks, Timestamp: 1})

	snap := book.Snapshot("OKX", "BTC-USD", 15)
	require.Len(t, snap.Bids, 15)
	require.Len(t, snap.Asks, 15)
	assert.Equal(t, "1000", snap.Bids[0].Price.String())
	assert.Equal(t, "1001", snap.Asks[0].Price.String())
	assert.NoError(t, snap.Validate())
}

func TestTimestampNeverMovesBackwards(t *testing.T) {
	book := New()
	book.Load(exchange.Message{Bids: []types.PriceLevel{lvl("100", "1")}, Timestamp: 2000})
	book.Apply(exchange.Message{Bids: []types.PriceLevel{lvl("99", "1")}, Timestamp: 1500})

	assert.Equal(t, int64(2000), book.Snapshot("OKX", "BTC-USD", 15).Timestamp)
}

func TestMissingTimestampUsesClock(t *testing.T) {
	book := New()
	book.Load(exchange.Message{Bids: []types.PriceLevel{lvl("100", "1")}})

	assert.Positive(t, book.Snapshot("OKX", "BTC-USD", 15).Timestamp)
}

func TestSnapshotsAreIndependent(t *testing.T) {
	book := New()
	book.Load(exchange.Message{Bids: []types.PriceLevel{lvl("100", "1")}, Timestamp: 1})
	first := book.Snapshot("OKX", "BTC-USD", 15)

	book.Apply(exchange.Message{Bids: []types.PriceLevel{lvl("100", "0")}, Timestamp: 2})

	require.Len(t, first.Bids, 1)
	assert.Equal(t, "100", first.Bids[0].Price.String())
}
