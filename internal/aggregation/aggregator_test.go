package aggregation

import (
	"testing"

	"depthsim/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func level(price, qty float64) types.PriceLevel {
	return types.PriceLevel{Price: decimal.NewFromFloat(price), Quantity: decimal.NewFromFloat(qty)}
}

func TestNew(t *testing.T) {
	agg := New(types.Tick1)
	require.NotNil(t, agg)
	assert.Equal(t, types.Tick1, agg.GetTickLevel())

	assert.Equal(t, types.Tick1, New(types.TickLevel(3)).GetTickLevel(), "unknown ticks fall back to 1")
}

func TestSetTickLevel(t *testing.T) {
	agg := New(types.Tick1)

	agg.SetTickLevel(types.Tick10)
	assert.Equal(t, types.Tick10, agg.GetTickLevel())

	assert.False(t, agg.TrySetTickLevel(types.TickLevel(7)))
	assert.Equal(t, types.Tick10, agg.GetTickLevel())
}

func TestTickUpDown(t *testing.T) {
	agg := New(types.Tick1)

	assert.Equal(t, types.Tick10, agg.TickUp())
	assert.Equal(t, types.Tick1, agg.TickDown())
	assert.Equal(t, types.Tick01, agg.TickDown())
	assert.Equal(t, types.Tick001, agg.TickDown())
	assert.Equal(t, types.Tick100, agg.TickDown(), "wraps to the coarsest tick")
	assert.Equal(t, types.Tick001, agg.TickUp(), "wraps to the finest tick")
}

func TestAggregateBids(t *testing.T) {
	tests := []struct {
		name       string
		tick       types.TickLevel
		levels     []types.PriceLevel
		wantPrices []string
	}{
		{
			name:       "no aggregation needed at tick 0.1",
			tick:       types.Tick01,
			levels:     []types.PriceLevel{level(50000.1, 1), level(50000.2, 1.5)},
			wantPrices: []string{"50000.2", "50000.1"},
		},
		{
			name:       "floors into one bucket at tick 1",
			tick:       types.Tick1,
			levels:     []types.PriceLevel{level(50000.1, 1), level(50000.9, 1.5)},
			wantPrices: []string{"50000"},
		},
		{
			name:       "floors into one bucket at tick 10",
			tick:       types.Tick10,
			levels:     []types.PriceLevel{level(50001, 1), level(50005, 1.5), level(50009, 2)},
			wantPrices: []string{"50000"},
		},
		{
			name:       "cent tick keeps cents",
			tick:       types.Tick001,
			levels:     []types.PriceLevel{level(41000.126, 1), level(41000.121, 1)},
			wantPrices: []string{"41000.12"},
		},
		{
			name:       "empty levels",
			tick:       types.Tick1,
			levels:     nil,
			wantPrices: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := New(tt.tick).AggregateBids(tt.levels)

			got := make([]string, len(result))
			total := decimal.Zero
			for i, l := range result {
				got[i] = l.Price.String()
				total = total.Add(l.Quantity)
			}
			assert.Equal(t, tt.wantPrices, got)

			want := decimal.Zero
			for _, l := range tt.levels {
				want = want.Add(l.Quantity)
			}
			assert.True(t, want.Equal(total), "quantity must be preserved")
		})
	}
}

func TestAggregateAsks(t *testing.T) {
	tests := []struct {
		name       string
		tick       types.TickLevel
		levels     []types.PriceLevel
		wantPrices []string
	}{
		{
			name:       "no aggregation needed at tick 0.1",
			tick:       types.Tick01,
			levels:     []types.PriceLevel{level(50001.2, 1.5), level(50001.1, 1)},
			wantPrices: []string{"50001.1", "50001.2"},
		},
		{
			name:       "ceils into one bucket at tick 1",
			tick:       types.Tick1,
			levels:     []types.PriceLevel{level(50001.1, 1), level(50001.9, 1.5)},
			wantPrices: []string{"50002"},
		},
		{
			name:       "ceils into one bucket at tick 10",
			tick:       types.Tick10,
			levels:     []types.PriceLevel{level(50001, 1), level(50005, 1.5), level(50009, 2)},
			wantPrices: []string{"50010"},
		},
		{
			name:       "aligned prices stay",
			tick:       types.Tick50,
			levels:     []types.PriceLevel{level(50000, 1), level(50050, 1)},
			wantPrices: []string{"50000", "50050"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := New(tt.tick).AggregateAsks(tt.levels)

			got := make([]string, len(result))
			for i, l := range result {
				got[i] = l.Price.String()
			}
			assert.Equal(t, tt.wantPrices, got)
		})
	}
}

func TestLadder(t *testing.T) {
	snap := &types.BookSnapshot{
		Bids: []types.PriceLevel{level(100.5, 1), level(100.2, 2), level(99.7, 3)},
		Asks: []types.PriceLevel{level(100.6, 1), level(101.4, 4)},
	}

	bids, asks := New(types.Tick1).Ladder(snap)

	require.Len(t, bids, 2)
	assert.Equal(t, "100", bids[0].Price.String())
	assert.Equal(t, "3", bids[0].Cumulative.String())
	assert.Equal(t, "99", bids[1].Price.String())
	assert.Equal(t, "6", bids[1].Cumulative.String())

	require.Len(t, asks, 2)
	assert.Equal(t, "101", asks[0].Price.String())
	assert.Equal(t, "102", asks[1].Price.String())
	assert.Equal(t, "5", asks[1].Cumulative.String())

	assert.True(t, bids[0].Price.LessThan(asks[0].Price), "aggregation never crosses the book")
}

func TestLadderNil(t *testing.T) {
	bids, asks := New(types.Tick1).Ladder(nil)
	assert.Empty(t, bids)
	assert.Empty(t, asks)
}

func BenchmarkAggregateBids(b *testing.B) {
	agg := New(types.Tick1)

	levels := make([]types.PriceLevel, 1000)
	for i := 0; i < 1000; i++ {
		levels[i] = level(50000-float64(i)+0.5, 1)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		agg.AggregateBids(levels)
	}
}

func BenchmarkAggregateAsks(b *testing.B) {
	agg := New(types.Tick1)

	levels := make([]types.PriceLevel, 1000)
	for i := 0; i < 1000; i++ {
		levels[i] = level(50001+float64(i)+0.5, 1)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		agg.AggregateAsks(levels)
	}
}
