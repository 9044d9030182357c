package deribit

import (
	"testing"

	"depthsim/internal/exchange"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSubscription(t *testing.T) {
	payload, ok := NewAdapter().BuildSubscription("SOL-USD")
	require.True(t, ok)
	assert.Equal(t,
		`{"jsonrpc":"2.0","id":1,"method":"public/subscribe","params":{"channels":["book.SOL-PERPETUAL.none.20.100ms"]}}`,
		string(payload))
}

func TestParse(t *testing.T) {
	a := NewAdapter()

	tests := []struct {
		name string
		raw  string
		kind exchange.MessageKind
		err  bool
	}{
		{"subscribe result", `{"jsonrpc":"2.0","id":1,"result":["book.BTC-PERPETUAL.none.20.100ms"],"usIn":1,"usOut":2}`, exchange.KindControl, false},
		{"rpc error", `{"jsonrpc":"2.0","id":1,"error":{"code":11050,"message":"bad_request"}}`, exchange.KindControl, true},
		{"book", `{"jsonrpc":"2.0","method":"subscription","params":{"channel":"book.BTC-PERPETUAL.none.20.100ms","data":{"timestamp":1554375447971,"instrument_name":"BTC-PERPETUAL","change_id":109615,"bids":[[5042.34,30],[5041.94,20]],"asks":[[5042.64,40]]}}}`, exchange.KindSnapshot, false},
		{"heartbeat", `{"jsonrpc":"2.0","method":"heartbeat","params":{"type":"heartbeat"}}`, exchange.KindIgnore, false},
		{"truncated", `{"jsonrpc":"2.0","method":"subscription","params":{"data":{"bids":[[5042.34`, exchange.KindIgnore, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := a.Parse([]byte(tt.raw))
			assert.Equal(t, tt.kind, msg.Kind)
			assert.Equal(t, tt.err, msg.Err != nil, "err = %v", msg.Err)
		})
	}
}

func TestParseNumericLevels(t *testing.T) {
	raw := `{"jsonrpc":"2.0","method":"subscription","params":{"channel":"book.BTC-PERPETUAL.none.20.100ms","data":{"timestamp":1554375447971,"bids":[[5042.34,30]],"asks":[[5042.64,40]]}}}`

	msg := NewAdapter().Parse([]byte(raw))
	require.Equal(t, exchange.KindSnapshot, msg.Kind)
	assert.True(t, msg.Bids[0].Price.Equal(decimal.RequireFromString("5042.34")))
	assert.True(t, msg.Asks[0].Quantity.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, int64(1554375447971), msg.Timestamp)
}
