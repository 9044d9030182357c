package okx

import (
	"testing"

	"depthsim/internal/exchange"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSubscription(t *testing.T) {
	payload, ok := NewAdapter().BuildSubscription("BTC-USD")
	require.True(t, ok)
	assert.JSONEq(t, `{"op":"subscribe","args":[{"channel":"books","instId":"BTC-USDT"}]}`, string(payload))

	_, ok = NewAdapter().BuildSubscription("BTCUSD")
	assert.False(t, ok)
}

func TestConvertSymbol(t *testing.T) {
	tests := map[string]string{
		"BTC-USD":  "BTC-USDT",
		"eth-usd":  "ETH-USDT",
		"DOGE-USD": "DOGE-USDT",
	}
	for in, want := range tests {
		got, ok := ConvertSymbol(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got)
	}
}

func TestParse(t *testing.T) {
	a := NewAdapter()

	tests := []struct {
		name string
		raw  string
		kind exchange.MessageKind
		err  bool
	}{
		{"bare pong", `pong`, exchange.KindControl, false},
		{"subscribe ack", `{"event":"subscribe","arg":{"channel":"books","instId":"BTC-USDT"},"connId":"a4d3ae55"}`, exchange.KindControl, false},
		{"error event", `{"event":"error","code":"60012","msg":"Invalid request"}`, exchange.KindControl, true},
		{"snapshot", `{"arg":{"channel":"books","instId":"BTC-USDT"},"action":"snapshot","data":[{"asks":[["41006.8","0.60038921","0","1"]],"bids":[["41006.3","0.30178218","0","2"]],"ts":"1629966436396","checksum":-855196043}]}`, exchange.KindSnapshot, false},
		{"update", `{"arg":{"channel":"books","instId":"BTC-USDT"},"action":"update","data":[{"asks":[["41006.8","0","0","0"]],"bids":[],"ts":"1629966436400","checksum":1}]}`, exchange.KindDelta, false},
		{"not json", `{"arg":`, exchange.KindIgnore, true},
		{"no data", `{"arg":{"channel":"books"}}`, exchange.KindIgnore, false},
		{"short level", `{"action":"snapshot","data":[{"asks":[["41006.8"]],"bids":[],"ts":"1"}]}`, exchange.KindIgnore, true},
		{"bad number", `{"action":"snapshot","data":[{"asks":[["abc","1"]],"bids":[],"ts":"1"}]}`, exchange.KindIgnore, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := a.Parse([]byte(tt.raw))
			assert.Equal(t, tt.kind, msg.Kind)
			assert.Equal(t, tt.err, msg.Err != nil, "err = %v", msg.Err)
		})
	}
}

func TestParseSnapshotLevels(t *testing.T) {
	raw := `{"arg":{"channel":"books","instId":"BTC-USDT"},"action":"snapshot","data":[{"asks":[["41006.8","0.6","0","1"],["41007.1","1.2","0","3"]],"bids":[["41006.3","0.3","0","2"]],"ts":"1629966436396"}]}`

	msg := NewAdapter().Parse([]byte(raw))
	require.Equal(t, exchange.KindSnapshot, msg.Kind)
	require.Len(t, msg.Asks, 2)
	require.Len(t, msg.Bids, 1)
	assert.True(t, msg.Asks[0].Price.Equal(decimal.RequireFromString("41006.8")))
	assert.True(t, msg.Asks[1].Quantity.Equal(decimal.RequireFromString("1.2")))
	assert.True(t, msg.Bids[0].Price.Equal(decimal.RequireFromString("41006.3")))
	assert.Equal(t, int64(1629966436396), msg.Timestamp)
}

func TestKeepalive(t *testing.T) {
	_, _, ok := NewAdapter().Keepalive()
	assert.False(t, ok)
}
