package bybit

import (
	"encoding/json"
	"fmt"
	"time"

	"depthsim/internal/exchange"
)

const (
	wsURL        = "wss://stream.bybit.com/v5/public/linear"
	bookDepth    = 50
	pingInterval = 20 * time.Second
)

// Adapter implements exchange.Adapter for Bybit linear contracts
type Adapter struct {
	ping []byte
}

// NewAdapter creates a new Bybit adapter
func NewAdapter() *Adapter {
	ping, _ := json.Marshal(PingMessage{Op: "ping"})
	return &Adapter{ping: ping}
}

// Venue returns the exchange name
func (a *Adapter) Venue() exchange.Venue {
	return exchange.Bybit
}

// Endpoint returns the public websocket URL
func (a *Adapter) Endpoint() string {
	return wsURL
}

// BuildSubscription builds the orderbook.50 subscription for symbol
func (a *Adapter) BuildSubscription(symbol string) ([]byte, bool) {
	bybitSymbol, ok := ConvertSymbol(symbol)
	if !ok {
		return nil, false
	}

	payload, err := json.Marshal(SubscribeMessage{
		Op:   "subscribe",
		Args: []string{fmt.Sprintf("orderbook.%d.%s", bookDepth, bybitSymbol)},
	})
	if err != nil {
		return nil, false
	}
	return payload, true
}

// Keepalive returns the {"op":"ping"} message Bybit expects every 20 seconds
func (a *Adapter) Keepalive() ([]byte, time.Duration, bool) {
	return a.ping, pingInterval, true
}

// Parse decodes one Bybit message
func (a *Adapter) Parse(raw []byte) exchange.Message {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return exchange.Ignore(err)
	}

	if msg.Op == "subscribe" && !msg.Success {
		ctrl := exchange.Control()
		ctrl.Err = fmt.Errorf("bybit subscribe rejected: %s", msg.RetMsg)
		return ctrl
	}

	if msg.IsControl() {
		return exchange.Control()
	}

	if msg.Data == nil {
		return exchange.Ignore(nil)
	}

	bids, err := msg.Data.Bids.PriceLevels()
	if err != nil {
		return exchange.Ignore(fmt.Errorf("bids: %w", err))
	}
	asks, err := msg.Data.Asks.PriceLevels()
	if err != nil {
		return exchange.Ignore(fmt.Errorf("asks: %w", err))
	}

	kind := exchange.KindSnapshot
	if msg.Type == "delta" {
		kind = exchange.KindDelta
	}

	return exchange.Message{
		Kind:      kind,
		Bids:      bids,
		Asks:      asks,
		Timestamp: msg.TS,
	}
}

// ConvertSymbol converts "BASE-QUOTE" to Bybit notation
// Examples: BTC-USD -> BTCUSDT
func ConvertSymbol(symbol string) (string, bool) {
	base, quote, ok := exchange.SplitSymbol(symbol)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s%sT", base, quote), true
}
