package deribit

import (
	"encoding/json"
	"fmt"
	"time"

	"depthsim/internal/exchange"
)

const (
	wsURL = "wss://www.deribit.com/ws/api/v2"

	// none grouping, 20 levels, 100ms aggregation: every push is a full book
	bookChannelFormat = "book.%s.none.20.100ms"
)

// Adapter implements exchange.Adapter for Deribit perpetuals
type Adapter struct{}

// NewAdapter creates a new Deribit adapter
func NewAdapter() *Adapter {
	return &Adapter{}
}

// Venue returns the exchange name
func (a *Adapter) Venue() exchange.Venue {
	return exchange.Deribit
}

// Endpoint returns the public websocket URL
func (a *Adapter) Endpoint() string {
	return wsURL
}

// BuildSubscription builds the public/subscribe request for symbol
func (a *Adapter) BuildSubscription(symbol string) ([]byte, bool) {
	instrument, ok := ConvertSymbol(symbol)
	if !ok {
		return nil, false
	}

	payload, err := json.Marshal(SubscribeMessage{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "public/subscribe",
		Params: SubscribeParams{
			Channels: []string{fmt.Sprintf(bookChannelFormat, instrument)},
		},
	})
	if err != nil {
		return nil, false
	}
	return payload, true
}

// Keepalive reports that Deribit relies on transport-level keepalive
func (a *Adapter) Keepalive() ([]byte, time.Duration, bool) {
	return nil, 0, false
}

// Parse decodes one Deribit message
func (a *Adapter) Parse(raw []byte) exchange.Message {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return exchange.Ignore(err)
	}

	if msg.Error != nil {
		ctrl := exchange.Control()
		ctrl.Err = fmt.Errorf("deribit error: code=%d, msg=%s", msg.Error.Code, msg.Error.Message)
		return ctrl
	}

	if msg.IsControl() {
		return exchange.Control()
	}

	if msg.Params == nil || msg.Params.Data == nil {
		return exchange.Ignore(nil)
	}

	book := msg.Params.Data
	bids, err := book.Bids.PriceLevels()
	if err != nil {
		return exchange.Ignore(fmt.Errorf("bids: %w", err))
	}
	asks, err := book.Asks.PriceLevels()
	if err != nil {
		return exchange.Ignore(fmt.Errorf("asks: %w", err))
	}

	return exchange.Message{
		Kind:      exchange.KindSnapshot,
		Bids:      bids,
		Asks:      asks,
		Timestamp: book.Timestamp,
	}
}

// ConvertSymbol converts "BASE-QUOTE" to the Deribit perpetual instrument
// Examples: BTC-USD -> BTC-PERPETUAL
func ConvertSymbol(symbol string) (string, bool) {
	base, _, ok := exchange.SplitSymbol(symbol)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s-PERPETUAL", base), true
}
