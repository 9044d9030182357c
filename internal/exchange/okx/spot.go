package okx

import (
	"encoding/json"
	"fmt"
	"time"

	"depthsim/internal/exchange"
)

const (
	wsURL       = "wss://ws.okx.com:8443/ws/v5/public"
	bookChannel = "books"
)

// Adapter implements exchange.Adapter for the OKX public books channel
type Adapter struct{}

// NewAdapter creates a new OKX adapter
func NewAdapter() *Adapter {
	return &Adapter{}
}

// Venue returns the exchange name
func (a *Adapter) Venue() exchange.Venue {
	return exchange.OKX
}

// Endpoint returns the public websocket URL
func (a *Adapter) Endpoint() string {
	return wsURL
}

// BuildSubscription builds the books subscription for symbol
func (a *Adapter) BuildSubscription(symbol string) ([]byte, bool) {
	instID, ok := ConvertSymbol(symbol)
	if !ok {
		return nil, false
	}

	payload, err := json.Marshal(SubscribeMessage{
		Op:   "subscribe",
		Args: []SubscribeArg{{Channel: bookChannel, InstID: instID}},
	})
	if err != nil {
		return nil, false
	}
	return payload, true
}

// Keepalive reports that OKX relies on transport-level keepalive
func (a *Adapter) Keepalive() ([]byte, time.Duration, bool) {
	return nil, 0, false
}

// Parse decodes one OKX message
func (a *Adapter) Parse(raw []byte) exchange.Message {
	if exchange.IsBarePong(raw) {
		return exchange.Control()
	}

	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return exchange.Ignore(err)
	}

	if msg.IsControl() {
		ctrl := exchange.Control()
		if msg.Event == "error" {
			ctrl.Err = fmt.Errorf("okx error event: code=%s, msg=%s", msg.Code, msg.Msg)
		}
		return ctrl
	}

	if len(msg.Data) == 0 {
		return exchange.Ignore(nil)
	}

	book := msg.Data[0]
	bids, err := book.Bids.PriceLevels()
	if err != nil {
		return exchange.Ignore(fmt.Errorf("bids: %w", err))
	}
	asks, err := book.Asks.PriceLevels()
	if err != nil {
		return exchange.Ignore(fmt.Errorf("asks: %w", err))
	}

	kind := exchange.KindSnapshot
	if msg.Action == "update" {
		kind = exchange.KindDelta
	}

	return exchange.Message{
		Kind:      kind,
		Bids:      bids,
		Asks:      asks,
		Timestamp: exchange.ParseMillis(book.Ts),
	}
}

// ConvertSymbol converts "BASE-QUOTE" to OKX notation
// Examples: BTC-USD -> BTC-USDT, ETH-USD -> ETH-USDT
func ConvertSymbol(symbol string) (string, bool) {
	base, quote, ok := exchange.SplitSymbol(symbol)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s-%sT", base, quote), true
}
