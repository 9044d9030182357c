package bybit

import "depthsim/internal/exchange"

// WSMessage represents a WebSocket message from Bybit
type WSMessage struct {
	exchange.ControlEnvelope
	RetMsg string         `json:"ret_msg,omitempty"`
	Topic  string         `json:"topic"`
	Type   string         `json:"type"` // "snapshot" or "delta"
	TS     int64          `json:"ts"`
	Data   *OrderbookData `json:"data"`
	CTS    int64          `json:"cts"` // matching engine timestamp
}

// OrderbookData represents the orderbook data from Bybit
type OrderbookData struct {
	Symbol   string             `json:"s"`
	Bids     exchange.RawLevels `json:"b"` // [price, size]
	Asks     exchange.RawLevels `json:"a"` // [price, size]
	UpdateID int64              `json:"u"`
	SeqNum   int64              `json:"seq"`
}

// SubscribeMessage represents a subscription request
type SubscribeMessage struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

// PingMessage is the application-level keepalive
type PingMessage struct {
	Op string `json:"op"`
}
