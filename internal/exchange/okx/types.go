package okx

import "depthsim/internal/exchange"

// SubscribeMessage represents a subscription request
type SubscribeMessage struct {
	Op   string         `json:"op"`
	Args []SubscribeArg `json:"args"`
}

// SubscribeArg identifies one channel/instrument pair
type SubscribeArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

// WSMessage represents a WebSocket message from OKX
type WSMessage struct {
	exchange.ControlEnvelope
	Code   string          `json:"code,omitempty"`
	Msg    string          `json:"msg,omitempty"`
	Arg    *SubscribeArg   `json:"arg,omitempty"`
	Action string          `json:"action,omitempty"` // "snapshot" or "update"
	Data   []OrderBookData `json:"data"`
}

// OrderBookData represents the orderbook payload of a books message
type OrderBookData struct {
	Asks     exchange.RawLevels `json:"asks"` // [price, quantity, deprecated, order_count]
	Bids     exchange.RawLevels `json:"bids"` // [price, quantity, deprecated, order_count]
	Ts       string             `json:"ts"`   // timestamp
	Checksum int64              `json:"checksum"`
}
