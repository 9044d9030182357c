package deribit

import "depthsim/internal/exchange"

// SubscribeMessage represents a JSON-RPC subscription request
type SubscribeMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  SubscribeParams `json:"params"`
}

// SubscribeParams lists the channels to subscribe
type SubscribeParams struct {
	Channels []string `json:"channels"`
}

// WSMessage represents a JSON-RPC message from Deribit (response or notification)
type WSMessage struct {
	exchange.ControlEnvelope
	JSONRPC string        `json:"jsonrpc"`
	ID      *int          `json:"id,omitempty"`
	Method  string        `json:"method,omitempty"`
	Error   *RPCError     `json:"error,omitempty"`
	Params  *Notification `json:"params,omitempty"`
}

// RPCError is a JSON-RPC error object
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Notification is the params object of a subscription push
type Notification struct {
	Channel string    `json:"channel"`
	Data    *BookData `json:"data"`
}

// BookData represents a grouped book notification (always a full book)
type BookData struct {
	InstrumentName string             `json:"instrument_name"`
	Timestamp      int64              `json:"timestamp"`
	ChangeID       int64              `json:"change_id"`
	Bids           exchange.RawLevels `json:"bids"` // [price, amount]
	Asks           exchange.RawLevels `json:"asks"` // [price, amount]
}
