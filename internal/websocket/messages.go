package websocket

import (
	"fmt"

	"depthsim/internal/aggregation"
	"depthsim/internal/orderbook"
	"depthsim/internal/simulation"
	"depthsim/internal/types"

	"github.com/shopspring/decimal"
)

type MessageType string

const (
	MessageTypeOrderbook  MessageType = "orderbook"
	MessageTypeStats      MessageType = "stats"
	MessageTypeImbalance  MessageType = "imbalance"
	MessageTypeStatus     MessageType = "status"
	MessageTypeSimulation MessageType = "simulation"
	MessageTypeSimulating MessageType = "simulating"
	MessageTypeTick       MessageType = "tick"
	MessageTypeError      MessageType = "error"
)

// ClientMessage represents messages sent from client to server
type ClientMessage struct {
	Type   string        `json:"type"`
	Venue  string        `json:"venue,omitempty"`
	Symbol string        `json:"symbol,omitempty"`
	Tick   float64       `json:"tick,omitempty"`
	Order  *OrderRequest `json:"order,omitempty"`
}

// OrderRequest is the wire form of a simulated order
type OrderRequest struct {
	Venue    string          `json:"venue"`
	Symbol   string          `json:"symbol"`
	Kind     string          `json:"kind"`
	Side     string          `json:"side"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`

	// DelaySeconds runs the simulation against the book as of that many
	// seconds later (0, 5, 10 or 30)
	DelaySeconds int `json:"delaySeconds,omitempty"`
}

// Order validates the request and builds a simulation.Order
func (r OrderRequest) Order() (simulation.Order, error) {
	kind, err := simulation.ParseKind(r.Kind)
	if err != nil {
		return simulation.Order{}, err
	}
	side, err := simulation.ParseSide(r.Side)
	if err != nil {
		return simulation.Order{}, err
	}
	return simulation.NewOrder(r.Venue, r.Symbol, kind, side, r.Price, r.Quantity)
}

type OrderbookMessage struct {
	Type      MessageType               `json:"type"`
	Venue     string                    `json:"venue"`
	Symbol    string                    `json:"symbol"`
	Tick      float64                   `json:"tick"`
	Synthetic bool                      `json:"synthetic"`
	LastPrice string                    `json:"lastPrice"`
	Bids      []aggregation.LadderLevel `json:"bids"`
	Asks      []aggregation.LadderLevel `json:"asks"`
	Timestamp int64                     `json:"timestamp"`
}

type StatsMessage struct {
	Type                MessageType `json:"type"`
	Venue               string      `json:"venue"`
	BestBid             string      `json:"bestBid"`
	BestAsk             string      `json:"bestAsk"`
	MidPrice            string      `json:"midPrice"`
	Spread              string      `json:"spread"`
	BidLiquidity05Pct   string      `json:"bidLiquidity05Pct"`
	AskLiquidity05Pct   string      `json:"askLiquidity05Pct"`
	DeltaLiquidity05Pct string      `json:"deltaLiquidity05Pct"`
	BidLiquidity2Pct    string      `json:"bidLiquidity2Pct"`
	AskLiquidity2Pct    string      `json:"askLiquidity2Pct"`
	DeltaLiquidity2Pct  string      `json:"deltaLiquidity2Pct"`
	BidLiquidity10Pct   string      `json:"bidLiquidity10Pct"`
	AskLiquidity10Pct   string      `json:"askLiquidity10Pct"`
	DeltaLiquidity10Pct string      `json:"deltaLiquidity10Pct"`
	TotalBidsQty        string      `json:"totalBidsQty"`
	TotalAsksQty        string      `json:"totalAsksQty"`
	TotalDelta          string      `json:"totalDelta"`
	Timestamp           int64       `json:"timestamp"`
}

type ImbalanceMessage struct {
	Type          MessageType `json:"type"`
	Venue         string      `json:"venue"`
	BidVolume     string      `json:"bidVolume"`
	AskVolume     string      `json:"askVolume"`
	BidPercentage string      `json:"bidPercentage"`
	AskPercentage string      `json:"askPercentage"`
	Ratio         string      `json:"ratio"`
	Pressure      string      `json:"pressure"`
	Strength      string      `json:"strength"`
}

type StatusMessage struct {
	Type      MessageType `json:"type"`
	Venue     string      `json:"venue"`
	Symbol    string      `json:"symbol"`
	Phase     types.Phase `json:"phase"`
	Reason    string      `json:"reason,omitempty"`
	Connected bool        `json:"connected"`
	Error     string      `json:"error,omitempty"`
}

type SimulationMessage struct {
	Type    MessageType        `json:"type"`
	Order   simulation.Order   `json:"order"`
	Metrics simulation.Metrics `json:"metrics"`
}

// SimulatingMessage acknowledges a delayed simulation
type SimulatingMessage struct {
	Type         MessageType `json:"type"`
	DelaySeconds int         `json:"delaySeconds"`
}

type TickMessage struct {
	Type MessageType `json:"type"`
	Tick float64     `json:"tick"`
}

type ErrorMessage struct {
	Type  MessageType `json:"type"`
	Error string      `json:"error"`
}

func newErrorMessage(format string, args ...interface{}) ErrorMessage {
	return ErrorMessage{Type: MessageTypeError, Error: fmt.Sprintf(format, args...)}
}

func buildOrderbookMessage(agg *aggregation.Aggregator, snap *types.BookSnapshot) OrderbookMessage {
	bids, asks := agg.Ladder(snap)
	return OrderbookMessage{
		Type:      MessageTypeOrderbook,
		Venue:     snap.Venue,
		Symbol:    snap.Symbol,
		Tick:      float64(agg.GetTickLevel()),
		Synthetic: snap.Synthetic,
		LastPrice: snap.LastPrice.String(),
		Bids:      bids,
		Asks:      asks,
		Timestamp: snap.Timestamp,
	}
}

func buildStatsMessage(snap *types.BookSnapshot) StatsMessage {
	stats := orderbook.CalculateStats(snap)

	return StatsMessage{
		Type:                MessageTypeStats,
		Venue:               snap.Venue,
		BestBid:             stats.BestBid.String(),
		BestAsk:             stats.BestAsk.String(),
		MidPrice:            stats.MidPrice.String(),
		Spread:              stats.Spread.String(),
		BidLiquidity05Pct:   stats.BidLiquidity05Pct.String(),
		AskLiquidity05Pct:   stats.AskLiquidity05Pct.String(),
		DeltaLiquidity05Pct: stats.DeltaLiquidity05Pct.String(),
		BidLiquidity2Pct:    stats.BidLiquidity2Pct.String(),
		AskLiquidity2Pct:    stats.AskLiquidity2Pct.String(),
		DeltaLiquidity2Pct:  stats.DeltaLiquidity2Pct.String(),
		BidLiquidity10Pct:   stats.BidLiquidity10Pct.String(),
		AskLiquidity10Pct:   stats.AskLiquidity10Pct.String(),
		DeltaLiquidity10Pct: stats.DeltaLiquidity10Pct.String(),
		TotalBidsQty:        stats.TotalBidsQty.String(),
		TotalAsksQty:        stats.TotalAsksQty.String(),
		TotalDelta:          stats.TotalDelta.String(),
		Timestamp:           snap.Timestamp,
	}
}

func buildImbalanceMessage(snap *types.BookSnapshot) (ImbalanceMessage, bool) {
	imb, ok := orderbook.CalculateImbalance(snap)
	if !ok {
		return ImbalanceMessage{}, false
	}
	return ImbalanceMessage{
		Type:          MessageTypeImbalance,
		Venue:         snap.Venue,
		BidVolume:     imb.BidVolume.StringFixed(4),
		AskVolume:     imb.AskVolume.StringFixed(4),
		BidPercentage: imb.BidPercentage.StringFixed(2),
		AskPercentage: imb.AskPercentage.StringFixed(2),
		Ratio:         imb.Ratio.StringFixed(2),
		Pressure:      string(imb.Type),
		Strength:      string(imb.Strength),
	}, true
}

func buildStatusMessage(venue, symbol string, status types.Status) StatusMessage {
	return StatusMessage{
		Type:      MessageTypeStatus,
		Venue:     venue,
		Symbol:    symbol,
		Phase:     status.State.Phase,
		Reason:    status.State.Reason,
		Connected: status.State.Connected(),
		Error:     status.ErrorMessage(),
	}
}
