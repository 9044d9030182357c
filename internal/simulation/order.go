package simulation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidOrder is returned when an order cannot be simulated
var ErrInvalidOrder = errors.New("invalid order")

// Kind is the order type
type Kind string

const (
	Market Kind = "market"
	Limit  Kind = "limit"
)

// Side is the order direction
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// ParseKind resolves an order kind case-insensitively
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Market:
		return Market, nil
	case Limit:
		return Limit, nil
	default:
		return "", fmt.Errorf("%w: unknown order kind %q", ErrInvalidOrder, s)
	}
}

// ParseSide resolves an order side case-insensitively
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	default:
		return "", fmt.Errorf("%w: unknown order side %q", ErrInvalidOrder, s)
	}
}

// Order is a hypothetical order. It is immutable once built; a new
// simulation takes a new Order.
type Order struct {
	Venue       string          `json:"venue"`
	Symbol      string          `json:"symbol"`
	Kind        Kind            `json:"kind"`
	Side        Side            `json:"side"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
	RequestedAt time.Time       `json:"requestedAt"`
}

// NewOrder validates its inputs and returns an Order stamped with the
// current time. Market orders carry no price; any price given is dropped.
func NewOrder(venue, symbol string, kind Kind, side Side, price, quantity decimal.Decimal) (Order, error) {
	order := Order{
		Venue:       venue,
		Symbol:      symbol,
		Kind:        kind,
		Side:        side,
		Price:       price,
		Quantity:    quantity,
		RequestedAt: time.Now(),
	}
	if kind == Market {
		order.Price = decimal.Zero
	}
	if err := order.Validate(); err != nil {
		return Order{}, err
	}
	return order, nil
}

// Validate checks the order fields
func (o Order) Validate() error {
	if o.Venue == "" {
		return fmt.Errorf("%w: venue is required", ErrInvalidOrder)
	}
	if o.Kind != Market && o.Kind != Limit {
		return fmt.Errorf("%w: unknown order kind %q", ErrInvalidOrder, o.Kind)
	}
	if o.Side != Buy && o.Side != Sell {
		return fmt.Errorf("%w: unknown order side %q", ErrInvalidOrder, o.Side)
	}
	if !o.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive, got %s", ErrInvalidOrder, o.Quantity)
	}
	if o.Kind == Limit && !o.Price.IsPositive() {
		return fmt.Errorf("%w: limit price must be positive, got %s", ErrInvalidOrder, o.Price)
	}
	return nil
}
