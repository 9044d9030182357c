package factory

import (
	"fmt"

	"depthsim/internal/exchange"
	"depthsim/internal/exchange/bybit"
	"depthsim/internal/exchange/deribit"
	"depthsim/internal/exchange/okx"
)

// NewAdapter returns the protocol adapter for venue
func NewAdapter(venue exchange.Venue) (exchange.Adapter, error) {
	switch venue {
	case exchange.OKX:
		return okx.NewAdapter(), nil

	case exchange.Bybit:
		return bybit.NewAdapter(), nil

	case exchange.Deribit:
		return deribit.NewAdapter(), nil

	default:
		return nil, fmt.Errorf("%w: %s", exchange.ErrUnsupportedVenue, venue)
	}
}

// SupportedVenues returns a list of all supported venues
func SupportedVenues() []exchange.Venue {
	return []exchange.Venue{exchange.OKX, exchange.Bybit, exchange.Deribit}
}
