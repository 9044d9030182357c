package exchange

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"depthsim/internal/types"
)

// Venue represents supported exchange identifiers
type Venue string

const (
	OKX     Venue = "OKX"
	Bybit   Venue = "Bybit"
	Deribit Venue = "Deribit"
)

var (
	// ErrUnsupportedVenue is returned for any venue outside the closed set
	ErrUnsupportedVenue = errors.New("unsupported venue")

	// ErrTransport covers dial failures and read/write errors on the socket
	ErrTransport = errors.New("transport error")

	// ErrTransportClosed is reported when the venue closes the connection
	ErrTransportClosed = errors.New("transport closed")

	// ErrMalformedMessage marks an inbound payload that could not be parsed
	ErrMalformedMessage = errors.New("malformed message")
)

// Error is a feed error whose message is shown to users verbatim while
// still matching its sentinel kind with errors.Is.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Errorf builds an *Error of the given kind
func Errorf(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ParseVenue resolves a venue name case-insensitively
func ParseVenue(name string) (Venue, error) {
	for _, v := range []Venue{OKX, Bybit, Deribit} {
		if strings.EqualFold(string(v), strings.TrimSpace(name)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedVenue, name)
}

// Adapter translates between a venue's wire format and the canonical model.
// Implementations hold no connection state and perform no I/O.
type Adapter interface {
	// Venue returns the venue this adapter speaks for
	Venue() Venue

	// Endpoint returns the public websocket URL
	Endpoint() string

	// BuildSubscription returns the subscribe payload for symbol ("BASE-QUOTE").
	// ok is false when the symbol cannot be expressed for this venue.
	BuildSubscription(symbol string) (payload []byte, ok bool)

	// Parse classifies and decodes one inbound message. It never panics;
	// anything it cannot understand comes back as KindIgnore.
	Parse(raw []byte) Message

	// Keepalive returns the application-level ping the venue requires, if any
	Keepalive() (payload []byte, interval time.Duration, ok bool)
}

// MessageKind classifies a parsed inbound message
type MessageKind int

const (
	// KindIgnore is an unrecognized or malformed payload
	KindIgnore MessageKind = iota
	// KindControl is a pong or subscription acknowledgement
	KindControl
	// KindSnapshot carries the full book
	KindSnapshot
	// KindDelta carries changed levels; zero quantity removes a level
	KindDelta
)

func (k MessageKind) String() string {
	switch k {
	case KindControl:
		return "control"
	case KindSnapshot:
		return "snapshot"
	case KindDelta:
		return "delta"
	default:
		return "ignore"
	}
}

// Message is the canonical result of parsing one inbound venue message
type Message struct {
	Kind      MessageKind
	Bids      []types.PriceLevel
	Asks      []types.PriceLevel
	Timestamp int64 // epoch milliseconds, 0 when the venue sent none
	Err       error // set for KindIgnore when the payload was malformed
}

// Ignore builds a KindIgnore message wrapping the cause
func Ignore(err error) Message {
	if err == nil {
		return Message{Kind: KindIgnore}
	}
	return Message{Kind: KindIgnore, Err: fmt.Errorf("%w: %v", ErrMalformedMessage, err)}
}

// Control builds a KindControl message
func Control() Message {
	return Message{Kind: KindControl}
}

// SplitSymbol splits "BASE-QUOTE" into its parts
func SplitSymbol(symbol string) (base, quote string, ok bool) {
	base, quote, found := strings.Cut(strings.ToUpper(strings.TrimSpace(symbol)), "-")
	if !found || base == "" || quote == "" {
		return "", "", false
	}
	return base, quote, true
}
