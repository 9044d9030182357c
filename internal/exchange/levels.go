package exchange

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"depthsim/internal/types"

	"github.com/shopspring/decimal"
)

// RawLevels decodes [[price, size, ...], ...] where entries may be JSON
// strings or numbers. Extra trailing fields (order counts etc.) are ignored.
type RawLevels [][]decimal.Decimal

// PriceLevels converts raw levels to canonical levels, preserving zero
// quantities so deltas can express deletions.
func (r RawLevels) PriceLevels() ([]types.PriceLevel, error) {
	levels := make([]types.PriceLevel, 0, len(r))
	for i, entry := range r {
		if len(entry) < 2 {
			return nil, fmt.Errorf("level %d has %d fields", i, len(entry))
		}
		levels = append(levels, types.PriceLevel{
			Price:    entry[0],
			Quantity: entry[1],
		})
	}
	return levels, nil
}

// ControlEnvelope holds the fields that mark keepalive responses and
// subscription acknowledgements across venues.
type ControlEnvelope struct {
	Op      string          `json:"op,omitempty"`
	Pong    json.RawMessage `json:"pong,omitempty"`
	Success bool            `json:"success,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Event   string          `json:"event,omitempty"`
}

// IsControl reports whether the envelope is a pong or an acknowledgement
func (c ControlEnvelope) IsControl() bool {
	return c.Op == "pong" || len(c.Pong) > 0 || c.Success || len(c.Result) > 0 || c.Event != ""
}

// IsBarePong matches venues that answer keepalives with a plain-text "pong"
func IsBarePong(raw []byte) bool {
	return strings.EqualFold(strings.TrimSpace(string(raw)), "pong")
}

// ParseMillis parses an epoch-millisecond timestamp sent as a string
func ParseMillis(ts string) int64 {
	if ts == "" {
		return 0
	}
	ms, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return 0
	}
	return ms
}
