package types

import "fmt"

// Phase is the lifecycle phase of one venue connection
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhaseOpen
	PhaseDegraded
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConnecting:
		return "connecting"
	case PhaseOpen:
		return "open"
	case PhaseDegraded:
		return "degraded"
	case PhaseClosed:
		return "closed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText renders the phase by name
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ConnectionState is the current phase plus, for Degraded, a human-readable reason.
// Degraded always means synthetic snapshots are being served.
type ConnectionState struct {
	Phase  Phase  `json:"phase"`
	Reason string `json:"reason,omitempty"`
}

// Connected reports whether live data is flowing
func (c ConnectionState) Connected() bool {
	return c.Phase == PhaseOpen
}

func (c ConnectionState) String() string {
	if c.Reason == "" {
		return c.Phase.String()
	}
	return fmt.Sprintf("%s(%s)", c.Phase, c.Reason)
}

// Degraded builds a degraded state carrying reason
func Degraded(reason string) ConnectionState {
	return ConnectionState{Phase: PhaseDegraded, Reason: reason}
}

// Status is what consumers see for a subscription: state plus the last error
type Status struct {
	State ConnectionState
	Err   error
}

// ErrorMessage returns the user-visible error text, or "" when healthy
func (s Status) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}
