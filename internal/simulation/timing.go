package simulation

import (
	"fmt"
	"time"
)

// DelayOptions are the order timings a user can pick: run now, or against
// the book as it stands after the delay.
var DelayOptions = []time.Duration{0, 5 * time.Second, 10 * time.Second, 30 * time.Second}

// ParseDelay validates a timing given in whole seconds
func ParseDelay(seconds int) (time.Duration, error) {
	d := time.Duration(seconds) * time.Second
	for _, option := range DelayOptions {
		if d == option {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: unsupported delay %ds (allowed: 0, 5, 10, 30)", ErrInvalidOrder, seconds)
}
