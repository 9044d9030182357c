// Package throttle coalesces bursty updates into at most one delivery per
// interval without ever losing the last value of a burst.
package throttle

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle delivers values to fn at most once per interval. The first call
// after an idle period of at least one interval is delivered immediately;
// calls inside the window replace a single pending value that is delivered
// on the trailing edge.
type Throttle[T any] struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	fn      func(T)

	timer      *time.Timer
	reserved   *rate.Reservation
	gen        uint64
	pending    T
	hasPending bool
	stopped    bool
}

// New creates a throttle that forwards to fn
func New[T any](interval time.Duration, fn func(T)) *Throttle[T] {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Throttle[T]{
		limiter: rate.NewLimiter(limit, 1),
		fn:      fn,
	}
}

// Call submits v. It never blocks on the interval.
func (t *Throttle[T]) Call(v T) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}

	// a trailing delivery is already scheduled, just replace its value
	if t.timer != nil {
		t.pending = v
		t.hasPending = true
		t.mu.Unlock()
		return
	}

	now := time.Now()
	r := t.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	if delay <= 0 {
		t.mu.Unlock()
		t.fn(v)
		return
	}

	t.pending = v
	t.hasPending = true
	t.reserved = r
	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(delay, func() { t.flush(gen) })
	t.mu.Unlock()
}

func (t *Throttle[T]) flush(gen uint64) {
	t.mu.Lock()
	if t.stopped || gen != t.gen || !t.hasPending {
		t.mu.Unlock()
		return
	}
	v := t.pending
	// the reserved token is spent by this delivery
	t.reserved = nil
	t.clearLocked()
	t.mu.Unlock()

	t.fn(v)
}

// Cancel discards the pending trailing value, if any. The throttle stays usable.
func (t *Throttle[T]) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearLocked()
}

// Stop cancels the pending value and turns every later Call into a no-op
func (t *Throttle[T]) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearLocked()
	t.stopped = true
}

// clearLocked must be called with mu held. A dropped trailing delivery
// returns its token so the next burst is not delayed by it.
func (t *Throttle[T]) clearLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.reserved != nil {
		t.reserved.Cancel()
		t.reserved = nil
	}
	var zero T
	t.pending = zero
	t.hasPending = false
	t.gen++
}
