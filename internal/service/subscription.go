package service

import (
	"sync"

	"depthsim/internal/supervisor"
	"depthsim/internal/types"
)

// Subscription is one consumer's view of a (venue, symbol) feed. It
// implements types.BookListener for its supervisor.
type Subscription struct {
	svc    *Service
	gen    uint64
	venue  string
	symbol string

	changes chan struct{}

	mu       sync.RWMutex
	sup      *supervisor.Supervisor
	snapshot *types.BookSnapshot
	status   types.Status
	disposed bool
}

func newSubscription(svc *Service, gen uint64, venue, symbol string) *Subscription {
	return &Subscription{
		svc:     svc,
		gen:     gen,
		venue:   venue,
		symbol:  symbol,
		changes: make(chan struct{}, 1),
		status: types.Status{
			State: types.ConnectionState{Phase: types.PhaseIdle},
		},
	}
}

// Venue returns the subscribed venue
func (s *Subscription) Venue() string {
	return s.venue
}

// Symbol returns the subscribed symbol
func (s *Subscription) Symbol() string {
	return s.symbol
}

// Snapshot returns the latest snapshot, or nil before the first one
func (s *Subscription) Snapshot() *types.BookSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Status returns the latest connection status
func (s *Subscription) Status() types.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// ErrorMessage returns the user-visible error, or ""
func (s *Subscription) ErrorMessage() string {
	return s.Status().ErrorMessage()
}

// Changes signals that Snapshot or Status changed. Signals coalesce; the
// receiver should re-read both.
func (s *Subscription) Changes() <-chan struct{} {
	return s.changes
}

// Unsubscribe disposes this subscription if it is still the active one
func (s *Subscription) Unsubscribe() {
	s.svc.mu.Lock()
	active := s.svc.cur == s
	if active {
		s.svc.cur = nil
		s.svc.gen++
	}
	s.svc.mu.Unlock()

	s.dispose()
}

// OnSnapshot implements types.BookListener
func (s *Subscription) OnSnapshot(snap *types.BookSnapshot) {
	if !s.svc.current(s.gen) {
		return
	}
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.snapshot = snap
	s.mu.Unlock()
	s.notify()
}

// OnStatus implements types.BookListener
func (s *Subscription) OnStatus(status types.Status) {
	if !s.svc.current(s.gen) {
		return
	}
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.status = status
	s.mu.Unlock()
	s.notify()
}

func (s *Subscription) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// attach binds the supervisor; false means the subscription was already disposed
func (s *Subscription) attach(sup *supervisor.Supervisor) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return false
	}
	s.sup = sup
	return true
}

func (s *Subscription) dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	sup := s.sup
	s.sup = nil
	s.mu.Unlock()

	if sup != nil {
		sup.Dispose()
	}
}
