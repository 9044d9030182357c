// Package service is the composition root one consumer talks to: it owns
// at most one live subscription and runs fill simulations against it.
package service

import (
	"errors"
	"fmt"
	"sync"

	"depthsim/internal/config"
	"depthsim/internal/exchange"
	"depthsim/internal/metrics"
	"depthsim/internal/mock"
	"depthsim/internal/simulation"
	"depthsim/internal/supervisor"

	"github.com/rs/zerolog"
)

var (
	// ErrNoSnapshot is returned when no book has been received yet
	ErrNoSnapshot = errors.New("no order book snapshot available")

	// ErrVenueMismatch is returned when an order targets another venue than the subscription
	ErrVenueMismatch = errors.New("order venue does not match subscription")

	// ErrClosed is returned after Close
	ErrClosed = errors.New("service closed")
)

// Options carries the collaborators shared by every supervisor the service starts
type Options struct {
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
	Generator *mock.Generator

	// Endpoints overrides per-venue websocket URLs, mostly for tests
	Endpoints map[string]string

	Dialer supervisor.Dialer
}

// Service manages the subscription of one consumer
type Service struct {
	cfg  config.Config
	opts Options
	log  zerolog.Logger

	mu     sync.Mutex
	gen    uint64
	cur    *Subscription
	closed bool
}

// New creates a Service
func New(cfg config.Config, opts Options) *Service {
	if opts.Generator == nil {
		opts.Generator = mock.NewGenerator(cfg.Feed.MockSeed, cfg.Feed.MaxLevels)
	}
	return &Service{
		cfg:  cfg,
		opts: opts,
		log:  opts.Logger,
	}
}

// Subscribe switches the consumer to (venue, symbol). The previous
// subscription is disposed before the new supervisor starts, and callbacks
// still in flight for it are discarded.
func (s *Service) Subscribe(venue, symbol string) (*Subscription, error) {
	venue = canonicalVenue(venue)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.gen++
	sub := newSubscription(s, s.gen, venue, symbol)
	prev := s.cur
	s.cur = sub
	s.mu.Unlock()

	if prev != nil {
		prev.dispose()
	}

	sup := supervisor.New(venue, symbol, supervisor.Options{
		Config:    s.cfg,
		Listener:  sub,
		Logger:    s.log,
		Metrics:   s.opts.Metrics,
		Generator: s.opts.Generator,
		Endpoint:  s.opts.Endpoints[venue],
		Dialer:    s.opts.Dialer,
	})
	if !sub.attach(sup) {
		// superseded or closed before the supervisor existed
		sup.Dispose()
		return sub, nil
	}

	s.log.Info().Str("venue", venue).Str("symbol", symbol).Str("supervisor", sup.ID().String()).Msg("Subscribed")
	sup.Start()
	return sub, nil
}

// Current returns the active subscription, or nil
func (s *Service) Current() *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Simulate runs order against the latest snapshot of the active subscription
func (s *Service) Simulate(order simulation.Order) (simulation.Metrics, error) {
	if err := order.Validate(); err != nil {
		return simulation.Metrics{}, err
	}

	sub := s.Current()
	if sub == nil {
		return simulation.Metrics{}, ErrNoSnapshot
	}
	if sub.Venue() != canonicalVenue(order.Venue) {
		return simulation.Metrics{}, fmt.Errorf("%w: order for %s, subscribed to %s", ErrVenueMismatch, order.Venue, sub.Venue())
	}

	snap := sub.Snapshot()
	if snap == nil {
		return simulation.Metrics{}, ErrNoSnapshot
	}

	m := simulation.Simulate(order, snap)
	s.opts.Metrics.SimulationRun(string(order.Kind), string(m.ExecutionType))
	return m, nil
}

// Unsubscribe disposes the active subscription, if any
func (s *Service) Unsubscribe() {
	s.mu.Lock()
	prev := s.cur
	s.cur = nil
	s.gen++
	s.mu.Unlock()

	if prev != nil {
		prev.dispose()
	}
}

// Close disposes everything. Subscribe fails afterwards.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.Unsubscribe()
}

// canonicalVenue maps supported venue names to their canonical spelling.
// Unknown names pass through so they still degrade as unsupported.
func canonicalVenue(name string) string {
	if v, err := exchange.ParseVenue(name); err == nil {
		return string(v)
	}
	return name
}

// current reports whether gen is still the live generation
func (s *Service) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.gen == gen
}
