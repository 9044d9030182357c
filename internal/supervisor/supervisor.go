// Package supervisor owns one live venue connection for one symbol and
// falls back to synthetic books when the venue is unreachable.
package supervisor

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"depthsim/internal/config"
	"depthsim/internal/exchange"
	"depthsim/internal/factory"
	"depthsim/internal/metrics"
	"depthsim/internal/mock"
	"depthsim/internal/orderbook"
	"depthsim/internal/throttle"
	"depthsim/internal/types"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Dialer opens websocket connections. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// Options configures a Supervisor. Only Config is required.
type Options struct {
	Config    config.Config
	Listener  types.BookListener
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
	Generator *mock.Generator

	// Endpoint overrides both the configured and the adapter endpoint
	Endpoint string

	// KeepaliveInterval overrides the adapter's ping interval when positive
	KeepaliveInterval time.Duration

	Dialer Dialer
}

// HealthStatus represents connection health information
type HealthStatus struct {
	Connected    bool
	LastMessage  time.Time
	MessageCount int64
	ErrorCount   int64
}

// Supervisor runs the Idle → Connecting → Open → Degraded/Closed lifecycle
// of one (venue, symbol) pair. It never reconnects: once degraded it serves
// synthetic snapshots until disposed.
type Supervisor struct {
	id        uuid.UUID
	venue     string
	symbol    string
	adapter   exchange.Adapter
	venueErr  error
	endpoint  string
	interval  time.Duration
	keepalive time.Duration
	maxLevels int
	debounce  time.Duration
	dialTO    time.Duration
	writeTO   time.Duration

	listener  types.BookListener
	log       zerolog.Logger
	metrics   *metrics.Metrics
	generator *mock.Generator
	dialer    Dialer
	book      *orderbook.Book
	throttle  *throttle.Throttle[*types.BookSnapshot]
	health    atomic.Value // stores HealthStatus

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards everything below
	mu              sync.Mutex
	started         bool
	state           types.ConnectionState
	lastErr         error
	conn            *websocket.Conn
	debounceTimer   *time.Timer
	keepaliveCancel context.CancelFunc

	// emitMu serializes listener calls; lock order is mu → emitMu
	emitMu   sync.Mutex
	writeMu  sync.Mutex
	disposed atomic.Bool
}

// New creates a supervisor for venue and symbol. venue may be any string;
// venues outside the supported set degrade as soon as Start is called.
func New(venue, symbol string, opts Options) *Supervisor {
	cfg := opts.Config
	vc := cfg.Venue(exchange.Venue(venue))

	maxLevels := cfg.Feed.MaxLevels
	if maxLevels <= 0 {
		maxLevels = config.DefaultMaxLevels
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Supervisor{
		id:        uuid.New(),
		venue:     venue,
		symbol:    symbol,
		interval:  vc.ThrottleInterval,
		keepalive: opts.KeepaliveInterval,
		maxLevels: maxLevels,
		debounce:  cfg.Feed.ConnectDebounce,
		dialTO:    cfg.Feed.DialTimeout,
		writeTO:   cfg.Feed.WriteTimeout,
		listener:  opts.Listener,
		metrics:   opts.Metrics,
		generator: opts.Generator,
		dialer:    opts.Dialer,
		book:      orderbook.New(),
		ctx:       ctx,
		cancel:    cancel,
		state:     types.ConnectionState{Phase: types.PhaseIdle},
	}

	if s.listener == nil {
		s.listener = nopListener{}
	}
	if s.generator == nil {
		s.generator = mock.NewGenerator(cfg.Feed.MockSeed, maxLevels)
	}
	if s.dialTO <= 0 {
		s.dialTO = 10 * time.Second
	}
	if s.writeTO <= 0 {
		s.writeTO = 5 * time.Second
	}
	if s.dialer == nil {
		s.dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: s.dialTO,
		}
	}

	s.log = opts.Logger.With().
		Str("venue", venue).
		Str("symbol", symbol).
		Str("supervisor", s.id.String()).
		Logger()

	s.adapter, s.venueErr = factory.NewAdapter(exchange.Venue(venue))
	if s.adapter != nil {
		s.endpoint = s.adapter.Endpoint()
		if vc.Endpoint != "" {
			s.endpoint = vc.Endpoint
		}
		if opts.Endpoint != "" {
			s.endpoint = opts.Endpoint
		}
	}

	s.throttle = throttle.New(s.interval, s.deliver)
	s.health.Store(HealthStatus{})
	return s
}

// ID returns the unique id of this supervisor instance
func (s *Supervisor) ID() uuid.UUID {
	return s.id
}

// Venue returns the venue name as requested
func (s *Supervisor) Venue() string {
	return s.venue
}

// Symbol returns the symbol as requested
func (s *Supervisor) Symbol() string {
	return s.symbol
}

// State returns the current connection state
func (s *Supervisor) State() types.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns the current state together with the last error
func (s *Supervisor) Status() types.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.Status{State: s.state, Err: s.lastErr}
}

// Health returns connection health information
func (s *Supervisor) Health() HealthStatus {
	if status, ok := s.health.Load().(HealthStatus); ok {
		return status
	}
	return HealthStatus{}
}

// Start begins the connection lifecycle. The dial is debounced so rapid
// venue or symbol switches do not open sockets that are torn down at once.
// Calling Start more than once, or after Dispose, has no effect.
func (s *Supervisor) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.disposed.Load() {
		return
	}
	s.started = true
	s.metrics.SupervisorStarted()

	if s.adapter == nil {
		s.log.Warn().Err(s.venueErr).Msg("Venue not supported, serving synthetic order book")
		s.degradeLocked("unsupported venue", exchange.Errorf(exchange.ErrUnsupportedVenue, "Unsupported venue: %s", s.venue))
		return
	}

	s.log.Debug().Dur("debounce", s.debounce).Msg("Connection scheduled")
	s.wg.Add(1)
	s.debounceTimer = time.AfterFunc(s.debounce, s.connect)
}

// Dispose tears the connection down. Once Dispose returns the listener
// receives no further calls. It is idempotent and must not be called from
// inside a listener callback.
func (s *Supervisor) Dispose() {
	if !s.disposed.CompareAndSwap(false, true) {
		return
	}

	s.mu.Lock()
	if s.debounceTimer != nil && s.debounceTimer.Stop() {
		s.wg.Done()
	}
	s.debounceTimer = nil
	s.throttle.Stop()
	s.cancel()
	s.stopKeepaliveLocked()
	conn := s.conn
	s.conn = nil
	started := s.started
	s.state = types.ConnectionState{Phase: types.PhaseClosed}
	s.mu.Unlock()

	// wait out a listener call already in flight
	s.emitMu.Lock()
	s.emitMu.Unlock()

	if conn != nil {
		s.closeConn(conn)
	}
	s.wg.Wait()

	if started {
		s.metrics.SupervisorStopped()
	}
	s.updateConnectionStatus(false)
	s.log.Info().Msg("Supervisor disposed")
}

func (s *Supervisor) connect() {
	defer s.wg.Done()

	s.mu.Lock()
	if s.disposed.Load() {
		s.mu.Unlock()
		return
	}
	s.debounceTimer = nil
	s.transitionLocked(types.ConnectionState{Phase: types.PhaseConnecting}, nil)
	s.mu.Unlock()

	s.log.Info().Str("endpoint", s.endpoint).Msg("Connecting")

	dialCtx, cancel := context.WithTimeout(s.ctx, s.dialTO)
	conn, _, err := s.dialer.DialContext(dialCtx, s.endpoint, nil)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed.Load() {
		if conn != nil {
			conn.Close()
		}
		return
	}

	if err != nil {
		s.incrementErrorCount()
		s.log.Warn().Err(err).Str("endpoint", s.endpoint).Msg("WebSocket dial failed")
		s.degradeLocked("connection failed", exchange.Errorf(exchange.ErrTransport, "WebSocket failed to connect %s", s.venue))
		return
	}

	s.conn = conn
	s.updateConnectionStatus(true)
	s.transitionLocked(types.ConnectionState{Phase: types.PhaseOpen}, nil)
	s.log.Info().Msg("WebSocket connected successfully")

	if payload, ok := s.adapter.BuildSubscription(s.symbol); ok {
		if err := s.write(conn, websocket.TextMessage, payload); err != nil {
			s.incrementErrorCount()
			s.log.Warn().Err(err).Msg("Failed to subscribe")
			s.degradeLocked("connection failed", exchange.Errorf(exchange.ErrTransport, "WebSocket failed to connect %s", s.venue))
			return
		}
		s.log.Info().RawJSON("subscription", payload).Msg("Subscribed")
	} else {
		s.log.Warn().Msg("Symbol cannot be expressed for this venue, no subscription sent")
	}

	if ping, interval, ok := s.adapter.Keepalive(); ok {
		if s.keepalive > 0 {
			interval = s.keepalive
		}
		kaCtx, kaCancel := context.WithCancel(s.ctx)
		s.keepaliveCancel = kaCancel
		s.wg.Add(1)
		go s.pingLoop(kaCtx, conn, ping, interval)
	}

	s.wg.Add(1)
	go s.readMessages(conn)
}

// readMessages continuously reads WebSocket messages
func (s *Supervisor) readMessages(conn *websocket.Conn) {
	defer s.wg.Done()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !s.disposed.Load() {
				s.handleReadError(conn, err)
			}
			return
		}

		s.incrementMessageCount()

		msg := s.adapter.Parse(raw)
		s.metrics.MessageReceived(s.venue, msg.Kind.String())

		switch msg.Kind {
		case exchange.KindControl:
			if msg.Err != nil {
				s.log.Warn().Err(msg.Err).Msg("Venue reported an error")
			}
			continue

		case exchange.KindIgnore:
			if msg.Err != nil {
				s.log.Debug().Err(msg.Err).Msg("Ignoring unparseable message")
			}
			continue

		case exchange.KindSnapshot:
			s.book.Load(msg)

		case exchange.KindDelta:
			if !s.book.Apply(msg) {
				s.log.Debug().Msg("Dropping delta received before snapshot")
				continue
			}
		}

		s.throttle.Call(s.book.Snapshot(s.venue, s.symbol, s.maxLevels))
	}
}

func (s *Supervisor) handleReadError(conn *websocket.Conn, err error) {
	s.incrementErrorCount()

	reason := "connection lost"
	feedErr := exchange.Errorf(exchange.ErrTransport, "WebSocket connection to %s lost", s.venue)

	// gorilla reports a dropped TCP stream as an abnormal closure
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) && closeErr.Code != websocket.CloseAbnormalClosure {
		reason = "connection closed"
		feedErr = exchange.Errorf(exchange.ErrTransportClosed, "connection to %s closed", s.venue)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// the connection was already replaced or torn down
	if s.disposed.Load() || s.conn != conn {
		return
	}

	s.log.Warn().Err(err).Msg("WebSocket read error")
	s.degradeLocked(reason, feedErr)
}

// pingLoop sends the venue's application-level keepalive
func (s *Supervisor) pingLoop(ctx context.Context, conn *websocket.Conn, payload []byte, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.write(conn, websocket.TextMessage, payload); err != nil {
				s.log.Debug().Err(err).Msg("Keepalive failed")
				return
			}
		}
	}
}

// degradeLocked switches to synthetic data (must be called with mu held)
func (s *Supervisor) degradeLocked(reason string, err error) {
	if s.state.Phase == types.PhaseDegraded || s.disposed.Load() {
		return
	}

	s.metrics.Degraded(s.venue, reason)
	s.log.Warn().Err(err).Str("reason", reason).Msg("Falling back to synthetic order book")

	s.stopKeepaliveLocked()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.updateConnectionStatus(false)
	s.transitionLocked(types.Degraded(reason), err)

	// the first synthetic book is not held back by a recent live one
	s.throttle.Cancel()
	s.deliver(s.generator.Generate(s.venue, s.symbol))

	s.wg.Add(1)
	go s.mockLoop()
}

// mockLoop produces one synthetic snapshot per throttle interval until disposal
func (s *Supervisor) mockLoop() {
	defer s.wg.Done()

	interval := s.interval
	if interval <= 0 {
		interval = config.DefaultThrottleInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.throttle.Call(s.generator.Generate(s.venue, s.symbol))
		}
	}
}

// transitionLocked records and publishes a state change (must be called with mu held)
func (s *Supervisor) transitionLocked(state types.ConnectionState, err error) {
	s.state = state
	if err != nil {
		s.lastErr = err
	}
	s.log.Debug().Stringer("state", state).Msg("State changed")

	status := types.Status{State: state, Err: s.lastErr}

	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	if s.disposed.Load() {
		return
	}
	s.listener.OnStatus(status)
}

// deliver is the throttle's sink
func (s *Supervisor) deliver(snap *types.BookSnapshot) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	if s.disposed.Load() {
		return
	}
	s.metrics.SnapshotPropagated(s.venue, snap.Synthetic)
	s.listener.OnSnapshot(snap)
}

func (s *Supervisor) write(conn *websocket.Conn, messageType int, payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(s.writeTO)); err != nil {
		return err
	}
	return conn.WriteMessage(messageType, payload)
}

func (s *Supervisor) closeConn(conn *websocket.Conn) {
	err := s.write(conn, websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		s.log.Debug().Err(err).Msg("Error sending close message")
	}
	if err := conn.Close(); err != nil {
		s.log.Debug().Err(err).Msg("Error closing connection")
	}
}

// stopKeepaliveLocked must be called with mu held
func (s *Supervisor) stopKeepaliveLocked() {
	if s.keepaliveCancel != nil {
		s.keepaliveCancel()
		s.keepaliveCancel = nil
	}
}

// updateConnectionStatus updates the connection flag in health
func (s *Supervisor) updateConnectionStatus(connected bool) {
	status := s.Health()
	status.Connected = connected
	s.health.Store(status)
}

// incrementMessageCount increments the message count in health
func (s *Supervisor) incrementMessageCount() {
	status := s.Health()
	status.MessageCount++
	status.LastMessage = time.Now()
	s.health.Store(status)
}

// incrementErrorCount increments the error count in health
func (s *Supervisor) incrementErrorCount() {
	status := s.Health()
	status.ErrorCount++
	s.health.Store(status)
}

type nopListener struct{}

func (nopListener) OnSnapshot(*types.BookSnapshot) {}
func (nopListener) OnStatus(types.Status)          {}
