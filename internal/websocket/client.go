package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"depthsim/internal/aggregation"
	"depthsim/internal/service"
	"depthsim/internal/simulation"
	"depthsim/internal/types"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	sendBuffer     = 64
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// client is one UI websocket connection. readPump is the only reader and
// writePump the only writer of conn.
type client struct {
	id   uuid.UUID
	srv  *Server
	conn *websocket.Conn
	log  zerolog.Logger
	svc  *service.Service
	agg  *aggregation.Aggregator

	send    chan interface{}
	refresh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// pushState is what the client last saw, so unchanged books are not resent
type pushState struct {
	sub    *service.Subscription
	snap   *types.BookSnapshot
	status types.Status
	tick   types.TickLevel
}

func newClient(s *Server, conn *websocket.Conn) *client {
	id := uuid.New()
	log := s.log.With().Str("client", id.String()).Logger()

	opts := s.opts.Service
	opts.Logger = log

	return &client{
		id:      id,
		srv:     s,
		conn:    conn,
		log:     log,
		svc:     service.New(s.cfg, opts),
		agg:     aggregation.New(s.cfg.Display.DefaultTickLevel),
		send:    make(chan interface{}, sendBuffer),
		refresh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// run blocks until the connection is gone, then releases the service
func (c *client) run() {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.writePump()
	}()
	go func() {
		defer wg.Done()
		c.pushLoop()
	}()

	c.readPump()

	c.once.Do(func() { close(c.done) })
	c.svc.Close()
	c.conn.Close()
	wg.Wait()
}

// disconnect sends a close frame and drops the connection; readPump then exits
func (c *client) disconnect(code int, text string) {
	deadline := time.Now().Add(writeWait)
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
	c.conn.Close()
}

func (c *client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug().Err(err).Msg("WebSocket read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var clientMsg ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			c.log.Warn().Err(err).Msg("Error parsing client message")
			c.enqueue(newErrorMessage("invalid message: %v", err))
			continue
		}

		c.handleClientMessage(clientMsg)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.Debug().Err(err).Msg("Error writing to client")
				c.conn.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.conn.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// pushLoop forwards book and status changes of the active subscription.
// The ticker picks up subscription switches and tick changes.
func (c *client) pushLoop() {
	interval := c.srv.cfg.Display.PushInterval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var st pushState
	for {
		var changes <-chan struct{}
		if sub := c.svc.Current(); sub != nil {
			changes = sub.Changes()
		}

		force := false
		select {
		case <-c.done:
			return
		case <-changes:
		case <-c.refresh:
			force = true
		case <-ticker.C:
		}
		c.push(&st, force)
	}
}

func (c *client) push(st *pushState, force bool) {
	sub := c.svc.Current()
	if sub == nil {
		st.sub = nil
		return
	}
	if sub != st.sub {
		*st = pushState{sub: sub}
		force = true
	}

	status := sub.Status()
	if force || status.State != st.status.State || status.ErrorMessage() != st.status.ErrorMessage() {
		st.status = status
		c.enqueue(buildStatusMessage(sub.Venue(), sub.Symbol(), status))
	}

	snap := sub.Snapshot()
	tick := c.agg.GetTickLevel()
	if snap == nil || (!force && snap == st.snap && tick == st.tick) {
		return
	}
	st.snap, st.tick = snap, tick

	c.enqueue(buildOrderbookMessage(c.agg, snap))
	c.enqueue(buildStatsMessage(snap))
	if imb, ok := buildImbalanceMessage(snap); ok {
		c.enqueue(imb)
	}
}

func (c *client) handleClientMessage(msg ClientMessage) {
	switch msg.Type {
	case "subscribe":
		c.subscribe(msg.Venue, msg.Symbol)

	case "change_symbol":
		sub := c.svc.Current()
		if sub == nil {
			c.enqueue(newErrorMessage("no active subscription"))
			return
		}
		c.subscribe(sub.Venue(), msg.Symbol)

	case "unsubscribe":
		c.svc.Unsubscribe()
		c.log.Info().Msg("Unsubscribed")

	case "set_tick":
		if !c.agg.TrySetTickLevel(types.TickLevel(msg.Tick)) {
			c.log.Warn().Float64("tick", msg.Tick).Msg("Invalid tick level")
			c.enqueue(newErrorMessage("invalid tick level: %g", msg.Tick))
			return
		}
		c.tickChanged()

	case "tick_up":
		c.agg.TickUp()
		c.tickChanged()

	case "tick_down":
		c.agg.TickDown()
		c.tickChanged()

	case "simulate":
		c.simulate(msg.Order)

	default:
		c.log.Warn().Str("type", msg.Type).Msg("Unknown message type")
		c.enqueue(newErrorMessage("unknown message type: %s", msg.Type))
	}
}

func (c *client) subscribe(venue, symbol string) {
	if venue == "" || symbol == "" {
		c.enqueue(newErrorMessage("venue and symbol are required"))
		return
	}
	if _, err := c.svc.Subscribe(venue, symbol); err != nil {
		c.enqueue(newErrorMessage("%v", err))
		return
	}
	c.log.Info().Str("venue", venue).Str("symbol", symbol).Msg("Symbol change request")
	c.requestRefresh()
}

func (c *client) tickChanged() {
	tick := c.agg.GetTickLevel()
	c.log.Debug().Float64("tick", float64(tick)).Msg("Tick level changed")
	c.enqueue(TickMessage{Type: MessageTypeTick, Tick: float64(tick)})
	c.requestRefresh()
}

func (c *client) simulate(req *OrderRequest) {
	if req == nil {
		c.enqueue(newErrorMessage("order is required"))
		return
	}
	r := *req
	if sub := c.svc.Current(); sub != nil {
		if r.Venue == "" {
			r.Venue = sub.Venue()
		}
		if r.Symbol == "" {
			r.Symbol = sub.Symbol()
		}
	}

	order, err := r.Order()
	if err != nil {
		c.enqueue(newErrorMessage("%v", err))
		return
	}
	delay, err := simulation.ParseDelay(r.DelaySeconds)
	if err != nil {
		c.enqueue(newErrorMessage("%v", err))
		return
	}
	if delay == 0 {
		c.runSimulation(order)
		return
	}

	c.enqueue(SimulatingMessage{Type: MessageTypeSimulating, DelaySeconds: r.DelaySeconds})
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			c.runSimulation(order)
		case <-c.done:
		}
	}()
}

func (c *client) runSimulation(order simulation.Order) {
	m, err := c.svc.Simulate(order)
	if err != nil {
		c.enqueue(newErrorMessage("%v", err))
		return
	}
	c.enqueue(SimulationMessage{Type: MessageTypeSimulation, Order: order, Metrics: m})
}

func (c *client) requestRefresh() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

// enqueue hands msg to writePump, dropping it when the client is too slow
func (c *client) enqueue(msg interface{}) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- msg:
	default:
		c.log.Warn().Msg("Client send buffer full, dropping message")
	}
}
