// Package websocket serves order books and fill simulations to UI clients.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"depthsim/internal/config"
	"depthsim/internal/factory"
	"depthsim/internal/metrics"
	"depthsim/internal/service"
	"depthsim/internal/simulation"
	"depthsim/internal/types"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	maxRequestBytes   = 1 << 20
)

// Options configures a Server
type Options struct {
	Logger  zerolog.Logger
	Metrics *metrics.Metrics

	// Gatherer backs GET /metrics; nil disables the route
	Gatherer prometheus.Gatherer

	// Service is the template for the per-client order book service
	Service service.Options
}

// Server is the UI-facing HTTP and websocket endpoint. Every websocket
// client gets its own service and aggregator.
type Server struct {
	cfg      config.Config
	opts     Options
	log      zerolog.Logger
	upgrader websocket.Upgrader
	router   *mux.Router

	clientsMux sync.RWMutex
	clients    map[uuid.UUID]*client
	wg         sync.WaitGroup
}

// SimulateRequest is the body of POST /api/simulate
type SimulateRequest struct {
	Order    OrderRequest        `json:"order"`
	Snapshot *types.BookSnapshot `json:"snapshot"`
}

// VenueInfo describes one supported venue
type VenueInfo struct {
	Venue              string `json:"venue"`
	Endpoint           string `json:"endpoint"`
	ThrottleIntervalMs int64  `json:"throttleIntervalMs"`
}

func NewServer(cfg config.Config, opts Options) *Server {
	if opts.Service.Metrics == nil {
		opts.Service.Metrics = opts.Metrics
	}
	s := &Server{
		cfg:     cfg,
		opts:    opts,
		log:     opts.Logger.With().Str("component", "ui").Logger(),
		clients: make(map[uuid.UUID]*client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/venues", s.handleVenues).Methods(http.MethodGet)
	api.HandleFunc("/simulate", s.handleSimulate).Methods(http.MethodPost)

	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return r
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down and disconnects
// every websocket client.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info().Str("port", s.cfg.Server.Port).Msg("WebSocket server starting")

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	s.Close()
	s.log.Info().Msg("WebSocket server stopped")
	return err
}

// Close disconnects every websocket client and waits for their services to stop
func (s *Server) Close() {
	s.clientsMux.RLock()
	for _, c := range s.clients {
		c.disconnect(websocket.CloseGoingAway, "server shutting down")
	}
	s.clientsMux.RUnlock()
	s.wg.Wait()
}

// ClientCount returns the number of connected websocket clients
func (s *Server) ClientCount() int {
	s.clientsMux.RLock()
	defer s.clientsMux.RUnlock()
	return len(s.clients)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}

	c := newClient(s, conn)

	s.wg.Add(1)
	s.opts.Metrics.ClientConnected()
	s.clientsMux.Lock()
	s.clients[c.id] = c
	s.clientsMux.Unlock()

	c.log.Info().Str("remote", r.RemoteAddr).Msg("New WebSocket client connected")

	defer func() {
		s.clientsMux.Lock()
		delete(s.clients, c.id)
		s.clientsMux.Unlock()
		s.opts.Metrics.ClientDisconnected()
		s.wg.Done()
		c.log.Info().Msg("WebSocket client disconnected")
	}()

	c.run()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"clients": s.ClientCount(),
	})
}

func (s *Server) handleVenues(w http.ResponseWriter, r *http.Request) {
	venues := factory.SupportedVenues()
	out := make([]VenueInfo, 0, len(venues))
	for _, venue := range venues {
		vc := s.cfg.Venue(venue)
		endpoint := vc.Endpoint
		if endpoint == "" {
			adapter, err := factory.NewAdapter(venue)
			if err != nil {
				continue
			}
			endpoint = adapter.Endpoint()
		}
		out = append(out, VenueInfo{
			Venue:              string(venue),
			Endpoint:           endpoint,
			ThrottleIntervalMs: vc.ThrottleInterval.Milliseconds(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSimulate runs a one-off simulation against a caller-supplied book
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Snapshot == nil {
		writeError(w, http.StatusBadRequest, "snapshot is required")
		return
	}
	if err := req.Snapshot.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid snapshot: "+err.Error())
		return
	}

	if req.Order.Venue == "" {
		req.Order.Venue = req.Snapshot.Venue
	}
	if req.Order.Symbol == "" {
		req.Order.Symbol = req.Snapshot.Symbol
	}
	order, err := req.Order.Order()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	m := simulation.Simulate(order, req.Snapshot)
	s.opts.Metrics.SimulationRun(string(order.Kind), string(m.ExecutionType))

	writeJSON(w, http.StatusOK, SimulationMessage{
		Type:    MessageTypeSimulation,
		Order:   order,
		Metrics: m,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorMessage{Type: MessageTypeError, Error: msg})
}
