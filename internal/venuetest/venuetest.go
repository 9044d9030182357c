// Package venuetest provides an in-process websocket venue for tests.
package venuetest

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// Server is a websocket server that records what clients send and runs a
// script against every accepted connection.
type Server struct {
	srv      *httptest.Server
	received chan string
	closes   chan int

	mu    sync.Mutex
	conns []*websocket.Conn
}

// NewServer starts a Server that is shut down when the test ends
func NewServer(t testing.TB, script func(conn *websocket.Conn)) *Server {
	t.Helper()

	s := &Server{
		received: make(chan string, 100),
		closes:   make(chan int, 10),
	}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()

		done := make(chan struct{})
		go s.readLoop(conn, done)

		if script != nil {
			script(conn)
		}
		<-done
	}))

	t.Cleanup(s.Close)
	return s
}

func (s *Server) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				select {
				case s.closes <- closeErr.Code:
				default:
				}
			}
			return
		}
		select {
		case s.received <- string(raw):
		default:
		}
	}
}

// URL returns the ws:// address of the server
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

// Received delivers every text message sent by clients
func (s *Server) Received() <-chan string {
	return s.received
}

// Closes delivers the close code of every close frame sent by clients
func (s *Server) Closes() <-chan int {
	return s.closes
}

// Next waits for the next client message
func (s *Server) Next(t testing.TB, timeout time.Duration) string {
	t.Helper()
	select {
	case msg := <-s.received:
		return msg
	case <-time.After(timeout):
		t.Fatalf("no client message within %s", timeout)
		return ""
	}
}

// Close drops every connection and stops the server. It is idempotent.
func (s *Server) Close() {
	s.mu.Lock()
	for _, conn := range s.conns {
		conn.Close()
	}
	s.conns = nil
	s.mu.Unlock()
	s.srv.Close()
}

// Send writes msg and reports failure without stopping the test, so it
// is safe to call from server goroutines.
func Send(t testing.TB, conn *websocket.Conn, msg string) {
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Errorf("venue write: %v", err)
	}
}

// OKXSnapshot renders a one-level OKX books snapshot for BTC-USDT
func OKXSnapshot(bid, ask string, ts int64) string {
	return `{"arg":{"channel":"books","instId":"BTC-USDT"},"action":"snapshot","data":[{"asks":[["` + ask +
		`","1.5","0","1"]],"bids":[["` + bid + `","2","0","1"]],"ts":"` + strconv.FormatInt(ts, 10) + `","checksum":0}]}`
}

// OKXBidUpdate renders an OKX books update touching one bid level
func OKXBidUpdate(bid, qty string, ts int64) string {
	return `{"arg":{"channel":"books","instId":"BTC-USDT"},"action":"update","data":[{"asks":[],"bids":[["` + bid +
		`","` + qty + `","0","1"]],"ts":"` + strconv.FormatInt(ts, 10) + `","checksum":0}]}`
}
