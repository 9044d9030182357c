package supervisor

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"depthsim/internal/config"
	"depthsim/internal/exchange"
	"depthsim/internal/factory"
	"depthsim/internal/types"

	"github.com/gorilla/websocket"
)

// recorder is a BookListener that keeps everything it receives
type recorder struct {
	mu        sync.Mutex
	snapshots []*types.BookSnapshot
	statuses  []types.Status
	snapCh    chan *types.BookSnapshot
	statusCh  chan types.Status
}

func newRecorder() *recorder {
	return &recorder{
		snapCh:   make(chan *types.BookSnapshot, 1000),
		statusCh: make(chan types.Status, 100),
	}
}

func (r *recorder) OnSnapshot(snap *types.BookSnapshot) {
	r.mu.Lock()
	r.snapshots = append(r.snapshots, snap)
	r.mu.Unlock()
	select {
	case r.snapCh <- snap:
	default:
	}
}

func (r *recorder) OnStatus(status types.Status) {
	r.mu.Lock()
	r.statuses = append(r.statuses, status)
	r.mu.Unlock()
	select {
	case r.statusCh <- status:
	default:
	}
}

func (r *recorder) snapshotCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

func (r *recorder) statusCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.statuses)
}

func (r *recorder) waitSnapshot(t *testing.T, timeout time.Duration, match func(*types.BookSnapshot) bool) *types.BookSnapshot {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case snap := <-r.snapCh:
			if match == nil || match(snap) {
				return snap
			}
		case <-deadline:
			t.Fatalf("no matching snapshot within %s", timeout)
			return nil
		}
	}
}

func (r *recorder) waitPhase(t *testing.T, timeout time.Duration, phase types.Phase) types.Status {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case status := <-r.statusCh:
			if status.State.Phase == phase {
				return status
			}
		case <-deadline:
			t.Fatalf("no %s status within %s", phase, timeout)
			return types.Status{}
		}
	}
}

// countingDialer refuses every dial and counts attempts
type countingDialer struct {
	calls atomic.Int32
}

func (d *countingDialer) DialContext(context.Context, string, http.Header) (*websocket.Conn, *http.Response, error) {
	d.calls.Add(1)
	return nil, nil, errors.New("dialing disabled")
}

func testConfig(interval time.Duration) config.Config {
	cfg := config.Default()
	cfg.Feed.ConnectDebounce = 5 * time.Millisecond
	cfg.Feed.DialTimeout = 2 * time.Second
	for _, venue := range factory.SupportedVenues() {
		cfg.SetThrottleInterval(venue, interval)
	}
	cfg.SetThrottleInterval(exchange.Venue("Kraken"), interval)
	return cfg
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
