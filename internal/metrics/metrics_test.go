package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.MessageReceived("OKX", "snapshot")
	m.MessageReceived("OKX", "snapshot")
	m.MessageReceived("OKX", "ignore")
	m.SnapshotPropagated("Bybit", true)
	m.Degraded("Deribit", "connection failed")
	m.SimulationRun("market", "immediate")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Messages.WithLabelValues("OKX", "snapshot")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Messages.WithLabelValues("OKX", "ignore")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Snapshots.WithLabelValues("Bybit", "synthetic")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Snapshots.WithLabelValues("Bybit", "live")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Degradations.WithLabelValues("Deribit", "connection failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Simulations.WithLabelValues("market", "immediate")))
}

func TestGauges(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SupervisorStarted()
	m.SupervisorStarted()
	m.SupervisorStopped()
	m.ClientConnected()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSupervisors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveClients))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.MessageReceived("OKX", "delta")
		m.SnapshotPropagated("OKX", false)
		m.Degraded("OKX", "x")
		m.SupervisorStarted()
		m.SupervisorStopped()
		m.SimulationRun("limit", "pending")
		m.ClientConnected()
		m.ClientDisconnected()
	})
}

func TestDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
