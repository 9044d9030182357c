// Package metrics holds the Prometheus collectors of the feed. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "depthsim"

// Metrics groups every collector the feed reports to
type Metrics struct {
	Messages          *prometheus.CounterVec
	Snapshots         *prometheus.CounterVec
	Degradations      *prometheus.CounterVec
	ActiveSupervisors prometheus.Gauge
	Simulations       *prometheus.CounterVec
	ActiveClients     prometheus.Gauge
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Messages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "venue_messages_total",
				Help:      "Inbound venue messages by classification",
			},
			[]string{"venue", "kind"},
		),
		Snapshots: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshots_propagated_total",
				Help:      "Snapshots delivered to consumers after throttling",
			},
			[]string{"venue", "source"},
		),
		Degradations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "degradations_total",
				Help:      "Connections that fell back to synthetic data",
			},
			[]string{"venue", "reason"},
		),
		ActiveSupervisors: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_supervisors",
				Help:      "Connection supervisors started and not yet disposed",
			},
		),
		Simulations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "simulations_total",
				Help:      "Fill simulations by order kind and execution type",
			},
			[]string{"kind", "execution"},
		),
		ActiveClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ui_clients",
				Help:      "Connected UI websocket clients",
			},
		),
	}
}

// MessageReceived counts one parsed venue message
func (m *Metrics) MessageReceived(venue, kind string) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(venue, kind).Inc()
}

// SnapshotPropagated counts one delivered snapshot
func (m *Metrics) SnapshotPropagated(venue string, synthetic bool) {
	if m == nil {
		return
	}
	source := "live"
	if synthetic {
		source = "synthetic"
	}
	m.Snapshots.WithLabelValues(venue, source).Inc()
}

// Degraded counts one fallback to synthetic data
func (m *Metrics) Degraded(venue, reason string) {
	if m == nil {
		return
	}
	m.Degradations.WithLabelValues(venue, reason).Inc()
}

// SupervisorStarted increments the active supervisor gauge
func (m *Metrics) SupervisorStarted() {
	if m == nil {
		return
	}
	m.ActiveSupervisors.Inc()
}

// SupervisorStopped decrements the active supervisor gauge
func (m *Metrics) SupervisorStopped() {
	if m == nil {
		return
	}
	m.ActiveSupervisors.Dec()
}

// SimulationRun counts one fill simulation
func (m *Metrics) SimulationRun(kind, execution string) {
	if m == nil {
		return
	}
	m.Simulations.WithLabelValues(kind, execution).Inc()
}

// ClientConnected increments the UI client gauge
func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.ActiveClients.Inc()
}

// ClientDisconnected decrements the UI client gauge
func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.ActiveClients.Dec()
}
