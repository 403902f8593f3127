// Package metrics holds the Prometheus collectors of the simulation server
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the set of collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Processed session ticks
	TicksTotal prometheus.Counter
	// Simulated months settled across all sessions
	MonthsTotal prometheus.Counter
	// Life events fired, by kind
	EventsTotal *prometheus.CounterVec
	// Finished games, by outcome
	GamesFinished *prometheus.CounterVec
	// Rejected player commands, by command
	RejectedCommands *prometheus.CounterVec
	// Sessions currently held in memory
	ActiveSessions prometheus.Gauge
	// Wall time of one pass over all sessions
	TickDuration prometheus.Histogram
}

// New creates the collectors and registers them on a private registry
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total processed session ticks",
		}),
		MonthsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "months_total",
			Help:      "Total simulated months settled",
		}),
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Life events fired",
		}, []string{"kind"}),
		GamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Finished games by outcome",
		}, []string{"outcome"}),
		RejectedCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_commands_total",
			Help:      "Player commands rejected by validation",
		}, []string{"command"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions held in memory",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Duration of one pass over all sessions",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.TicksTotal,
		m.MonthsTotal,
		m.EventsTotal,
		m.GamesFinished,
		m.RejectedCommands,
		m.ActiveSessions,
		m.TickDuration,
	)
	return m
}

// Registry exposes the private registry, mostly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveTick(months int) {
	if m == nil {
		return
	}
	m.TicksTotal.Inc()
	m.MonthsTotal.Add(float64(months))
}

func (m *Metrics) ObserveEvent(kind string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(kind).Inc()
}

// ObserveGameOver counts a finished game as won or lost against the AI
func (m *Metrics) ObserveGameOver(won bool) {
	if m == nil {
		return
	}
	outcome := "lost"
	if won {
		outcome = "won"
	}
	m.GamesFinished.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRejection(command string) {
	if m == nil {
		return
	}
	m.RejectedCommands.WithLabelValues(command).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

func (m *Metrics) ObserveTickDuration(seconds float64) {
	if m == nil {
		return
	}
	m.TickDuration.Observe(seconds)
}
