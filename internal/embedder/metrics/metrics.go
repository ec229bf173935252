// Package metrics holds the Prometheus collectors for the embedding core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the collectors tracked across the event loop, the
// scheduler, the input translator, and the message router.
type Metrics struct {
	TasksPosted   prometheus.Counter
	TasksExecuted prometheus.Counter
	TasksFailed   prometheus.Counter

	MessagesDispatched *prometheus.CounterVec
	UnknownChannels    prometheus.Counter

	InputEvents *prometheus.CounterVec

	registry *prometheus.Registry
}

// New builds the collector set on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		TasksPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lumen", Subsystem: "scheduler", Name: "tasks_posted_total",
			Help: "Deferred engine tasks accepted by the scheduler.",
		}),
		TasksExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lumen", Subsystem: "scheduler", Name: "tasks_executed_total",
			Help: "Deferred engine tasks executed on the loop thread.",
		}),
		TasksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lumen", Subsystem: "scheduler", Name: "tasks_failed_total",
			Help: "Deferred engine tasks whose execution reported an error.",
		}),
		MessagesDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lumen", Subsystem: "router", Name: "messages_dispatched_total",
			Help: "Platform messages dispatched, by channel.",
		}, []string{"channel"}),
		UnknownChannels: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lumen", Subsystem: "router", Name: "unknown_channels_total",
			Help: "Platform messages addressed to an unregistered channel.",
		}),
		InputEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lumen", Subsystem: "input", Name: "events_total",
			Help: "Normalized input events forwarded to the engine, by device kind.",
		}, []string{"kind"}),
		registry: reg,
	}

	reg.MustRegister(
		m.TasksPosted, m.TasksExecuted, m.TasksFailed,
		m.MessagesDispatched, m.UnknownChannels, m.InputEvents,
	)

	return m
}

// Handler exposes the registry for an optional /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the backing registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
