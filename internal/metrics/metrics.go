package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lookout"

// Cycle outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomePanic = "panic"
)

// Metrics holds the watcher's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	cycles      *prometheus.CounterVec
	alerts      *prometheus.CounterVec
	defenses    *prometheus.CounterVec
	commands    *prometheus.CounterVec
	knownEvents prometheus.Gauge
	lastSuccess prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Poll cycles by outcome.",
		}, []string{"outcome"}),
		alerts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "New hostile movements alerted, by threat kind.",
		}, []string{"kind"}),
		defenses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "defense_attempts_total",
			Help:      "Automatic pirate defense attempts, by result reason.",
		}, []string{"reason"}),
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operator_commands_total",
			Help:      "Operator commands addressed to this instance, by action code.",
		}, []string{"action"}),
		knownEvents: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "known_attacks",
			Help:      "Hostile event ids already alerted and still in flight.",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last poll cycle that completed without error.",
		}),
	}
}

func (m *Metrics) CycleFinished(outcome string, at time.Time) {
	m.cycles.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		m.lastSuccess.Set(float64(at.Unix()))
	}
}

func (m *Metrics) AlertSent(kind string) {
	m.alerts.WithLabelValues(kind).Inc()
}

func (m *Metrics) DefenseAttempted(reason string) {
	m.defenses.WithLabelValues(reason).Inc()
}

func (m *Metrics) CommandReceived(action string) {
	m.commands.WithLabelValues(action).Inc()
}

func (m *Metrics) SetKnownAttacks(n int) {
	m.knownEvents.Set(float64(n))
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
