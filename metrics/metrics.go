// Package metrics exposes Prometheus collectors for the game protocol and stage advancement.
// A nil *Metrics is valid and records nothing, which is what tests use.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tournament_engine"

type Metrics struct {
	registry *prometheus.Registry

	gameTransitions  *prometheus.CounterVec
	matchesFinished  *prometheus.CounterVec
	advancements     *prometheus.CounterVec
	advancementNoops *prometheus.CounterVec
	archiveFailures  prometheus.Counter
}

func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		gameTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "game_transitions_total",
			Help:      "Match game protocol transitions by resulting status.",
		}, []string{"status"}),
		matchesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_finished_total",
			Help:      "Matches finished by stage.",
		}, []string{"stage"}),
		advancements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_advancements_total",
			Help:      "Rounds, stages and finishes generated.",
		}, []string{"step"}),
		advancementNoops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_advancement_noops_total",
			Help:      "Advancement checks that returned without changes, by reason.",
		}, []string{"step", "reason"}),
		archiveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_failures_total",
			Help:      "Final standings snapshots that failed to upload.",
		}),
	}
	registry.MustRegister(m.gameTransitions, m.matchesFinished, m.advancements, m.advancementNoops, m.archiveFailures)
	return m
}

func (m *Metrics) GameTransition(status string) {
	if m == nil {
		return
	}
	m.gameTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) MatchFinished(stage string) {
	if m == nil {
		return
	}
	m.matchesFinished.WithLabelValues(stage).Inc()
}

func (m *Metrics) Advanced(step string) {
	if m == nil {
		return
	}
	m.advancements.WithLabelValues(step).Inc()
}

func (m *Metrics) Noop(step, reason string) {
	if m == nil {
		return
	}
	m.advancementNoops.WithLabelValues(step, reason).Inc()
}

func (m *Metrics) ArchiveFailed() {
	if m == nil {
		return
	}
	m.archiveFailures.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
