// Package metrics holds the service's prometheus collectors. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "nagarneuron"

type Metrics struct {
	votesCast         *prometheus.CounterVec
	consensusReached  *prometheus.CounterVec
	pointsAwarded     *prometheus.CounterVec
	badgesUnlocked    *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	wsClients         prometheus.Gauge
}

// New registers every collector with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		votesCast: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_cast_total",
			Help:      "Verification votes cast, by vote value",
		}, []string{"vote"}),
		consensusReached: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consensus_reached_total",
			Help:      "Consensus decisions, by outcome",
		}, []string{"outcome"}),
		pointsAwarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_awarded_total",
			Help:      "Points awarded, by action",
		}, []string{"action"}),
		badgesUnlocked: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "badges_unlocked_total",
			Help:      "Badges unlocked, by badge key",
		}, []string{"badge"}),
		statusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Complaint status transitions, by target status",
		}, []string{"status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
		wsClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_clients",
			Help:      "Connected live-feed websocket clients",
		}),
	}
}

func (m *Metrics) VoteCast(vote string) {
	if m == nil {
		return
	}
	m.votesCast.WithLabelValues(vote).Inc()
}

func (m *Metrics) ConsensusReached(outcome string) {
	if m == nil {
		return
	}
	m.consensusReached.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PointsAwarded(action string, points int) {
	if m == nil {
		return
	}
	m.pointsAwarded.WithLabelValues(action).Add(float64(points))
}

func (m *Metrics) BadgeUnlocked(key string) {
	if m == nil {
		return
	}
	m.badgesUnlocked.WithLabelValues(key).Inc()
}

func (m *Metrics) StatusTransition(status string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}

func (m *Metrics) WSClientDelta(delta int) {
	if m == nil {
		return
	}
	m.wsClients.Add(float64(delta))
}
