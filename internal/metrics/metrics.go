package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lazadabot"

// Metrics holds the bot's Prometheus instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	resolutions    *prometheus.CounterVec
	steps          *prometheus.CounterVec
	tokenRefreshes *prometheus.CounterVec
	replyAttempts  *prometheus.CounterVec
	replies        *prometheus.CounterVec
	webhookEvents  *prometheus.CounterVec
}

// New creates the instruments and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Keyword resolutions by final outcome",
			},
			[]string{"outcome"},
		),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolver_steps_total",
				Help:      "Resolver fallback steps by step name and outcome",
			},
			[]string{"step", "outcome"},
		),
		tokenRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_refreshes_total",
				Help:      "Access token refresh attempts by result",
			},
			[]string{"result"},
		),
		replyAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reply_attempts_total",
				Help:      "Reply API HTTP attempts by status code",
			},
			[]string{"status"},
		),
		replies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "replies_total",
				Help:      "Replies by final result",
			},
			[]string{"result"},
		),
		webhookEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_events_total",
				Help:      "Inbound webhook callbacks by handling kind",
			},
			[]string{"kind"},
		),
	}

	reg.MustRegister(m.resolutions, m.steps, m.tokenRefreshes, m.replyAttempts, m.replies, m.webhookEvents)
	return m
}

// Resolution counts a finished resolution.
func (m *Metrics) Resolution(outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

// Step counts one evaluated resolver step.
func (m *Metrics) Step(step, outcome string) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(step, outcome).Inc()
}

// TokenRefresh counts a refresh round trip.
func (m *Metrics) TokenRefresh(ok bool) {
	if m == nil {
		return
	}
	m.tokenRefreshes.WithLabelValues(result(ok)).Inc()
}

// ReplyAttempt counts one HTTP attempt against the reply API. status is the
// HTTP status code or "error" for transport failures.
func (m *Metrics) ReplyAttempt(status string) {
	if m == nil {
		return
	}
	m.replyAttempts.WithLabelValues(status).Inc()
}

// Reply counts a finished reply dispatch.
func (m *Metrics) Reply(ok bool) {
	if m == nil {
		return
	}
	m.replies.WithLabelValues(result(ok)).Inc()
}

// WebhookEvent counts an inbound callback by how it was handled.
func (m *Metrics) WebhookEvent(kind string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(kind).Inc()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
