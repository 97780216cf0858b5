package services

import "github.com/prometheus/client_golang/prometheus"

// Label cardinality is fixed: decisions, operations and results are small
// closed sets. Chat and user IDs never become labels.
var (
	// messagesTotal counts handled messages by moderation decision.
	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkguard_messages_total",
			Help: "Messages handled by the moderator, by decision.",
		},
		[]string{"decision"},
	)

	// enforcementSteps counts delete/ban/warn calls by outcome.
	enforcementSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkguard_enforcement_steps_total",
			Help: "Enforcement platform calls, by step and result.",
		},
		[]string{"step", "result"},
	)

	// broadcastSends counts per-chat broadcast deliveries by outcome.
	broadcastSends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkguard_broadcast_sends_total",
			Help: "Periodic broadcast sends, by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(messagesTotal, enforcementSteps, broadcastSends)
}

const (
	resultOK    = "ok"
	resultError = "error"
)
