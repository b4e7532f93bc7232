package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dispatch metrics
	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relaybot_events_received_total",
			Help: "Conversation events received by transports",
		},
		[]string{"channel"},
	)

	EventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relaybot_events_dispatched_total",
			Help: "Conversation events run through the dispatcher, by route",
		},
		[]string{"route"}, // "command", "pipeline" or "skipped"
	)

	HandlerFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relaybot_handler_fired_total",
			Help: "Dispatcher handlers that produced output",
		},
		[]string{"handler"},
	)

	CommandsDenied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relaybot_commands_denied_total",
			Help: "Admin-restricted commands refused to non-admins",
		},
	)

	BroadcastDuplicates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relaybot_broadcast_duplicates_total",
			Help: "Events suppressed because they were already broadcast",
		},
	)

	// Transport metrics
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relaybot_messages_sent_total",
			Help: "Messages delivered by transports",
		},
		[]string{"channel"},
	)

	SendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relaybot_send_failures_total",
			Help: "Sends that failed, by reason",
		},
		[]string{"reason"}, // "not_found" or "transport"
	)

	DispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relaybot_dispatch_duration_seconds",
			Help:    "Time spent dispatching one event",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)
)
