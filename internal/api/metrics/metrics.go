// Package metrics defines all custom Prometheus metrics for the WORTH
// server. It is the single source of truth for metric names, labels, and
// help strings; registration happens at import time via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "worth"

// ---------------------------------------------------------------------------
// Request channel metrics
// ---------------------------------------------------------------------------

// RequestsTotal counts framed TCP requests by verb ("login", "move_card",
// …, or "unknown" for verbs outside the handler table).
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "Total number of framed requests dispatched, by verb.",
	},
	[]string{"verb"},
)

// RequestErrorsTotal counts requests answered with a domain error line.
var RequestErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "request_errors_total",
		Help:      "Total number of requests answered with an error, by verb.",
	},
	[]string{"verb"},
)

// ConnectionsOpen tracks currently accepted TCP client connections.
var ConnectionsOpen = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connections_open",
		Help:      "Number of currently open TCP client connections.",
	},
)

// ---------------------------------------------------------------------------
// Notification hub metrics
// ---------------------------------------------------------------------------

// SubscribersConnected tracks registered callback subscribers.
var SubscribersConnected = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "subscribers_connected",
		Help:      "Number of callback subscribers currently registered.",
	},
)

// NotificationsPublishedTotal counts individual presence deliveries
// attempted across all publishes.
var NotificationsPublishedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_published_total",
		Help:      "Total number of presence notifications pushed to subscribers.",
	},
)

// StaleSubscribersPrunedTotal counts subscribers dropped after a failed
// delivery.
var StaleSubscribersPrunedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_subscribers_pruned_total",
		Help:      "Total number of unreachable subscribers pruned from the hub.",
	},
)

// ---------------------------------------------------------------------------
// Chat metrics
// ---------------------------------------------------------------------------

// ChatAnnouncementsTotal counts server-authored datagrams sent to project
// chat groups.
var ChatAnnouncementsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_announcements_total",
		Help:      "Total number of system announcements sent to chat groups.",
	},
)
