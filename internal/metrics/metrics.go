// Package metrics holds the domain counters exported on /metrics next to the
// HTTP metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StageTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grants_stage_transitions_total",
			Help: "Application stage changes by source and target stage",
		},
		[]string{"from", "to"},
	)

	PendingItemsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grants_pending_items_created_total",
			Help: "Pending items requested from clubs, by item type",
		},
		[]string{"type"},
	)

	PendingItemStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grants_pending_item_status_changes_total",
			Help: "Pending item status changes, by new status",
		},
		[]string{"status"},
	)

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grants_notification_failures_total",
			Help: "Notification deliveries that failed, by channel",
		},
		[]string{"channel"},
	)

	ClubLogins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grants_club_logins_total",
			Help: "Club login attempts by method and result",
		},
		[]string{"method", "result"},
	)

	GrantsClosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "grants_swept_closed_total",
			Help: "Grants closed by the close date sweeper",
		},
	)

	DashboardDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "grants_dashboard_compute_seconds",
			Help:    "Time to load and aggregate the staff dashboard",
			Buckets: prometheus.DefBuckets,
		},
	)
)
