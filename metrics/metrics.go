package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "Total number of messages persisted, by whether they carry an attachment",
		},
		[]string{"has_attachment"},
	)

	MessagesMarkedRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_marked_read_total",
			Help: "Total number of message rows transitioned from unread to read",
		},
	)

	AccessDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_access_denied_total",
			Help: "Total number of denied conversation access checks, by operation",
		},
		[]string{"operation"},
	)

	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notification records written, by type",
		},
		[]string{"type"},
	)

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Total number of notification side effects that failed, by stage",
		},
		[]string{"stage"},
	)

	PushDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_deliveries_total",
			Help: "Push decisions taken by the dispatcher (sent, suppressed, dismissed)",
		},
		[]string{"outcome"},
	)

	FeedEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_events_published_total",
			Help: "Change feed events published, by operation",
		},
		[]string{"op"},
	)

	SyncSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_sessions_active",
			Help: "Number of live conversation sync sessions",
		},
	)

	AttachmentUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachment_uploads_total",
			Help: "Attachment upload attempts, by result",
		},
		[]string{"result"},
	)
)
