// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TasksEnqueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifier_tasks_enqueued_total",
			Help: "Total number of notification tasks accepted by the gateway",
		},
	)

	TasksCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_tasks_completed_total",
			Help: "Total number of tasks that reached a terminal state",
		},
		[]string{"status"},
	)

	TasksRetried = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifier_tasks_retried_total",
			Help: "Total number of task retry attempts scheduled",
		},
	)

	TasksDeadLettered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifier_tasks_dead_lettered_total",
			Help: "Total number of tasks moved to the dead-letter list",
		},
	)

	TaskDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "notifier_task_duration_seconds",
			Help: "Duration of orchestration attempts in seconds",
		},
	)

	ChannelSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_channel_sends_total",
			Help: "Per-channel delivery outcomes",
		},
		[]string{"channel", "outcome"},
	)

	WebhooksReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_webhooks_received_total",
			Help: "Inbound webhook requests by disposition",
		},
		[]string{"disposition"},
	)
)
