package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScanPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendinghub_scan_passes_total",
			Help: "Total number of due/overdue scan passes by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)

	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lendinghub_scan_duration_seconds",
			Help:    "Duration of a scan pass including dispatch",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"trigger"},
	)

	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendinghub_notifications_created_total",
			Help: "Notification rows persisted by the scan, by type",
		},
		[]string{"type"},
	)

	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendinghub_deliveries_total",
			Help: "Delivery attempts per channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lendinghub_live_connections",
			Help: "Number of registered real-time connections",
		},
	)
)
