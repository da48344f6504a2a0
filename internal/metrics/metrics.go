package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StatusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fashionbreeze_status_transitions_total",
		Help: "Total number of committed status transitions, by entity kind.",
	},
		[]string{"entity"},
	)

	TransitionConflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fashionbreeze_transition_conflicts_total",
		Help: "Total number of transitions rejected because the expected pre-state no longer matched.",
	},
		[]string{"entity"},
	)

	NotificationsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fashionbreeze_notifications_created_total",
		Help: "Total number of durable notification records created.",
	})

	RealtimePushesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fashionbreeze_realtime_pushes_dropped_total",
		Help: "Total number of realtime push attempts dropped because no connection accepted them.",
	})

	RealtimeClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fashionbreeze_realtime_clients",
		Help: "Current number of connected realtime clients.",
	})

	OrderCacheItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fashionbreeze_order_cache_items",
		Help: "Current number of items in the active order cache.",
	})
)
