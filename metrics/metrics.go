package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// ReportsCreatedTotal counts create attempts by outcome.
	ReportsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civic",
		Subsystem: "reports",
		Name:      "create_total",
		Help:      "Total number of report create requests, labeled by result (created, invalid, too_large, db_error).",
	}, []string{"result"})

	// ConnectedSessions is the number of realtime sessions currently registered with the hub.
	ConnectedSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "civic",
		Subsystem: "realtime",
		Name:      "connected_sessions",
		Help:      "Number of realtime viewer sessions currently connected.",
	})

	// BroadcastsTotal counts newReport events accepted by the hub.
	BroadcastsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "civic",
		Subsystem: "realtime",
		Name:      "broadcasts_total",
		Help:      "Total number of newReport events handed to the hub.",
	})

	// BroadcastsDroppedTotal counts events the hub could not accept.
	BroadcastsDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "civic",
		Subsystem: "realtime",
		Name:      "broadcasts_dropped_total",
		Help:      "Total number of newReport events dropped because the hub buffer was full.",
	})

	// SessionsEvictedTotal counts sessions dropped because their send buffer was full.
	SessionsEvictedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "civic",
		Subsystem: "realtime",
		Name:      "sessions_evicted_total",
		Help:      "Total number of realtime sessions evicted for not keeping up.",
	})

	// AMQPPublishTotal counts analysis fan-out publishes by outcome.
	AMQPPublishTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civic",
		Subsystem: "amqp",
		Name:      "publish_total",
		Help:      "Total number of reports published to RabbitMQ, labeled by result.",
	}, []string{"result"})
)

// Register registers the service metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ReportsCreatedTotal,
			ConnectedSessions,
			BroadcastsTotal,
			BroadcastsDroppedTotal,
			SessionsEvictedTotal,
			AMQPPublishTotal,
		)
	})
}
