package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the Prometheus instruments served on /metrics. Each server
// carries its own registry so multiple instances can coexist in one process.
type metrics struct {
	registry *prometheus.Registry

	wsClients      prometheus.Gauge
	broadcasts     prometheus.Counter
	broadcastDrops prometheus.Counter
	syncOps        *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "firewatch_ws_clients",
			Help: "Number of connected dashboard clients.",
		}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "firewatch_broadcasts_total",
			Help: "Messages queued for broadcast to dashboard clients.",
		}),
		broadcastDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "firewatch_broadcast_drops_total",
			Help: "Broadcast messages dropped because the queue was full.",
		}),
		syncOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "firewatch_sync_operations_total",
			Help: "Sync operations observed on the store, by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}

	m.registry.MustRegister(m.wsClients, m.broadcasts, m.broadcastDrops, m.syncOps)
	return m
}
