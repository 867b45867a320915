package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the count stream.
type Metrics struct {
	ObserversAttached prometheus.Gauge
	BroadcastsTotal   prometheus.Counter
	DeliveredUpdates  prometheus.Counter
	DroppedUpdates    *prometheus.CounterVec
}

// NewMetrics registers the stream collectors with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ObserversAttached: factory.NewGauge(prometheus.GaugeOpts{
			Name: "schedule_stream_observers_attached",
			Help: "Number of currently attached count stream observers.",
		}),
		BroadcastsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "schedule_stream_broadcasts_total",
			Help: "Number of count update broadcasts performed.",
		}),
		DeliveredUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "schedule_stream_delivered_updates_total",
			Help: "Number of count updates delivered into observer buffers.",
		}),
		DroppedUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "schedule_stream_dropped_updates_total",
			Help: "Count updates dropped because an observer buffer was full.",
		}, []string{"observer_id"}),
	}
}
