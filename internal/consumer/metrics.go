package consumer

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ─────────────────────────────────────────────
// Consumer metrics
// ─────────────────────────────────────────────

var (
	// OrdersProcessed counts finished order runs by outcome.
	OrdersProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "printworks",
			Subsystem: "consumer",
			Name:      "orders_processed_total",
			Help:      "Total order runs, by outcome.",
		},
		[]string{"outcome"}, // "printed" | "skipped" | "failed"
	)

	// OrderFailures breaks failed runs down by stage and kind.
	OrderFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "printworks",
			Subsystem: "consumer",
			Name:      "order_failures_total",
			Help:      "Failed order runs, by pipeline stage and failure kind.",
		},
		[]string{"stage", "kind"},
	)

	// OrderDuration tracks how long a full order run takes.
	OrderDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "printworks",
			Subsystem: "consumer",
			Name:      "order_duration_seconds",
			Help:      "Duration of full order runs in seconds.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	// PhotosAcquired tracks how many photos each package contains.
	PhotosAcquired = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "printworks",
			Subsystem: "consumer",
			Name:      "photos_per_order",
			Help:      "Number of photos acquired per order.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)

	// MessagesReclaimed counts redeliveries after a lease expired.
	MessagesReclaimed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "printworks",
			Subsystem: "queue",
			Name:      "messages_reclaimed_total",
			Help:      "Messages re-queued after their visibility lease expired.",
		},
	)
)

// Registry holds every printworks metric plus Go runtime and process
// collectors. The consume command exposes it on the health listener.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	Registry.MustRegister(
		OrdersProcessed,
		OrderFailures,
		OrderDuration,
		PhotosAcquired,
		MessagesReclaimed,
	)
}

// MetricsHandler serves the registry in Prometheus exposition format.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
