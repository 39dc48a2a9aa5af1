package database

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.mongodb.org/mongo-driver/event"
)

var (
	mongoPoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mongo_pool_open_connections",
			Help: "Number of open connections in the MongoDB driver pool",
		},
		[]string{"service"},
	)

	mongoPoolCheckedOut = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mongo_pool_checked_out_connections",
			Help: "Number of MongoDB connections currently checked out",
		},
		[]string{"service"},
	)

	mongoPoolCheckoutFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mongo_pool_checkout_failures_total",
			Help: "Total number of failed MongoDB connection checkouts",
		},
		[]string{"service", "reason"},
	)
)

// NewPoolMonitor returns a driver pool monitor that mirrors connection pool
// events into Prometheus metrics labelled with service.
func NewPoolMonitor(service string) *event.PoolMonitor {
	open := mongoPoolConnections.WithLabelValues(service)
	out := mongoPoolCheckedOut.WithLabelValues(service)

	return &event.PoolMonitor{
		Event: func(e *event.PoolEvent) {
			switch e.Type {
			case event.ConnectionCreated:
				open.Inc()
			case event.ConnectionClosed:
				open.Dec()
			case event.GetSucceeded:
				out.Inc()
			case event.ConnectionReturned:
				out.Dec()
			case event.GetFailed:
				mongoPoolCheckoutFailures.WithLabelValues(service, e.Reason).Inc()
			}
		},
	}
}
