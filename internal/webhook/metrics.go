package webhook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Webhook delivery outcomes after the retry budget",
		},
		[]string{"event", "result"},
	)

	deliveryAttempts = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_delivery_attempts",
			Help:    "HTTP attempts used per webhook delivery",
			Buckets: []float64{1, 2, 3, 4, 5, 8},
		},
		[]string{"event"},
	)

	eventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_events_dropped_total",
			Help: "Events dropped because the dispatch queue was full or closed",
		},
	)
)
