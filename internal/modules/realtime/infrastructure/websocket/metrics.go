package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_connected_clients",
		Help: "Number of websocket clients registered with the hub.",
	})

	publishedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_events_published_total",
		Help: "Events handed to the hub, by kind.",
	}, []string{"kind"})

	deliveredEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_events_delivered_total",
		Help: "Events queued to a client connection, by kind.",
	}, []string{"kind"})
)
