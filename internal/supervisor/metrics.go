package supervisor

import "github.com/prometheus/client_golang/prometheus"

var (
	startsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plotbench",
			Subsystem: "supervisor",
			Name:      "starts_total",
			Help:      "Server start attempts by outcome",
		},
		[]string{"outcome"},
	)

	startupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "plotbench",
			Subsystem: "supervisor",
			Name:      "startup_duration_seconds",
			Help:      "Time from spawn to a healthy server",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 90, 120},
		},
	)

	activeServerGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "plotbench",
			Subsystem: "supervisor",
			Name:      "active_server",
			Help:      "1 while a server is active",
		},
	)

	chatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plotbench",
			Subsystem: "supervisor",
			Name:      "chat_requests_total",
			Help:      "Chat requests dispatched to the active server by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(startsTotal, startupDuration, activeServerGauge, chatRequestsTotal)
}
