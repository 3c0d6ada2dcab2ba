package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels store calls that returned without error.
	OutcomeSuccess = "success"
	// OutcomeError labels failed store calls.
	OutcomeError = "error"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "predmaint",
			Name:      "http_requests_total",
			Help:      "HTTP requests handled, partitioned by route and status code.",
		},
		[]string{"route", "code"},
	)

	storeQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "predmaint",
			Name:      "store_queries_total",
			Help:      "Sensor store calls, partitioned by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	storeQuerySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "predmaint",
			Name:      "store_query_seconds",
			Help:      "Sensor store call latency in seconds.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"op"},
	)

	scoresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "predmaint",
			Name:      "scores_total",
			Help:      "Risk scores produced, partitioned by provenance.",
		},
		[]string{"provenance"},
	)

	fallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "predmaint",
			Name:      "simulated_responses_total",
			Help:      "Responses served from simulated data, partitioned by route and reason.",
		},
		[]string{"route", "reason"},
	)
)

// Register attaches predmaint collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		requestsTotal,
		storeQueriesTotal,
		storeQuerySeconds,
		scoresTotal,
		fallbacksTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveRequest counts a completed HTTP request.
func ObserveRequest(route string, code int) {
	requestsTotal.WithLabelValues(route, statusLabel(code)).Inc()
}

// ObserveStoreQuery records a store call duration and outcome label.
func ObserveStoreQuery(op string, duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	storeQueriesTotal.WithLabelValues(op, label).Inc()
	if duration < 0 {
		duration = 0
	}
	storeQuerySeconds.WithLabelValues(op).Observe(duration.Seconds())
}

// ObserveScore counts one scored reading.
func ObserveScore(provenance string) {
	scoresTotal.WithLabelValues(provenance).Inc()
}

// ObserveFallback counts a response served from simulated data.
func ObserveFallback(route, reason string) {
	fallbacksTotal.WithLabelValues(route, reason).Inc()
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
