package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taxifare"

// Outcome label values shared by the outbound client metrics.
const (
	OutcomeOK        = "ok"
	OutcomeNotFound  = "not_found"
	OutcomeNetwork   = "network_error"
	OutcomeService   = "service_error"
	OutcomeMalformed = "malformed_response"
	OutcomeInvalid   = "invalid"
	OutcomeFailed    = "failed"
)

var (
	GeocodeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "geocode_requests_total", Help: "Geocoding lookups by provider and outcome"},
		[]string{"provider", "outcome"},
	)
	PredictionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "prediction_requests_total", Help: "Fare prediction calls by outcome"},
		[]string{"outcome"},
	)
	PredictionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "prediction_latency_seconds",
		Help:      "Fare prediction call latency",
		Buckets:   prometheus.DefBuckets,
	})
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "sessions_active", Help: "Open form sessions held in memory"})
	MapClicks      = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "map_clicks_total", Help: "Map clicks committed to session coordinates"},
		[]string{"role"},
	)
	QuotesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "quotes_published_total", Help: "Fare quote events handed to the broker"},
		[]string{"outcome"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

var (
	QuotesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "quotes_consumed_total", Help: "Fare quote events read by the consumer, by outcome"},
		[]string{"outcome"},
	)
	QuotedFares = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quoted_fare_dollars",
			Help:      "Distribution of quoted fares by input mode",
			Buckets:   []float64{5, 10, 15, 20, 30, 50, 75, 100, 150},
		},
		[]string{"mode"},
	)
)
