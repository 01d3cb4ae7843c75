package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facecat",
		Name:      "frames_processed_total",
		Help:      "Total number of video frames processed",
	})

	FacesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facecat",
		Name:      "faces_detected_total",
		Help:      "Total number of faces detected",
	})

	PersonsCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facecat",
		Name:      "persons_captured_total",
		Help:      "Total number of new persons added to the catalog",
	})

	PersonsMatched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facecat",
		Name:      "persons_matched_total",
		Help:      "Total number of new tracks resolved to an existing person",
	})

	InferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "facecat",
		Name:      "inference_duration_seconds",
		Help:      "Duration of ML inference stages",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"stage"})

	CatalogSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "facecat",
		Name:      "catalog_size",
		Help:      "Number of person records in the catalog",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "facecat",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "facecat",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
