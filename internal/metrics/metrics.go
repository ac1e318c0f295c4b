package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Upload metrics
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motionsense_uploads_total",
			Help: "Upload attempts by outcome",
		},
		[]string{"outcome"},
	)

	UploadsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "motionsense_uploads_in_flight",
			Help: "Inference calls currently awaiting a response",
		},
	)

	UploadProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "motionsense_upload_progress_percent",
			Help: "Displayed progress of the current upload",
		},
	)

	// Inference metrics
	InferenceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "motionsense_inference_duration_seconds",
			Help:    "Inference call duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"outcome"},
	)

	PredictionCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "motionsense_prediction_cache_hits_total",
			Help: "Prediction cache hits",
		},
	)

	PredictionCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "motionsense_prediction_cache_misses_total",
			Help: "Prediction cache misses",
		},
	)

	// Analysis metrics
	SessionsByRisk = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motionsense_sessions_total",
			Help: "Completed session analyses by risk level",
		},
		[]string{"risk_level"},
	)

	WindowsAnalyzed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "motionsense_windows_analyzed_total",
			Help: "Analysis windows aggregated across all sessions",
		},
	)
)

func init() {
	prometheus.MustRegister(
		UploadsTotal,
		UploadsInFlight,
		UploadProgress,
		InferenceDuration,
		PredictionCacheHits,
		PredictionCacheMisses,
		SessionsByRisk,
		WindowsAnalyzed,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
