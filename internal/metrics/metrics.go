package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	conversionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "echoflow_conversion_total",
			Help: "Completed conversions by converter, format and outcome",
		},
		[]string{"converter", "format", "outcome"},
	)

	conversionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "echoflow_conversion_duration_seconds",
			Help:    "End-to-end conversion durations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"converter"},
	)

	conversionInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "echoflow_conversion_inflight",
			Help: "Conversions currently in flight",
		},
	)

	imagesExtracted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "echoflow_images_extracted_total",
			Help: "Image descriptors emitted across all conversions",
		},
	)

	cacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "echoflow_cache_events_total",
			Help: "Result cache events",
		},
		[]string{"event"},
	)
)

// Register registers all collectors with reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(conversionTotal, conversionDuration, conversionInflight, imagesExtracted, cacheEvents)
}

func RecordStart() {
	conversionInflight.Inc()
}

func RecordComplete(converter, format string, success bool, images int, dur time.Duration) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	conversionTotal.WithLabelValues(converter, format, outcome).Inc()
	conversionDuration.WithLabelValues(converter).Observe(dur.Seconds())
	conversionInflight.Dec()
	if images > 0 {
		imagesExtracted.Add(float64(images))
	}
}

func RecordCacheEvent(event string) {
	cacheEvents.WithLabelValues(event).Inc()
}
