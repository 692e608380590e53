// Package metrics holds the Prometheus instruments of the segmentation service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vadseg"

// Metrics contains all Prometheus metrics for the service
type Metrics struct {
	// VAD metrics
	WindowsInferred prometheus.Counter
	InferenceErrors prometheus.Counter
	InferenceTime   prometheus.Histogram

	// Segmentation metrics
	ClipsProcessed  prometheus.Counter
	SegmentsEmitted prometheus.Counter
	SpeechSeconds   prometheus.Counter
	AudioSeconds    prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	BusyWorkers         prometheus.Gauge
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		WindowsInferred: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vad_windows_total",
			Help:      "Total number of audio windows scored by the model",
		}),
		InferenceErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vad_inference_errors_total",
			Help:      "Total number of clips whose model scan failed",
		}),
		InferenceTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vad_inference_duration_seconds",
			Help:      "Time spent scoring one clip",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}),
		ClipsProcessed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clips_total",
			Help:      "Total number of clips segmented",
		}),
		SegmentsEmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_total",
			Help:      "Total number of speech segments emitted",
		}),
		SpeechSeconds: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_seconds_total",
			Help:      "Total duration of emitted speech segments",
		}),
		AudioSeconds: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_seconds_total",
			Help:      "Total duration of audio processed",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"path", "code"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
		BusyWorkers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "busy_workers",
			Help:      "Number of segmenters currently processing a clip",
		}),
	}
}

// ObserveClip records the outcome of one successful segmentation.
func (m *Metrics) ObserveClip(windows, segments int, audioSeconds, speechSeconds float64) {
	if m == nil {
		return
	}
	m.ClipsProcessed.Inc()
	m.WindowsInferred.Add(float64(windows))
	m.SegmentsEmitted.Add(float64(segments))
	m.AudioSeconds.Add(audioSeconds)
	m.SpeechSeconds.Add(speechSeconds)
}

// ObserveInference records how long the model scan of one clip took, or counts
// the failure when err is set.
func (m *Metrics) ObserveInference(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.InferenceErrors.Inc()
		return
	}
	m.InferenceTime.Observe(elapsed.Seconds())
}
