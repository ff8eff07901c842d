package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the Prometheus metrics for the visualizer.
type Metrics struct {
	SessionsStarted prometheus.Counter
	SessionsEnded   prometheus.Counter
	FramesRendered  prometheus.Counter
	MicToggles      prometheus.Counter
	SmoothedLevel   prometheus.Gauge
	ClipBytes       prometheus.Counter
	ClipDuration    prometheus.Histogram
}

// New creates and registers all metrics with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulseviz_sessions_started_total",
			Help: "Total number of capture sessions started",
		}),
		SessionsEnded: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulseviz_sessions_ended_total",
			Help: "Total number of capture sessions ended",
		}),
		FramesRendered: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulseviz_frames_rendered_total",
			Help: "Total number of animation frames stepped",
		}),
		MicToggles: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulseviz_mic_toggles_total",
			Help: "Total number of microphone mute/unmute toggles",
		}),
		SmoothedLevel: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pulseviz_smoothed_amplitude",
			Help: "Current smoothed amplitude in [0,1]",
		}),
		ClipBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulseviz_clip_bytes_total",
			Help: "Total bytes of assembled audio clips",
		}),
		ClipDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulseviz_clip_duration_seconds",
			Help:    "Duration of recorded clips",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

// Serve exposes the default registry on addr under /metrics. It blocks,
// so callers run it in a goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
