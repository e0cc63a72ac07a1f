// Package metrics holds the Prometheus collectors updated by the extraction
// engine and the ffsnap server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Extraction metrics
var (
	OpensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffsnap_opens_total",
			Help: "Total number of media sources opened, by result",
		},
		[]string{"result"}, // "ok", "open_error", "no_streams"
	)

	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffsnap_extractions_total",
			Help: "Total number of image extractions",
		},
		[]string{"operation", "result"},
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ffsnap_extraction_duration_seconds",
			Help:    "Image extraction duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	PictureModeTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ffsnap_picture_mode_total",
			Help: "Total number of sources served from a pre-rendered picture",
		},
	)
)

// Decode metrics
var (
	DecodeFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ffsnap_decode_failures_total",
			Help: "Total number of packets skipped because the decoder rejected them",
		},
	)

	HWAccelFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffsnap_hwaccel_fallbacks_total",
			Help: "Total number of stream contexts that fell back to software decode",
		},
		[]string{"stage"}, // "init", "decode"
	)

	FilterChainBuildsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ffsnap_filter_chain_builds_total",
			Help: "Total number of conversion chains built",
		},
	)

	FramesSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ffsnap_frames_skipped_total",
			Help: "Total number of decoded frames discarded while seeking to a target time",
		},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffsnap_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ffsnap_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

// WriteTextFile writes the default registry in the Prometheus text format,
// for node_exporter's textfile collector.
func WriteTextFile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
