package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Rows read per input ("sites" or "series").
	RowsParsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "reservoir_rows_parsed_total", Help: "Data rows read from an RDB input"},
		[]string{"input"},
	)
	RowsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "reservoir_rows_skipped_total", Help: "Data rows dropped while parsing, by reason"},
		[]string{"input", "reason"},
	)
	Fetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "reservoir_fetch_total", Help: "Raw time series retrievals by source and result"},
		[]string{"source", "result"},
	)
	Builds = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "reservoir_builds_total", Help: "Pipeline runs by result"},
		[]string{"result"},
	)
	FeaturesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "reservoir_features", Help: "Features in the latest document"},
	)
	UnlocatedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "reservoir_features_without_metadata", Help: "Features in the latest document with readings but no inventory entry"},
	)
	BuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reservoir_build_duration_seconds",
			Help:    "Wall time of one pipeline run",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)
)

var registerOnce sync.Once

// Register adds all collectors to the default registry. Safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RowsParsed, RowsSkipped, Fetches, Builds, FeaturesGauge, UnlocatedGauge, BuildDuration)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
