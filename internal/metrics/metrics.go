package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sov_analysis_runs_total",
			Help: "Total number of analysis runs by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sov_analysis_run_duration_seconds",
			Help:    "Duration of analysis runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"kind"},
	)

	ResponsesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sov_responses_fetched_total",
			Help: "Total number of provider responses fetched",
		},
		[]string{"provider"},
	)

	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sov_fetch_errors_total",
			Help: "Total number of failed query fetches",
		},
		[]string{"project"},
	)

	MentionsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sov_mentions_detected_total",
			Help: "Total number of brand mentions detected",
		},
		[]string{"project", "brand", "recommended"},
	)

	ShareOfVoice = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sov_share_of_voice_percent",
			Help: "Share of voice of each brand over the latest report period",
		},
		[]string{"project", "brand"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sov_cache_lookups_total",
			Help: "Aggregate cache lookups by result",
		},
		[]string{"result"},
	)
)
