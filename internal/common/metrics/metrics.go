// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup outcomes for MatchCacheRequests.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

var (
	MatchPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rfq_match_pass_duration_seconds",
			Help:    "Duration of a full candidate scoring pass for one opportunity",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)

	CandidatesScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rfq_candidates_scored_total",
			Help: "Total number of candidate/opportunity pairs scored",
		},
	)

	CandidatesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rfq_candidates_skipped_total",
			Help: "Candidates dropped from a pass because their profile could not be scored",
		},
	)

	MatchCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfq_match_cache_requests_total",
			Help: "Match cache lookups by outcome",
		},
		[]string{"result"},
	)

	PartnershipsEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rfq_partnerships_emitted_total",
			Help: "Partnerships that cleared the viability floor",
		},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfq_notifications_failed_total",
			Help: "Notifications that could not be delivered",
		},
		[]string{"channel"},
	)
)
