package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Index cache metrics
var (
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_gallery_cache_lookups_total",
			Help: "Index cache lookups, by result",
		},
		[]string{"result"}, // "hit", "miss"
	)

	CacheInvalidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_gallery_cache_invalidations_total",
			Help: "Explicit index cache invalidations",
		},
	)
)

// Aggregation metrics
var (
	AggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "video_gallery_aggregation_duration_seconds",
			Help:    "Time to list the bucket and build the video index",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	IndexedObjects = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_gallery_indexed_objects",
			Help: "Objects seen by the last aggregation",
		},
	)

	URLResolutionFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_gallery_url_resolution_failures_total",
			Help: "Objects dropped because their access URL could not be resolved",
		},
	)

	ListingErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_gallery_listing_errors_total",
			Help: "Bucket listings that ended in an error",
		},
	)
)

// Thumbnail pipeline metrics
var (
	ThumbnailJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_gallery_thumbnail_jobs_total",
			Help: "Thumbnail jobs, by status",
		},
		[]string{"status"}, // "completed", "failed"
	)

	ThumbnailJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "video_gallery_thumbnail_job_duration_seconds",
			Help:    "Duration of one thumbnail pipeline run",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	ActiveThumbnailJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_gallery_active_thumbnail_jobs",
			Help: "Thumbnail jobs currently running",
		},
	)

	ThumbnailsClearedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_gallery_thumbnails_cleared_total",
			Help: "Thumbnail objects deleted",
		},
	)
)
