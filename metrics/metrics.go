package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var RecomputeCounter = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "team_points_recompute_total",
		Help: "Number of team total point recomputes persisted",
	},
)

var RecomputeErrorCounter = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "team_points_recompute_error_total",
		Help: "Number of failed team total point recomputes",
	},
)

var CacheInvalidationCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "standings_cache_invalidation_total",
	Help: "Number of cache invalidations by derived view",
}, []string{"view"})

var TasksScheduledCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "points_tasks_scheduled_total",
	Help: "Number of deferred recompute tasks handed to the task queue",
})

var TasksProcessedCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "points_tasks_processed_total",
	Help: "Number of deferred recompute tasks executed by the worker",
})

var TaskErrorCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "points_tasks_error_total",
	Help: "Number of deferred recompute tasks that failed",
})

var RecalculationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "points_recalculation_duration_s",
	Help: "Duration of full point recalculation runs",
	Buckets: []float64{
		0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10, 30, 60,
	},
})
