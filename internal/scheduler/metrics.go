package scheduler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	jobRunsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "scheduler",
		Name:      "job_runs_total",
		Help:      "Number of scheduled job runs by outcome.",
	}, []string{"job", "status"})

	jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fittrack",
		Subsystem: "scheduler",
		Name:      "job_duration_seconds",
		Help:      "Wall time of scheduled job runs.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"job"})

	remindersCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "scheduler",
		Name:      "reminders_sent_total",
		Help:      "Number of reminder notifications created, by kind.",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(jobRunsCounter, jobDuration, remindersCounter)
}

func recordJobRun(job string, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	jobRunsCounter.WithLabelValues(job, status).Inc()
	jobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}
