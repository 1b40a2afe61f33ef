// Package observability exposes Prometheus collectors for the progression engine.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	sessionsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "progression",
		Name:      "sessions_completed_total",
		Help:      "Workout sessions finalized.",
	})
	sessionXP = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fittrack",
		Subsystem: "progression",
		Name:      "session_xp",
		Help:      "XP awarded per finalized session, before achievement rewards.",
		Buckets:   []float64{10, 25, 50, 75, 100, 125, 150},
	})
	levelUps = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "progression",
		Name:      "level_ups_total",
		Help:      "Session completions that raised the user's level.",
	})
	achievementsUnlocked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "progression",
		Name:      "achievements_unlocked_total",
		Help:      "Achievements unlocked, labelled by achievement id.",
	}, []string{"achievement"})
	completionRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "progression",
		Name:      "completion_rejected_total",
		Help:      "Session completions rejected, labelled by reason.",
	}, []string{"reason"})
	lastCompletionGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fittrack",
		Subsystem: "progression",
		Name:      "last_session_completed_timestamp_seconds",
		Help:      "Unix timestamp of the most recent session finalized.",
	})
)

func init() {
	prometheus.MustRegister(sessionsCompleted, sessionXP, levelUps, achievementsUnlocked, completionRejected, lastCompletionGauge)
}

// RecordSessionCompleted updates the completion collectors after commit.
func RecordSessionCompleted(ts time.Time, xp int, leveledUp bool) {
	sessionsCompleted.Inc()
	sessionXP.Observe(float64(xp))
	if leveledUp {
		levelUps.Inc()
	}
	if !ts.IsZero() {
		lastCompletionGauge.Set(float64(ts.Unix()))
	}
}

// RecordAchievementUnlocked counts an unlock.
func RecordAchievementUnlocked(achievementID string) {
	achievementsUnlocked.WithLabelValues(achievementID).Inc()
}

// RecordCompletionRejected counts a rejected completion attempt.
func RecordCompletionRejected(reason string) {
	completionRejected.WithLabelValues(reason).Inc()
}
