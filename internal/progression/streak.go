package progression

import (
	"slices"
	"time"

	"example.com/fittrack/internal/domain"
)

var streakMilestones = []int{3, 7, 14, 30, 60, 90, 100}

// StreakUpdate describes the effect of one UpdateStreak call.
type StreakUpdate struct {
	Previous int
	Current  int
	// Extended is true when the count grew by one day.
	Extended bool
	// Stale is true when today precedes the recorded streak date; nothing was changed.
	Stale bool
}

// Milestone reports whether the update extended the streak onto a celebrated length.
func (s StreakUpdate) Milestone() bool {
	return s.Extended && slices.Contains(streakMilestones, s.Current)
}

// UpdateStreak applies one completed workout on the calendar date today. A second call on
// the same date is a no-op for the count. A gap of more than one day restarts at 1.
func UpdateStreak(u *domain.User, today time.Time) StreakUpdate {
	today = calendarDate(today)
	update := StreakUpdate{Previous: u.StreakCount}

	if u.StreakLastDate == nil {
		u.StreakCount = 1
		update.Extended = true
	} else {
		switch gap := daysBetween(calendarDate(*u.StreakLastDate), today); {
		case gap < 0:
			update.Current = u.StreakCount
			update.Stale = true
			return update
		case gap == 0:
		case gap == 1:
			u.StreakCount++
			update.Extended = true
		default:
			u.StreakCount = 1
		}
	}

	if u.StreakCount > u.LongestStreak {
		u.LongestStreak = u.StreakCount
	}
	last := today
	u.StreakLastDate = &last
	workout := today
	u.LastWorkoutDate = &workout

	update.Current = u.StreakCount
	return update
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
