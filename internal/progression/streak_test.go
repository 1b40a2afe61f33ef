package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestUpdateStreakFirstWorkout(t *testing.T) {
	u := &domain.User{}
	update := UpdateStreak(u, day(2024, 3, 4))

	require.Equal(t, 1, u.StreakCount)
	require.Equal(t, 1, u.LongestStreak)
	require.Equal(t, day(2024, 3, 4), *u.StreakLastDate)
	require.Equal(t, day(2024, 3, 4), *u.LastWorkoutDate)
	require.True(t, update.Extended)
}

func TestUpdateStreakConsecutiveDay(t *testing.T) {
	last := day(2024, 3, 4)
	u := &domain.User{StreakCount: 2, LongestStreak: 2, StreakLastDate: &last}

	update := UpdateStreak(u, day(2024, 3, 5))

	require.Equal(t, 3, u.StreakCount)
	require.Equal(t, 3, u.LongestStreak)
	require.True(t, update.Milestone())
}

func TestUpdateStreakSameDayIsIdempotent(t *testing.T) {
	u := &domain.User{}
	UpdateStreak(u, day(2024, 3, 4))
	update := UpdateStreak(u, day(2024, 3, 4))

	require.Equal(t, 1, u.StreakCount)
	require.False(t, update.Extended)
	require.False(t, update.Milestone())
}

func TestUpdateStreakGapResetsToOne(t *testing.T) {
	last := day(2024, 3, 4)
	u := &domain.User{StreakCount: 9, LongestStreak: 9, StreakLastDate: &last, LastWorkoutDate: &last}

	UpdateStreak(u, day(2024, 3, 6))

	require.Equal(t, 1, u.StreakCount)
	require.Equal(t, 9, u.LongestStreak)
	require.Equal(t, day(2024, 3, 6), *u.LastWorkoutDate)
}

func TestUpdateStreakIgnoresEarlierDate(t *testing.T) {
	last := day(2024, 3, 4)
	u := &domain.User{StreakCount: 4, StreakLastDate: &last, LastWorkoutDate: &last}

	update := UpdateStreak(u, day(2024, 3, 1))

	require.True(t, update.Stale)
	require.Equal(t, 4, u.StreakCount)
	require.Equal(t, last, *u.StreakLastDate)
}

func TestUpdateStreakAcrossMonthBoundary(t *testing.T) {
	last := day(2024, 2, 29)
	u := &domain.User{StreakCount: 6, StreakLastDate: &last}

	update := UpdateStreak(u, day(2024, 3, 1))

	require.Equal(t, 7, u.StreakCount)
	require.True(t, update.Milestone())
}
