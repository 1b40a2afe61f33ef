package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputeSessionStatsHourLongSession(t *testing.T) {
	start := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	weight := 70.0

	stats := ComputeSessionStats(start, start.Add(time.Hour), &weight, 4, 0)

	require.Equal(t, 3600, stats.DurationSeconds)
	require.Equal(t, 480, stats.CaloriesBurned)
	require.Equal(t, 82, stats.XPEarned)
}

func TestComputeSessionStatsShortSessionWithNegativeRoll(t *testing.T) {
	start := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	stats := ComputeSessionStats(start, start.Add(30*time.Second), nil, 0, -10)

	require.Equal(t, 30, stats.DurationSeconds)
	require.Equal(t, 4, stats.CaloriesBurned)
	require.Equal(t, 40, stats.XPEarned)
}

func TestComputeSessionStatsScalesCaloriesByWeight(t *testing.T) {
	start := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	weight := 105.0

	stats := ComputeSessionStats(start, start.Add(30*time.Minute), &weight, 0, 0)

	// 30 * 8 * 105 / 70
	require.Equal(t, 360, stats.CaloriesBurned)
}

func TestComputeSessionStatsCapsDurationXP(t *testing.T) {
	start := time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC)

	stats := ComputeSessionStats(start, start.Add(6*time.Hour), nil, 2, 10)

	require.Equal(t, 50+50+10+10, stats.XPEarned)
}

func TestComputeSessionStatsClampsNegativeDuration(t *testing.T) {
	start := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	stats := ComputeSessionStats(start, start.Add(-time.Minute), nil, 0, -10)

	require.Zero(t, stats.DurationSeconds)
	require.Zero(t, stats.CaloriesBurned)
	require.Equal(t, 40, stats.XPEarned)
}

func TestComputeSessionStatsTruncatesPartialSeconds(t *testing.T) {
	start := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	stats := ComputeSessionStats(start, start.Add(90*time.Second+900*time.Millisecond), nil, 0, 0)

	require.Equal(t, 90, stats.DurationSeconds)
}
