package progression

import (
	"math"
	"time"
)

// Session XP and calorie constants.
const (
	BaseSessionXP        = 50
	MaxDurationXP        = 50
	MinutesPerDurationXP = 5
	XPPerExerciseRecord  = 5
	MinSessionXP         = 10
	RandomnessSpread     = 10
	DefaultWeightKG      = 70.0
	CaloriesPerMinute    = 8.0
)

// SessionStats are the derived completion values of one session.
type SessionStats struct {
	EndTime         time.Time
	DurationSeconds int
	CaloriesBurned  int
	XPEarned        int
}

// ComputeSessionStats derives duration, calories and XP for a session ending at end.
// weightKG defaults to 70 when unknown. randomness must already lie in [-10, 10].
func ComputeSessionStats(start, end time.Time, weightKG *float64, exerciseRecords, randomness int) SessionStats {
	duration := int(end.Sub(start) / time.Second)
	if duration < 0 {
		duration = 0
	}
	minutes := float64(duration) / 60

	weight := DefaultWeightKG
	if weightKG != nil && *weightKG > 0 {
		weight = *weightKG
	}
	calories := int(math.Floor(minutes * CaloriesPerMinute * weight / DefaultWeightKG))

	durationXP := min(int(math.Floor(minutes/MinutesPerDurationXP)), MaxDurationXP)
	xp := BaseSessionXP + durationXP + XPPerExerciseRecord*exerciseRecords + randomness

	return SessionStats{
		EndTime:         end,
		DurationSeconds: duration,
		CaloriesBurned:  calories,
		XPEarned:        max(xp, MinSessionXP),
	}
}
