package progression

import (
	"fmt"
	"slices"
	"time"

	"example.com/fittrack/internal/domain"
)

// Facts is the state a rule is checked against.
type Facts struct {
	User       domain.User
	Session    domain.WorkoutSession
	Projection domain.ProgressProjection
	Location   *time.Location
}

// Satisfied reports whether facts meet the rule's threshold. Every RequirementType has
// exactly one case; anything else is ErrUnknownRequirement.
func Satisfied(rule domain.Achievement, f Facts) (bool, error) {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	switch rule.RequirementType {
	case domain.RequirementWorkoutCount:
		return f.Projection.CompletedSessions >= rule.RequirementValue, nil
	case domain.RequirementStreakCount:
		return f.User.StreakCount >= rule.RequirementValue, nil
	case domain.RequirementTotalWorkouts:
		return f.Projection.CompletedSessions >= rule.RequirementValue, nil
	case domain.RequirementSessionDuration:
		return f.Session.Completed && f.Session.DurationSeconds >= rule.RequirementValue*60, nil
	case domain.RequirementWorkoutTime:
		hour := f.Session.StartTime.In(loc).Hour()
		switch rule.TimeWindow {
		case domain.WindowAfter:
			return hour >= rule.RequirementValue, nil
		case domain.WindowBefore:
			return hour < rule.RequirementValue, nil
		}
		return false, fmt.Errorf("%w: time window %q", domain.ErrUnknownRequirement, rule.TimeWindow)
	case domain.RequirementWeekendWorkouts:
		return domain.IsWeekend(f.Session.StartTime, loc) && f.Projection.WeekendSessions >= rule.RequirementValue, nil
	case domain.RequirementMuscleGroupVariety:
		return coversAll(f.Projection.TrainedMuscleGroupIDs, f.Projection.KnownMuscleGroupIDs), nil
	case domain.RequirementSupplementsTaken:
		return f.Projection.SupplementsTaken >= rule.RequirementValue, nil
	}
	return false, fmt.Errorf("%w: %q", domain.ErrUnknownRequirement, rule.RequirementType)
}

func coversAll(trained, known []string) bool {
	if len(known) == 0 {
		return false
	}
	for _, id := range known {
		if !slices.Contains(trained, id) {
			return false
		}
	}
	return true
}
