package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/domain"
)

func TestSatisfiedHandlesEveryRequirementType(t *testing.T) {
	for _, rt := range domain.RequirementTypes() {
		rule := domain.Achievement{ID: string(rt), RequirementType: rt, RequirementValue: 1, TimeWindow: domain.WindowAfter}
		_, err := Satisfied(rule, Facts{})
		require.NoError(t, err, "requirement type %s", rt)
	}
}

func TestSatisfiedRejectsUnknownRequirement(t *testing.T) {
	_, err := Satisfied(domain.Achievement{RequirementType: "xp_total", RequirementValue: 1}, Facts{})
	require.ErrorIs(t, err, domain.ErrUnknownRequirement)

	_, err = Satisfied(domain.Achievement{RequirementType: domain.RequirementWorkoutTime, RequirementValue: 7}, Facts{})
	require.ErrorIs(t, err, domain.ErrUnknownRequirement)
}

func TestSatisfiedThresholds(t *testing.T) {
	monday := time.Date(2024, 3, 4, 21, 30, 0, 0, time.UTC)
	saturday := time.Date(2024, 3, 9, 6, 15, 0, 0, time.UTC)

	cases := []struct {
		name  string
		rule  domain.Achievement
		facts Facts
		want  bool
	}{
		{"first workout", rule(domain.RequirementWorkoutCount, 1), Facts{Projection: domain.ProgressProjection{CompletedSessions: 1}}, true},
		{"no workouts yet", rule(domain.RequirementWorkoutCount, 1), Facts{}, false},
		{"streak reached", rule(domain.RequirementStreakCount, 3), Facts{User: domain.User{StreakCount: 3}}, true},
		{"streak short", rule(domain.RequirementStreakCount, 7), Facts{User: domain.User{StreakCount: 6}}, false},
		{"total workouts", rule(domain.RequirementTotalWorkouts, 10), Facts{Projection: domain.ProgressProjection{CompletedSessions: 10}}, true},
		{"long session", rule(domain.RequirementSessionDuration, 60), Facts{Session: domain.WorkoutSession{Completed: true, DurationSeconds: 3600}}, true},
		{"short session", rule(domain.RequirementSessionDuration, 60), Facts{Session: domain.WorkoutSession{Completed: true, DurationSeconds: 3599}}, false},
		{"evening", windowRule(20, domain.WindowAfter), Facts{Session: domain.WorkoutSession{StartTime: monday}}, true},
		{"not early", windowRule(7, domain.WindowBefore), Facts{Session: domain.WorkoutSession{StartTime: monday}}, false},
		{"early", windowRule(7, domain.WindowBefore), Facts{Session: domain.WorkoutSession{StartTime: saturday}}, true},
		{"weekend count", rule(domain.RequirementWeekendWorkouts, 5), Facts{Session: domain.WorkoutSession{StartTime: saturday}, Projection: domain.ProgressProjection{WeekendSessions: 5}}, true},
		{"weekday session", rule(domain.RequirementWeekendWorkouts, 5), Facts{Session: domain.WorkoutSession{StartTime: monday}, Projection: domain.ProgressProjection{WeekendSessions: 9}}, false},
		{"all groups", rule(domain.RequirementMuscleGroupVariety, 1), Facts{Projection: domain.ProgressProjection{TrainedMuscleGroupIDs: []string{"a", "b", "c"}, KnownMuscleGroupIDs: []string{"a", "b"}}}, true},
		{"missing group", rule(domain.RequirementMuscleGroupVariety, 1), Facts{Projection: domain.ProgressProjection{TrainedMuscleGroupIDs: []string{"a"}, KnownMuscleGroupIDs: []string{"a", "b"}}}, false},
		{"no known groups", rule(domain.RequirementMuscleGroupVariety, 1), Facts{}, false},
		{"supplements", rule(domain.RequirementSupplementsTaken, 30), Facts{Projection: domain.ProgressProjection{SupplementsTaken: 30}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Satisfied(tc.rule, tc.facts)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestSatisfiedUsesLocationForHours(t *testing.T) {
	brt := time.FixedZone("BRT", -3*3600)
	// 22:00 local, 01:00 UTC the next day
	start := time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC)
	facts := Facts{Session: domain.WorkoutSession{StartTime: start}, Location: brt}

	evening, err := Satisfied(windowRule(20, domain.WindowAfter), facts)
	require.NoError(t, err)
	require.True(t, evening)

	early, err := Satisfied(windowRule(7, domain.WindowBefore), facts)
	require.NoError(t, err)
	require.False(t, early)
}

func TestNewCatalogValidation(t *testing.T) {
	_, err := NewCatalog([]domain.Achievement{rule(domain.RequirementWorkoutCount, 1), rule(domain.RequirementWorkoutCount, 1)})
	require.Error(t, err)

	_, err = NewCatalog([]domain.Achievement{{ID: "x", RequirementType: "xp_total"}})
	require.ErrorIs(t, err, domain.ErrUnknownRequirement)

	_, err = NewCatalog([]domain.Achievement{{ID: "night", RequirementType: domain.RequirementWorkoutTime, RequirementValue: 20}})
	require.Error(t, err)

	c := DefaultCatalog()
	require.Equal(t, 13, c.Len())
	early, ok := c.Lookup("early_bird")
	require.True(t, ok)
	require.Equal(t, domain.WindowBefore, early.TimeWindow)
}

func rule(rt domain.RequirementType, value int) domain.Achievement {
	return domain.Achievement{ID: string(rt), RequirementType: rt, RequirementValue: value}
}

func windowRule(hour int, window domain.TimeWindow) domain.Achievement {
	return domain.Achievement{ID: "time", RequirementType: domain.RequirementWorkoutTime, RequirementValue: hour, TimeWindow: window}
}
