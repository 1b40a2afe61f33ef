package progression

import (
	"fmt"
	"slices"

	"example.com/fittrack/internal/domain"
)

// Catalog is the immutable set of achievement rules, built once at start-up.
type Catalog struct {
	rules []domain.Achievement
	byID  map[string]int
}

// NewCatalog validates rules and freezes them. Rule order is preserved and drives
// evaluation order.
func NewCatalog(rules []domain.Achievement) (*Catalog, error) {
	c := &Catalog{
		rules: make([]domain.Achievement, 0, len(rules)),
		byID:  make(map[string]int, len(rules)),
	}
	for _, rule := range rules {
		if rule.ID == "" {
			return nil, fmt.Errorf("achievement %q: id required", rule.Name)
		}
		if _, dup := c.byID[rule.ID]; dup {
			return nil, fmt.Errorf("achievement %s: duplicate id", rule.ID)
		}
		if !slices.Contains(domain.RequirementTypes(), rule.RequirementType) {
			return nil, fmt.Errorf("achievement %s: %w %q", rule.ID, domain.ErrUnknownRequirement, rule.RequirementType)
		}
		if rule.RequirementType == domain.RequirementWorkoutTime &&
			rule.TimeWindow != domain.WindowAfter && rule.TimeWindow != domain.WindowBefore {
			return nil, fmt.Errorf("achievement %s: workout_time rules need a time window", rule.ID)
		}
		if rule.XPReward < 0 || rule.RequirementValue < 0 {
			return nil, fmt.Errorf("achievement %s: reward and threshold must not be negative", rule.ID)
		}
		c.byID[rule.ID] = len(c.rules)
		c.rules = append(c.rules, rule)
	}
	return c, nil
}

// Rules returns a copy of the rules in evaluation order.
func (c *Catalog) Rules() []domain.Achievement {
	return slices.Clone(c.rules)
}

// Len is the number of rules.
func (c *Catalog) Len() int {
	return len(c.rules)
}

// Lookup finds a rule by id.
func (c *Catalog) Lookup(id string) (domain.Achievement, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Achievement{}, false
	}
	return c.rules[i], true
}

// DefaultAchievements is the built-in rule set.
func DefaultAchievements() []domain.Achievement {
	return []domain.Achievement{
		{ID: "first_workout", Name: "First Step", Description: "Complete your first workout", XPReward: 25, IconName: "first_workout", RequirementType: domain.RequirementWorkoutCount, RequirementValue: 1},
		{ID: "workout_streak_3", Name: "Early Consistency", Description: "Work out 3 days in a row", XPReward: 30, IconName: "streak_3", RequirementType: domain.RequirementStreakCount, RequirementValue: 3},
		{ID: "workout_streak_7", Name: "Iron Persistence", Description: "Work out 7 days in a row", XPReward: 50, IconName: "streak_7", RequirementType: domain.RequirementStreakCount, RequirementValue: 7},
		{ID: "workout_streak_30", Name: "Willpower", Description: "Work out 30 days in a row", XPReward: 150, IconName: "streak_30", RequirementType: domain.RequirementStreakCount, RequirementValue: 30},
		{ID: "total_workouts_10", Name: "Dedicated Athlete", Description: "Complete 10 workouts", XPReward: 40, IconName: "workouts_10", RequirementType: domain.RequirementTotalWorkouts, RequirementValue: 10},
		{ID: "total_workouts_50", Name: "Workout Master", Description: "Complete 50 workouts", XPReward: 100, IconName: "workouts_50", RequirementType: domain.RequirementTotalWorkouts, RequirementValue: 50},
		{ID: "total_workouts_100", Name: "Legendary", Description: "Complete 100 workouts", XPReward: 200, IconName: "workouts_100", RequirementType: domain.RequirementTotalWorkouts, RequirementValue: 100},
		{ID: "long_workout", Name: "Endurance", Description: "Complete a workout lasting 60 minutes or more", XPReward: 35, IconName: "long_workout", RequirementType: domain.RequirementSessionDuration, RequirementValue: 60},
		{ID: "evening_athlete", Name: "Night Owl", Description: "Start a workout at or after 20:00", XPReward: 25, IconName: "night_workout", RequirementType: domain.RequirementWorkoutTime, RequirementValue: 20, TimeWindow: domain.WindowAfter},
		{ID: "early_bird", Name: "Early Bird", Description: "Start a workout before 07:00", XPReward: 30, IconName: "morning_workout", RequirementType: domain.RequirementWorkoutTime, RequirementValue: 7, TimeWindow: domain.WindowBefore},
		{ID: "weekend_warrior", Name: "Weekend Warrior", Description: "Complete 5 workouts on weekends", XPReward: 40, IconName: "weekend_workout", RequirementType: domain.RequirementWeekendWorkouts, RequirementValue: 5},
		{ID: "variety_master", Name: "Variety Master", Description: "Train every muscle group", XPReward: 50, IconName: "variety", RequirementType: domain.RequirementMuscleGroupVariety, RequirementValue: 1},
		{ID: "supplement_routine", Name: "Supplement Routine", Description: "Log 30 supplements taken", XPReward: 35, IconName: "supplement", RequirementType: domain.RequirementSupplementsTaken, RequirementValue: 30},
	}
}

// DefaultCatalog builds the catalog from DefaultAchievements.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultAchievements())
	if err != nil {
		panic(err)
	}
	return c
}
