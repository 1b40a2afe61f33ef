package domain

import "time"

// User is the athlete profile together with its progression counters.
type User struct {
	ID              string
	Username        string
	Email           string
	Level           int
	XP              int
	TotalXP         int
	StreakCount     int
	LongestStreak   int
	StreakLastDate  *time.Time
	LastWorkoutDate *time.Time
	HeightCM        *float64
	WeightKG        *float64
	CreatedAt       time.Time
}

// MuscleGroup categorises exercises.
type MuscleGroup struct {
	ID   string
	Name string
}

// Exercise is a movement owned by the user who created it.
type Exercise struct {
	ID             string
	OwnerID        string
	Name           string
	Description    string
	Difficulty     string
	Equipment      string
	MuscleGroupIDs []string
	CreatedAt      time.Time
}

// Workout is a plan composed of ordered exercises.
type Workout struct {
	ID          string
	UserID      string
	Name        string
	Description string
	IsTemplate  bool
	Exercises   []WorkoutExercise
	CreatedAt   time.Time
}

// WorkoutExercise is one planned exercise inside a workout.
type WorkoutExercise struct {
	ID          string
	WorkoutID   string
	ExerciseID  string
	Order       int
	Sets        int
	TargetReps  int
	RestSeconds int
	Notes       string
}

// WorkoutSession is one performance of a workout by a user. EndTime, DurationSeconds,
// CaloriesBurned, XPEarned and Completed are written exactly once, at finalization.
type WorkoutSession struct {
	ID              string
	UserID          string
	WorkoutID       string
	StartTime       time.Time
	EndTime         *time.Time
	DurationSeconds int
	CaloriesBurned  int
	XPEarned        int
	Completed       bool
	Notes           string
}

// ExerciseRecord captures the actuals for one planned exercise within a session.
type ExerciseRecord struct {
	ID                string
	SessionID         string
	ExerciseID        string
	WorkoutExerciseID string
}

// SetRecord is unique per (ExerciseRecordID, SetNumber).
type SetRecord struct {
	ID               string
	ExerciseRecordID string
	SetNumber        int
	ActualReps       int
	WeightKG         *float64
	Completed        bool
}

// SupplementFrequency controls on which days a supplement is due.
type SupplementFrequency string

const (
	FrequencyDaily      SupplementFrequency = "daily"
	FrequencyWorkoutDay SupplementFrequency = "workout_day"
	FrequencyCustom     SupplementFrequency = "custom"
)

// SupplementTiming controls when during the day a supplement is due.
type SupplementTiming string

const (
	TimingTime        SupplementTiming = "time"
	TimingPreWorkout  SupplementTiming = "pre_workout"
	TimingPostWorkout SupplementTiming = "post_workout"
)

// Supplement is a user's supplement routine entry.
type Supplement struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Frequency   SupplementFrequency
	Timing      SupplementTiming
	// TimeOfDay is "HH:MM" in the service location, set when Timing is TimingTime.
	TimeOfDay string
	// Days lists weekdays for FrequencyCustom, 0 = Monday.
	Days      []int
	CreatedAt time.Time
}

// SupplementRecord logs a supplement being taken or skipped.
type SupplementRecord struct {
	ID           string
	SupplementID string
	UserID       string
	Timestamp    time.Time
	Taken        bool
}

// RequirementType is the closed set of achievement rule kinds.
type RequirementType string

const (
	RequirementWorkoutCount       RequirementType = "workout_count"
	RequirementStreakCount        RequirementType = "streak_count"
	RequirementTotalWorkouts      RequirementType = "total_workouts"
	RequirementSessionDuration    RequirementType = "session_duration"
	RequirementWorkoutTime        RequirementType = "workout_time"
	RequirementWeekendWorkouts    RequirementType = "weekend_workouts"
	RequirementMuscleGroupVariety RequirementType = "muscle_group_variety"
	RequirementSupplementsTaken   RequirementType = "supplements_taken"
)

// RequirementTypes returns every declared rule kind.
func RequirementTypes() []RequirementType {
	return []RequirementType{
		RequirementWorkoutCount,
		RequirementStreakCount,
		RequirementTotalWorkouts,
		RequirementSessionDuration,
		RequirementWorkoutTime,
		RequirementWeekendWorkouts,
		RequirementMuscleGroupVariety,
		RequirementSupplementsTaken,
	}
}

// TimeWindow selects the comparison used by workout_time rules.
type TimeWindow string

const (
	// WindowAfter unlocks when the session start hour is >= RequirementValue.
	WindowAfter TimeWindow = "after"
	// WindowBefore unlocks when the session start hour is < RequirementValue.
	WindowBefore TimeWindow = "before"
)

// Achievement is an immutable rule descriptor.
type Achievement struct {
	ID               string
	Name             string
	Description      string
	XPReward         int
	IconName         string
	RequirementType  RequirementType
	RequirementValue int
	TimeWindow       TimeWindow
}

// UserAchievement is unique per (UserID, AchievementID).
type UserAchievement struct {
	UserID        string
	AchievementID string
	EarnedAt      time.Time
}

// NotificationType classifies notifications.
type NotificationType string

const (
	NotificationAchievement NotificationType = "achievement"
	NotificationStreak      NotificationType = "streak"
	NotificationReminder    NotificationType = "reminder"
	NotificationSupplement  NotificationType = "supplement"
	NotificationWorkout     NotificationType = "workout"
	NotificationChallenge   NotificationType = "challenge"
	NotificationSystem      NotificationType = "system"
)

// Notification is a fire-and-forget message owned by its recipient.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Type      NotificationType
	Icon      string
	ActionURL string
	Read      bool
	CreatedAt time.Time
}

// Challenge is a time-boxed goal users can join.
type Challenge struct {
	ID               string
	Name             string
	Description      string
	Icon             string
	StartDate        time.Time
	EndDate          time.Time
	XPReward         int
	RequiredWorkouts int
	Active           bool
}

// UserChallenge is unique per (UserID, ChallengeID).
type UserChallenge struct {
	UserID      string
	ChallengeID string
	JoinedAt    time.Time
	Completed   bool
	CompletedAt *time.Time
}

// ProgressProjection is the read-only aggregate the achievement rules consume.
type ProgressProjection struct {
	CompletedSessions     int
	WeekendSessions       int
	TrainedMuscleGroupIDs []string
	KnownMuscleGroupIDs   []string
	SupplementsTaken      int
}

// MuscleGroupCount is the number of completed exercise records touching a muscle group.
type MuscleGroupCount struct {
	Name  string
	Count int
}

// UserStats aggregates a user's completed sessions.
type UserStats struct {
	TotalWorkouts        int
	TotalDurationSeconds int
	MuscleGroups         []MuscleGroupCount
	DaysTrained          int
}

// Cursor models the pagination token for session listings.
type Cursor struct {
	StartedAt time.Time
	ID        string
}

// DateOf returns the calendar date of t in loc, as midnight UTC.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsWeekend reports whether t falls on Saturday or Sunday in loc.
func IsWeekend(t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	switch t.In(loc).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}
