package api

import (
	"math"
	"time"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/leaderboard"
	"example.com/fittrack/internal/progression"
)

// ProfileView exposes the user with derived level progress.
type ProfileView struct {
	UserID          string    `json:"user_id"`
	Username        string    `json:"username"`
	Email           string    `json:"email,omitempty"`
	Level           int       `json:"level"`
	XP              int       `json:"xp"`
	TotalXP         int       `json:"total_xp"`
	XPToNextLevel   int       `json:"xp_to_next_level"`
	LevelProgress   int       `json:"level_progress"`
	StreakCount     int       `json:"streak_count"`
	LongestStreak   int       `json:"longest_streak"`
	LastWorkoutDate *string   `json:"last_workout_date,omitempty"`
	HeightCM        *float64  `json:"height_cm,omitempty"`
	WeightKG        *float64  `json:"weight_kg,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// MuscleGroupCountView is one entry of the per-muscle-group breakdown.
type MuscleGroupCountView struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// StatsView summarises a user's training history.
type StatsView struct {
	TotalWorkouts int                    `json:"total_workouts"`
	TotalHours    float64                `json:"total_hours"`
	CurrentStreak int                    `json:"current_streak"`
	LongestStreak int                    `json:"longest_streak"`
	Level         int                    `json:"level"`
	TotalXP       int                    `json:"total_xp"`
	XPToNextLevel int                    `json:"xp_to_next_level"`
	LevelProgress int                    `json:"level_progress"`
	MuscleGroups  []MuscleGroupCountView `json:"muscle_groups"`
	DaysTrained   int                    `json:"days_trained_last_30_days"`
}

// MuscleGroupView is a seeded muscle group.
type MuscleGroupView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ExerciseView is an exercise owned by the caller.
type ExerciseView struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Difficulty     string    `json:"difficulty"`
	Equipment      string    `json:"equipment,omitempty"`
	MuscleGroupIDs []string  `json:"muscle_group_ids"`
	CreatedAt      time.Time `json:"created_at"`
}

// WorkoutExerciseView is a planned exercise.
type WorkoutExerciseView struct {
	ID          string `json:"id"`
	ExerciseID  string `json:"exercise_id"`
	Order       int    `json:"order"`
	Sets        int    `json:"sets"`
	TargetReps  int    `json:"target_reps"`
	RestSeconds int    `json:"rest_seconds"`
	Notes       string `json:"notes,omitempty"`
}

// WorkoutView is a workout plan.
type WorkoutView struct {
	ID          string                `json:"id"`
	UserID      string                `json:"user_id"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	IsTemplate  bool                  `json:"is_template"`
	Exercises   []WorkoutExerciseView `json:"exercises"`
	CreatedAt   time.Time             `json:"created_at"`
}

// SessionView is a workout session without its records.
type SessionView struct {
	ID              string     `json:"id"`
	WorkoutID       string     `json:"workout_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
	CaloriesBurned  int        `json:"calories_burned"`
	XPEarned        int        `json:"xp_earned"`
	Completed       bool       `json:"completed"`
}

// SetView is one logged set.
type SetView struct {
	ID         string   `json:"id"`
	SetNumber  int      `json:"set_number"`
	ActualReps int      `json:"actual_reps"`
	WeightKG   *float64 `json:"weight_kg,omitempty"`
	Completed  bool     `json:"completed"`
}

// ExerciseRecordView is the actuals for one planned exercise.
type ExerciseRecordView struct {
	ID                string    `json:"id"`
	ExerciseID        string    `json:"exercise_id"`
	WorkoutExerciseID string    `json:"workout_exercise_id"`
	Sets              []SetView `json:"sets"`
}

// SessionDetailView is a session with its records.
type SessionDetailView struct {
	SessionView
	Exercises []ExerciseRecordView `json:"exercises"`
}

// ListSessionsResponse packages list results.
type ListSessionsResponse struct {
	Items      []SessionView `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// AchievementView describes an achievement rule.
type AchievementView struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	XPReward         int    `json:"xp_reward"`
	IconName         string `json:"icon_name,omitempty"`
	RequirementType  string `json:"requirement_type"`
	RequirementValue int    `json:"requirement_value"`
}

// UserAchievementView is an earned achievement.
type UserAchievementView struct {
	AchievementID string    `json:"achievement_id"`
	EarnedAt      time.Time `json:"earned_at"`
}

// CompletionResponse is the result of completing a session.
type CompletionResponse struct {
	Session     SessionView       `json:"session"`
	XPEarned    int               `json:"xp_earned"`
	LeveledUp   bool              `json:"leveled_up"`
	Level       int               `json:"level"`
	TotalXP     int               `json:"total_xp"`
	StreakCount int               `json:"streak_count"`
	Unlocked    []AchievementView `json:"achievements_unlocked"`
}

// SupplementView is a supplement routine entry.
type SupplementView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Frequency   string    `json:"frequency"`
	Timing      string    `json:"timing"`
	TimeOfDay   string    `json:"time_of_day,omitempty"`
	Days        []int     `json:"days,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SupplementRecordView is one take or skip.
type SupplementRecordView struct {
	ID           string    `json:"id"`
	SupplementID string    `json:"supplement_id"`
	Timestamp    time.Time `json:"timestamp"`
	Taken        bool      `json:"taken"`
}

// ChallengeView is a challenge.
type ChallengeView struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	Icon             string `json:"icon,omitempty"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	XPReward         int    `json:"xp_reward"`
	RequiredWorkouts int    `json:"required_workouts"`
	Active           bool   `json:"is_active"`
}

// UserChallengeView is the caller's participation in a challenge.
type UserChallengeView struct {
	ChallengeID string     `json:"challenge_id"`
	JoinedAt    time.Time  `json:"joined_at"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ChallengeCompletionResponse is the result of completing a challenge.
type ChallengeCompletionResponse struct {
	Challenge ChallengeView `json:"challenge"`
	XPEarned  int           `json:"xp_earned"`
	LeveledUp bool          `json:"leveled_up"`
	Level     int           `json:"level"`
}

// NotificationView is a user notification.
type NotificationView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Icon      string    `json:"icon,omitempty"`
	ActionURL string    `json:"action_url,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// LeaderboardResponse carries the top entries and the caller's own position when ranked.
type LeaderboardResponse struct {
	Items []leaderboard.Entry `json:"items"`
	Me    *leaderboard.Entry  `json:"me,omitempty"`
}

func toProfileView(u domain.User) ProfileView {
	view := ProfileView{
		UserID:        u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Level:         u.Level,
		XP:            u.XP,
		TotalXP:       u.TotalXP,
		XPToNextLevel: progression.XPToNextLevel(u),
		LevelProgress: progression.LevelProgressPercentage(u),
		StreakCount:   u.StreakCount,
		LongestStreak: u.LongestStreak,
		HeightCM:      u.HeightCM,
		WeightKG:      u.WeightKG,
		CreatedAt:     u.CreatedAt,
	}
	if u.LastWorkoutDate != nil {
		date := u.LastWorkoutDate.Format(time.DateOnly)
		view.LastWorkoutDate = &date
	}
	return view
}

func toStatsView(u domain.User, stats domain.UserStats) StatsView {
	view := StatsView{
		TotalWorkouts: stats.TotalWorkouts,
		TotalHours:    math.Round(float64(stats.TotalDurationSeconds)/360) / 10,
		CurrentStreak: u.StreakCount,
		LongestStreak: u.LongestStreak,
		Level:         u.Level,
		TotalXP:       u.TotalXP,
		XPToNextLevel: progression.XPToNextLevel(u),
		LevelProgress: progression.LevelProgressPercentage(u),
		MuscleGroups:  make([]MuscleGroupCountView, 0, len(stats.MuscleGroups)),
		DaysTrained:   stats.DaysTrained,
	}
	for _, mg := range stats.MuscleGroups {
		view.MuscleGroups = append(view.MuscleGroups, MuscleGroupCountView{Name: mg.Name, Count: mg.Count})
	}
	return view
}

func toExerciseView(e domain.Exercise) ExerciseView {
	ids := e.MuscleGroupIDs
	if ids == nil {
		ids = []string{}
	}
	return ExerciseView{
		ID:             e.ID,
		Name:           e.Name,
		Description:    e.Description,
		Difficulty:     e.Difficulty,
		Equipment:      e.Equipment,
		MuscleGroupIDs: ids,
		CreatedAt:      e.CreatedAt,
	}
}

func toWorkoutView(w domain.Workout) WorkoutView {
	view := WorkoutView{
		ID:          w.ID,
		UserID:      w.UserID,
		Name:        w.Name,
		Description: w.Description,
		IsTemplate:  w.IsTemplate,
		Exercises:   make([]WorkoutExerciseView, 0, len(w.Exercises)),
		CreatedAt:   w.CreatedAt,
	}
	for _, we := range w.Exercises {
		view.Exercises = append(view.Exercises, WorkoutExerciseView{
			ID:          we.ID,
			ExerciseID:  we.ExerciseID,
			Order:       we.Order,
			Sets:        we.Sets,
			TargetReps:  we.TargetReps,
			RestSeconds: we.RestSeconds,
			Notes:       we.Notes,
		})
	}
	return view
}

func toSessionView(s domain.WorkoutSession) SessionView {
	return SessionView{
		ID:              s.ID,
		WorkoutID:       s.WorkoutID,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		DurationSeconds: s.DurationSeconds,
		CaloriesBurned:  s.CaloriesBurned,
		XPEarned:        s.XPEarned,
		Completed:       s.Completed,
	}
}

func toSetView(s domain.SetRecord) SetView {
	return SetView{
		ID:         s.ID,
		SetNumber:  s.SetNumber,
		ActualReps: s.ActualReps,
		WeightKG:   s.WeightKG,
		Completed:  s.Completed,
	}
}

func toSessionDetailView(d domain.SessionDetail) SessionDetailView {
	view := SessionDetailView{
		SessionView: toSessionView(d.WorkoutSession),
		Exercises:   make([]ExerciseRecordView, 0, len(d.Exercises)),
	}
	for _, rec := range d.Exercises {
		recView := ExerciseRecordView{
			ID:                rec.ID,
			ExerciseID:        rec.ExerciseID,
			WorkoutExerciseID: rec.WorkoutExerciseID,
			Sets:              make([]SetView, 0, len(rec.Sets)),
		}
		for _, set := range rec.Sets {
			recView.Sets = append(recView.Sets, toSetView(set))
		}
		view.Exercises = append(view.Exercises, recView)
	}
	return view
}

func toAchievementView(a domain.Achievement) AchievementView {
	return AchievementView{
		ID:               a.ID,
		Name:             a.Name,
		Description:      a.Description,
		XPReward:         a.XPReward,
		IconName:         a.IconName,
		RequirementType:  string(a.RequirementType),
		RequirementValue: a.RequirementValue,
	}
}

func toAchievementViews(in []domain.Achievement) []AchievementView {
	out := make([]AchievementView, 0, len(in))
	for _, a := range in {
		out = append(out, toAchievementView(a))
	}
	return out
}

func toCompletionResponse(c progression.Completion) CompletionResponse {
	return CompletionResponse{
		Session:     toSessionView(c.Session),
		XPEarned:    c.XPEarned,
		LeveledUp:   c.LeveledUp,
		Level:       c.Level,
		TotalXP:     c.TotalXP,
		StreakCount: c.StreakCount,
		Unlocked:    toAchievementViews(c.Unlocked),
	}
}

func toSupplementView(s domain.Supplement) SupplementView {
	return SupplementView{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Frequency:   string(s.Frequency),
		Timing:      string(s.Timing),
		TimeOfDay:   s.TimeOfDay,
		Days:        s.Days,
		CreatedAt:   s.CreatedAt,
	}
}

func toChallengeView(c domain.Challenge) ChallengeView {
	return ChallengeView{
		ID:               c.ID,
		Name:             c.Name,
		Description:      c.Description,
		Icon:             c.Icon,
		StartDate:        c.StartDate.Format(time.DateOnly),
		EndDate:          c.EndDate.Format(time.DateOnly),
		XPReward:         c.XPReward,
		RequiredWorkouts: c.RequiredWorkouts,
		Active:           c.Active,
	}
}

func toNotificationView(n domain.Notification) NotificationView {
	return NotificationView{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		Icon:      n.Icon,
		ActionURL: n.ActionURL,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
