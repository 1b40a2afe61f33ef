// Package domain defines the entities and catalog workflows of the fittrack service.
package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const statsWindow = 30 * 24 * time.Hour

// Service orchestrates catalog, profile, supplement and notification workflows. Session
// completion and anything that moves XP lives in the progression engine.
type Service struct {
	repo Repository
	loc  *time.Location
	now  func() time.Time
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithServiceLocation sets the location used for calendar-day aggregation.
func WithServiceLocation(loc *time.Location) ServiceOption {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithServiceClock overrides the wall clock.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a Service.
func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{repo: repo, loc: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProfileInput captures the mutable profile fields.
type ProfileInput struct {
	UserID   string
	Username string
	Email    string
	HeightCM *float64
	WeightKG *float64
}

// UpsertProfile registers the user on first call and updates profile fields afterwards.
// Progression counters are never touched here.
func (s *Service) UpsertProfile(ctx context.Context, input ProfileInput) (*User, error) {
	if strings.TrimSpace(input.Username) == "" {
		return nil, MissingFields("username")
	}
	if input.WeightKG != nil && *input.WeightKG <= 0 {
		return nil, Invalid("weight_kg must be positive")
	}
	if input.HeightCM != nil && *input.HeightCM <= 0 {
		return nil, Invalid("height_cm must be positive")
	}
	return s.repo.UpsertProfile(ctx, User{
		ID:        input.UserID,
		Username:  strings.TrimSpace(input.Username),
		Email:     strings.TrimSpace(input.Email),
		Level:     1,
		HeightCM:  input.HeightCM,
		WeightKG:  input.WeightKG,
		CreatedAt: s.now().UTC(),
	})
}

// Profile fetches the user.
func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Stats aggregates completed sessions; DaysTrained covers the last 30 days.
func (s *Service) Stats(ctx context.Context, userID string) (UserStats, error) {
	return s.repo.UserStats(ctx, userID, s.now().Add(-statsWindow), s.loc)
}

// ListMuscleGroups returns the seeded muscle groups.
func (s *Service) ListMuscleGroups(ctx context.Context) ([]MuscleGroup, error) {
	return s.repo.ListMuscleGroups(ctx)
}

// CreateExerciseInput captures a new exercise.
type CreateExerciseInput struct {
	OwnerID        string
	Name           string
	Description    string
	Difficulty     string
	Equipment      string
	MuscleGroupIDs []string
}

var difficulties = map[string]bool{"beginner": true, "intermediate": true, "advanced": true}

// CreateExercise stores an exercise owned by the caller.
func (s *Service) CreateExercise(ctx context.Context, input CreateExerciseInput) (*Exercise, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, MissingFields("name")
	}
	difficulty := input.Difficulty
	if difficulty == "" {
		difficulty = "beginner"
	}
	if !difficulties[difficulty] {
		return nil, Invalid(fmt.Sprintf("unknown difficulty %q", input.Difficulty))
	}
	exercise := Exercise{
		ID:             uuid.NewString(),
		OwnerID:        input.OwnerID,
		Name:           strings.TrimSpace(input.Name),
		Description:    input.Description,
		Difficulty:     difficulty,
		Equipment:      input.Equipment,
		MuscleGroupIDs: input.MuscleGroupIDs,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.repo.CreateExercise(ctx, exercise); err != nil {
		return nil, err
	}
	return &exercise, nil
}

// ListExercises returns the caller's exercises, optionally filtered by muscle group.
func (s *Service) ListExercises(ctx context.Context, ownerID, muscleGroupID string) ([]Exercise, error) {
	return s.repo.ListExercises(ctx, ownerID, muscleGroupID)
}

// WorkoutExerciseInput is one planned exercise in a new workout.
type WorkoutExerciseInput struct {
	ExerciseID  string
	Sets        int
	TargetReps  int
	RestSeconds int
	Notes       string
}

// CreateWorkoutInput captures a new workout plan.
type CreateWorkoutInput struct {
	UserID      string
	Name        string
	Description string
	IsTemplate  bool
	Exercises   []WorkoutExerciseInput
}

// CreateWorkout stores a workout with its planned exercises in the given order.
func (s *Service) CreateWorkout(ctx context.Context, input CreateWorkoutInput) (*Workout, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, MissingFields("name")
	}
	workout := Workout{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		IsTemplate:  input.IsTemplate,
		CreatedAt:   s.now().UTC(),
	}
	for i, ex := range input.Exercises {
		if ex.ExerciseID == "" {
			return nil, MissingFields(fmt.Sprintf("exercises[%d].exercise_id", i))
		}
		if ex.Sets < 1 || ex.TargetReps < 1 {
			return nil, Invalid(fmt.Sprintf("exercises[%d]: sets and target_reps must be at least 1", i))
		}
		rest := ex.RestSeconds
		if rest <= 0 {
			rest = 60
		}
		workout.Exercises = append(workout.Exercises, WorkoutExercise{
			ID:          uuid.NewString(),
			WorkoutID:   workout.ID,
			ExerciseID:  ex.ExerciseID,
			Order:       i,
			Sets:        ex.Sets,
			TargetReps:  ex.TargetReps,
			RestSeconds: rest,
			Notes:       ex.Notes,
		})
	}
	if err := s.repo.CreateWorkout(ctx, workout); err != nil {
		return nil, err
	}
	return &workout, nil
}

// ListWorkouts returns the caller's workouts and all templates.
func (s *Service) ListWorkouts(ctx context.Context, userID string) ([]Workout, error) {
	return s.repo.ListWorkouts(ctx, userID)
}

// GetWorkout fetches a workout visible to the caller.
func (s *Service) GetWorkout(ctx context.Context, userID, workoutID string) (*Workout, error) {
	workout, err := s.repo.GetWorkout(ctx, workoutID)
	if err != nil {
		return nil, err
	}
	if workout == nil || !VisibleTo(*workout, userID) {
		return nil, ErrWorkoutNotFound
	}
	return workout, nil
}

// VisibleTo reports whether the workout is owned by userID or is a shared template.
func VisibleTo(w Workout, userID string) bool {
	return w.IsTemplate || w.UserID == userID
}

// ListSessions fetches sessions with cursor pagination, newest first.
func (s *Service) ListSessions(ctx context.Context, userID string, cursor *Cursor, limit int) ([]WorkoutSession, *Cursor, error) {
	return s.repo.ListSessions(ctx, userID, cursor, limit)
}

// GetSession fetches one of the caller's sessions with its records.
func (s *Service) GetSession(ctx context.Context, userID, sessionID string) (*SessionDetail, error) {
	detail, err := s.repo.GetSessionDetail(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if detail == nil || detail.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return detail, nil
}

// CreateSupplementInput captures a new supplement routine entry.
type CreateSupplementInput struct {
	UserID      string
	Name        string
	Description string
	Frequency   SupplementFrequency
	Timing      SupplementTiming
	TimeOfDay   string
	Days        []int
}

// CreateSupplement validates and stores a supplement.
func (s *Service) CreateSupplement(ctx context.Context, input CreateSupplementInput) (*Supplement, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, MissingFields("name")
	}
	supplement := Supplement{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Frequency:   input.Frequency,
		Timing:      input.Timing,
		TimeOfDay:   input.TimeOfDay,
		Days:        input.Days,
		CreatedAt:   s.now().UTC(),
	}
	if supplement.Frequency == "" {
		supplement.Frequency = FrequencyDaily
	}
	if supplement.Timing == "" {
		supplement.Timing = TimingTime
	}
	switch supplement.Frequency {
	case FrequencyDaily, FrequencyWorkoutDay:
	case FrequencyCustom:
		if len(supplement.Days) == 0 {
			return nil, MissingFields("days")
		}
		for _, d := range supplement.Days {
			if d < 0 || d > 6 {
				return nil, Invalid("days must be between 0 (Monday) and 6 (Sunday)")
			}
		}
	default:
		return nil, Invalid(fmt.Sprintf("unknown frequency %q", input.Frequency))
	}
	switch supplement.Timing {
	case TimingTime:
		if supplement.TimeOfDay == "" {
			return nil, MissingFields("time")
		}
		if _, err := time.Parse("15:04", supplement.TimeOfDay); err != nil {
			return nil, Invalid("time must be HH:MM")
		}
	case TimingPreWorkout, TimingPostWorkout:
	default:
		return nil, Invalid(fmt.Sprintf("unknown time_type %q", input.Timing))
	}
	if err := s.repo.CreateSupplement(ctx, supplement); err != nil {
		return nil, err
	}
	return &supplement, nil
}

// ListSupplements returns the caller's supplements.
func (s *Service) ListSupplements(ctx context.Context, userID string) ([]Supplement, error) {
	return s.repo.ListSupplements(ctx, userID)
}

// RecordSupplement logs a supplement as taken or skipped at the current time.
func (s *Service) RecordSupplement(ctx context.Context, userID, supplementID string, taken bool) (*SupplementRecord, error) {
	supplement, err := s.repo.GetSupplement(ctx, supplementID)
	if err != nil {
		return nil, err
	}
	if supplement == nil || supplement.UserID != userID {
		return nil, ErrSupplementNotFound
	}
	record := SupplementRecord{
		ID:           uuid.NewString(),
		SupplementID: supplementID,
		UserID:       userID,
		Timestamp:    s.now().UTC(),
		Taken:        taken,
	}
	if err := s.repo.RecordSupplement(ctx, record); err != nil {
		return nil, err
	}
	return &record, nil
}

// SeedAchievements upserts the achievement catalog.
func (s *Service) SeedAchievements(ctx context.Context, achievements []Achievement) error {
	return s.repo.SeedAchievements(ctx, achievements)
}

// ListAchievements returns every achievement.
func (s *Service) ListAchievements(ctx context.Context) ([]Achievement, error) {
	return s.repo.ListAchievements(ctx)
}

// ListUserAchievements returns the caller's unlocked achievements.
func (s *Service) ListUserAchievements(ctx context.Context, userID string) ([]UserAchievement, error) {
	return s.repo.ListUserAchievements(ctx, userID)
}

// CreateChallengeInput captures a new challenge.
type CreateChallengeInput struct {
	Name             string
	Description      string
	Icon             string
	StartDate        time.Time
	EndDate          time.Time
	XPReward         int
	RequiredWorkouts int
}

// CreateChallenge stores an active challenge.
func (s *Service) CreateChallenge(ctx context.Context, input CreateChallengeInput) (*Challenge, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, MissingFields("name")
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return nil, MissingFields("start_date", "end_date")
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, Invalid("end_date must not be before start_date")
	}
	if input.XPReward < 0 || input.RequiredWorkouts < 0 {
		return nil, Invalid("xp_reward and required_workouts must not be negative")
	}
	challenge := Challenge{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(input.Name),
		Description:      input.Description,
		Icon:             input.Icon,
		StartDate:        DateOf(input.StartDate, time.UTC),
		EndDate:          DateOf(input.EndDate, time.UTC),
		XPReward:         input.XPReward,
		RequiredWorkouts: input.RequiredWorkouts,
		Active:           true,
	}
	if err := s.repo.CreateChallenge(ctx, challenge); err != nil {
		return nil, err
	}
	return &challenge, nil
}

// ListActiveChallenges returns active challenges that have not ended today.
func (s *Service) ListActiveChallenges(ctx context.Context) ([]Challenge, error) {
	return s.repo.ListActiveChallenges(ctx, DateOf(s.now(), s.loc))
}

// ListNotifications returns the caller's notifications, newest first.
func (s *Service) ListNotifications(ctx context.Context, userID string, limit int) ([]Notification, error) {
	return s.repo.ListNotifications(ctx, userID, limit)
}

// MarkNotificationRead flags one notification as read.
func (s *Service) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	ok, err := s.repo.MarkNotificationRead(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllNotificationsRead flags every unread notification and returns how many changed.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	return s.repo.MarkAllNotificationsRead(ctx, userID)
}

// UnreadNotificationCount counts unread notifications.
func (s *Service) UnreadNotificationCount(ctx context.Context, userID string) (int, error) {
	return s.repo.UnreadNotificationCount(ctx, userID)
}
