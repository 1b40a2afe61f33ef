package domain

import (
	"context"
	"time"
)

// OutboxEvent is an integration event recorded in the same transaction as the state change.
type OutboxEvent struct {
	Type          string
	AggregateType string
	AggregateID   string
	UserID        string
	Payload       any
	OccurredAt    time.Time
}

// Tx is the set of operations available inside a unit of work. GetUser and GetSession lock the
// returned row until the transaction ends. Lookups return nil, nil when the row does not exist.
type Tx interface {
	GetUser(ctx context.Context, userID string) (*User, error)
	SaveUser(ctx context.Context, user User) error

	GetWorkout(ctx context.Context, workoutID string) (*Workout, error)
	CreateSession(ctx context.Context, session WorkoutSession, records []ExerciseRecord) error
	GetSession(ctx context.Context, sessionID string) (*WorkoutSession, error)
	// FinalizeSession writes the completion fields only if the stored end time is still unset.
	// It reports false when another writer finalized the session first.
	FinalizeSession(ctx context.Context, session WorkoutSession) (bool, error)
	CountExerciseRecords(ctx context.Context, sessionID string) (int, error)
	FindExerciseRecord(ctx context.Context, sessionID, exerciseID string) (*ExerciseRecord, error)
	UpsertSetRecord(ctx context.Context, set SetRecord) (SetRecord, error)

	Projection(ctx context.Context, userID string, loc *time.Location) (ProgressProjection, error)
	EarnedAchievementIDs(ctx context.Context, userID string) ([]string, error)
	// InsertUserAchievement reports false when the pair already exists.
	InsertUserAchievement(ctx context.Context, ua UserAchievement) (bool, error)

	GetChallenge(ctx context.Context, challengeID string) (*Challenge, error)
	GetUserChallenge(ctx context.Context, userID, challengeID string) (*UserChallenge, error)
	// InsertUserChallenge reports false when the user already joined.
	InsertUserChallenge(ctx context.Context, uc UserChallenge) (bool, error)
	SaveUserChallenge(ctx context.Context, uc UserChallenge) error

	CreateNotification(ctx context.Context, n Notification) error
	AppendEvent(ctx context.Context, event OutboxEvent) error
}

// UnitOfWork runs fn inside one atomic transaction. Returning an error rolls everything back.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// ExerciseRecordDetail pairs an exercise record with its logged sets.
type ExerciseRecordDetail struct {
	ExerciseRecord
	Sets []SetRecord
}

// SessionDetail is a session with its exercise and set records.
type SessionDetail struct {
	WorkoutSession
	Exercises []ExerciseRecordDetail
}

// Repository captures persistence operations outside the progression core.
type Repository interface {
	UnitOfWork

	UpsertProfile(ctx context.Context, user User) (*User, error)
	GetUser(ctx context.Context, userID string) (*User, error)
	UserStats(ctx context.Context, userID string, since time.Time, loc *time.Location) (UserStats, error)

	ListMuscleGroups(ctx context.Context) ([]MuscleGroup, error)
	CreateExercise(ctx context.Context, exercise Exercise) error
	ListExercises(ctx context.Context, ownerID, muscleGroupID string) ([]Exercise, error)
	CreateWorkout(ctx context.Context, workout Workout) error
	ListWorkouts(ctx context.Context, userID string) ([]Workout, error)
	GetWorkout(ctx context.Context, workoutID string) (*Workout, error)

	ListSessions(ctx context.Context, userID string, cursor *Cursor, limit int) ([]WorkoutSession, *Cursor, error)
	GetSessionDetail(ctx context.Context, sessionID string) (*SessionDetail, error)

	CreateSupplement(ctx context.Context, supplement Supplement) error
	ListSupplements(ctx context.Context, userID string) ([]Supplement, error)
	GetSupplement(ctx context.Context, supplementID string) (*Supplement, error)
	RecordSupplement(ctx context.Context, record SupplementRecord) error
	ListTimedSupplements(ctx context.Context) ([]Supplement, error)

	SeedAchievements(ctx context.Context, achievements []Achievement) error
	ListAchievements(ctx context.Context) ([]Achievement, error)
	ListUserAchievements(ctx context.Context, userID string) ([]UserAchievement, error)

	CreateChallenge(ctx context.Context, challenge Challenge) error
	ListActiveChallenges(ctx context.Context, now time.Time) ([]Challenge, error)

	CreateNotification(ctx context.Context, n Notification) error
	ListNotifications(ctx context.Context, userID string, limit int) ([]Notification, error)
	// MarkNotificationRead reports false when no notification with that id belongs to the user.
	MarkNotificationRead(ctx context.Context, userID, notificationID string) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
	UnreadNotificationCount(ctx context.Context, userID string) (int, error)

	// UsersWithStreakAtRisk returns users whose last workout date equals lastWorkout and whose
	// streak is at least minStreak.
	UsersWithStreakAtRisk(ctx context.Context, lastWorkout time.Time, minStreak int) ([]User, error)
}
