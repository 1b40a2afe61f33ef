package progression

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/events"
	"example.com/fittrack/internal/observability"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Rand supplies uniformly distributed integers in [0, n). *rand.Rand from math/rand/v2
// satisfies it.
type Rand interface {
	IntN(n int) int
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Engine runs every progression workflow inside a single unit of work so that session,
// user, achievement, notification and outbox writes commit or roll back together.
type Engine struct {
	uow     domain.UnitOfWork
	catalog *Catalog
	clock   Clock
	rand    Rand
	loc     *time.Location
	logger  logrus.FieldLogger
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithRand overrides the randomness source for session XP.
func WithRand(r Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rand = r
		}
	}
}

// WithLocation sets the location that defines calendar days and workout hours.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithCatalog overrides the achievement catalog.
func WithCatalog(c *Catalog) Option {
	return func(e *Engine) {
		if c != nil {
			e.catalog = c
		}
	}
}

// NewEngine constructs an Engine with the default catalog, system clock and UTC calendar.
func NewEngine(uow domain.UnitOfWork, opts ...Option) *Engine {
	e := &Engine{
		uow:     uow,
		catalog: DefaultCatalog(),
		clock:   systemClock{},
		rand:    globalRand{},
		loc:     time.UTC,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog exposes the rule set the engine evaluates.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Completion is the outcome of finalizing a session.
type Completion struct {
	Session     domain.WorkoutSession
	XPEarned    int
	LeveledUp   bool
	Level       int
	TotalXP     int
	StreakCount int
	Unlocked    []domain.Achievement
}

// StartSession opens a session on a workout visible to the user and creates one exercise
// record per planned exercise.
func (e *Engine) StartSession(ctx context.Context, userID, workoutID string) (*domain.SessionDetail, error) {
	if workoutID == "" {
		return nil, domain.MissingFields("workout_id")
	}
	var detail domain.SessionDetail
	err := e.uow.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUserNotFound
		}
		workout, err := tx.GetWorkout(ctx, workoutID)
		if err != nil {
			return err
		}
		if workout == nil || !domain.VisibleTo(*workout, userID) {
			return domain.ErrWorkoutNotFound
		}

		session := domain.WorkoutSession{
			ID:        uuid.NewString(),
			UserID:    userID,
			WorkoutID: workout.ID,
			StartTime: e.clock.Now().UTC(),
		}
		records := make([]domain.ExerciseRecord, 0, len(workout.Exercises))
		detail = domain.SessionDetail{WorkoutSession: session}
		for _, planned := range workout.Exercises {
			record := domain.ExerciseRecord{
				ID:                uuid.NewString(),
				SessionID:         session.ID,
				ExerciseID:        planned.ExerciseID,
				WorkoutExerciseID: planned.ID,
			}
			records = append(records, record)
			detail.Exercises = append(detail.Exercises, domain.ExerciseRecordDetail{ExerciseRecord: record})
		}
		return tx.CreateSession(ctx, session, records)
	})
	if err != nil {
		return nil, err
	}
	e.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"session_id": detail.ID,
		"workout_id": workoutID,
	}).Debug("workout session started")
	return &detail, nil
}

// CompleteSession finalizes the session exactly once: it computes duration, calories and
// XP, credits the ledger, advances the streak, unlocks satisfied achievements and records a
// session.completed event. A session whose end time is set fails with ErrAlreadyCompleted
// before anything is written.
func (e *Engine) CompleteSession(ctx context.Context, userID, sessionID string) (*Completion, error) {
	var result Completion
	err := e.uow.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		session, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil || session.UserID != userID {
			return domain.ErrSessionNotFound
		}
		if session.EndTime != nil {
			return domain.ErrAlreadyCompleted
		}
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUserNotFound
		}
		records, err := tx.CountExerciseRecords(ctx, session.ID)
		if err != nil {
			return err
		}

		now := e.clock.Now().UTC()
		stats := ComputeSessionStats(session.StartTime, now, user.WeightKG, records, e.randomness())
		end := stats.EndTime
		session.EndTime = &end
		session.DurationSeconds = stats.DurationSeconds
		session.CaloriesBurned = stats.CaloriesBurned
		session.XPEarned = stats.XPEarned
		session.Completed = true

		finalized, err := tx.FinalizeSession(ctx, *session)
		if err != nil {
			return err
		}
		if !finalized {
			return domain.ErrAlreadyCompleted
		}

		leveledUp := AddXP(user, stats.XPEarned)
		streak := UpdateStreak(user, domain.DateOf(now, e.loc))
		if streak.Milestone() {
			if err := tx.CreateNotification(ctx, streakNotification(user.ID, streak.Current, now)); err != nil {
				return err
			}
		}

		unlocked, err := e.unlock(ctx, tx, user, *session, now)
		if err != nil {
			return err
		}
		if err := tx.SaveUser(ctx, *user); err != nil {
			return err
		}

		if err := tx.AppendEvent(ctx, domain.OutboxEvent{
			Type:          events.TypeSessionCompleted,
			AggregateType: "workout_session",
			AggregateID:   session.ID,
			UserID:        user.ID,
			OccurredAt:    now,
			Payload: events.SessionCompleted{
				Envelope:        envelope(*user),
				SessionID:       session.ID,
				WorkoutID:       session.WorkoutID,
				DurationSeconds: session.DurationSeconds,
				CaloriesBurned:  session.CaloriesBurned,
				XPEarned:        session.XPEarned,
				LeveledUp:       leveledUp,
				StreakCount:     user.StreakCount,
				CompletedAt:     now,
			},
		}); err != nil {
			return err
		}

		result = Completion{
			Session:     *session,
			XPEarned:    stats.XPEarned,
			LeveledUp:   leveledUp,
			Level:       user.Level,
			TotalXP:     user.TotalXP,
			StreakCount: user.StreakCount,
			Unlocked:    unlocked,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyCompleted) {
			observability.RecordCompletionRejected("already_completed")
		}
		return nil, err
	}

	observability.RecordSessionCompleted(*result.Session.EndTime, result.XPEarned, result.LeveledUp)
	for _, a := range result.Unlocked {
		observability.RecordAchievementUnlocked(a.ID)
	}
	e.logger.WithFields(logrus.Fields{
		"user_id":      userID,
		"session_id":   sessionID,
		"xp_earned":    result.XPEarned,
		"leveled_up":   result.LeveledUp,
		"level":        result.Level,
		"streak_count": result.StreakCount,
		"unlocked":     len(result.Unlocked),
	}).Info("workout session completed")
	return &result, nil
}

// RecordSetInput carries one logged set.
type RecordSetInput struct {
	ExerciseID string
	SetNumber  int
	ActualReps int
	WeightKG   *float64
}

func (in RecordSetInput) validate() error {
	var missing []string
	if in.ExerciseID == "" {
		missing = append(missing, "exercise_id")
	}
	if in.SetNumber <= 0 {
		missing = append(missing, "set_number")
	}
	if in.ActualReps <= 0 {
		missing = append(missing, "actual_reps")
	}
	if len(missing) > 0 {
		return domain.MissingFields(missing...)
	}
	if in.WeightKG != nil && *in.WeightKG < 0 {
		return domain.Invalid("weight_kg must not be negative")
	}
	return nil
}

// RecordSet upserts a set on the session's record for the exercise, keyed by set number.
// Input is validated before any lookup.
func (e *Engine) RecordSet(ctx context.Context, userID, sessionID string, input RecordSetInput) (*domain.SetRecord, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	var stored domain.SetRecord
	err := e.uow.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		session, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil || session.UserID != userID {
			return domain.ErrSessionNotFound
		}
		record, err := tx.FindExerciseRecord(ctx, session.ID, input.ExerciseID)
		if err != nil {
			return err
		}
		if record == nil {
			return domain.ErrRecordNotFound
		}
		stored, err = tx.UpsertSetRecord(ctx, domain.SetRecord{
			ID:               uuid.NewString(),
			ExerciseRecordID: record.ID,
			SetNumber:        input.SetNumber,
			ActualReps:       input.ActualReps,
			WeightKG:         input.WeightKG,
			Completed:        true,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// EvaluateAchievements re-checks every rule for a completed session. Already earned
// achievements are skipped, so repeated calls unlock nothing new.
func (e *Engine) EvaluateAchievements(ctx context.Context, userID, sessionID string) ([]domain.Achievement, error) {
	var unlocked []domain.Achievement
	err := e.uow.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		session, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil || session.UserID != userID {
			return domain.ErrSessionNotFound
		}
		if session.EndTime == nil {
			return domain.ErrSessionNotCompleted
		}
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUserNotFound
		}
		unlocked, err = e.unlock(ctx, tx, user, *session, e.clock.Now().UTC())
		if err != nil {
			return err
		}
		if len(unlocked) == 0 {
			return nil
		}
		return tx.SaveUser(ctx, *user)
	})
	if err != nil {
		return nil, err
	}
	for _, a := range unlocked {
		observability.RecordAchievementUnlocked(a.ID)
	}
	return unlocked, nil
}

// unlock scans the catalog and unlocks newly satisfied rules. Rewards go through AddXP but
// never re-enter unlock; instead the scan repeats while a pass unlocked something, bounded
// by the catalog size.
func (e *Engine) unlock(ctx context.Context, tx domain.Tx, user *domain.User, session domain.WorkoutSession, now time.Time) ([]domain.Achievement, error) {
	projection, err := tx.Projection(ctx, user.ID, e.loc)
	if err != nil {
		return nil, err
	}
	earnedIDs, err := tx.EarnedAchievementIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	earned := make(map[string]bool, len(earnedIDs))
	for _, id := range earnedIDs {
		earned[id] = true
	}

	var unlocked []domain.Achievement
	for pass := 0; pass < e.catalog.Len(); pass++ {
		facts := Facts{User: *user, Session: session, Projection: projection, Location: e.loc}
		progressed := false
		for _, rule := range e.catalog.rules {
			if earned[rule.ID] {
				continue
			}
			ok, err := Satisfied(rule, facts)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			earned[rule.ID] = true
			inserted, err := tx.InsertUserAchievement(ctx, domain.UserAchievement{
				UserID:        user.ID,
				AchievementID: rule.ID,
				EarnedAt:      now,
			})
			if err != nil {
				return nil, err
			}
			if !inserted {
				continue
			}
			AddXP(user, rule.XPReward)
			if err := tx.CreateNotification(ctx, achievementNotification(user.ID, rule, now)); err != nil {
				return nil, err
			}
			if err := tx.AppendEvent(ctx, domain.OutboxEvent{
				Type:          events.TypeAchievementUnlocked,
				AggregateType: "user_achievement",
				AggregateID:   user.ID + ":" + rule.ID,
				UserID:        user.ID,
				OccurredAt:    now,
				Payload: events.AchievementUnlocked{
					Envelope:      envelope(*user),
					AchievementID: rule.ID,
					XPReward:      rule.XPReward,
					UnlockedAt:    now,
				},
			}); err != nil {
				return nil, err
			}
			unlocked = append(unlocked, rule)
			progressed = true
		}
		if !progressed {
			break
		}
	}
	return unlocked, nil
}

func (e *Engine) randomness() int {
	return e.rand.IntN(2*RandomnessSpread+1) - RandomnessSpread
}

func envelope(u domain.User) events.Envelope {
	return events.Envelope{UserID: u.ID, TotalXP: u.TotalXP, Level: u.Level}
}
