package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/outbox"
)

// txStore implements domain.Tx on top of a single pgx transaction.
type txStore struct {
	tx pgx.Tx
}

func (t *txStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	u, err := scanUser(t.tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (t *txStore) SaveUser(ctx context.Context, u domain.User) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE users
            SET level = $2, xp = $3, total_xp = $4, streak_count = $5, longest_streak = $6,
                streak_last_date = $7, last_workout_date = $8, updated_at = NOW()
          WHERE id = $1`,
		u.ID, u.Level, u.XP, u.TotalXP, u.StreakCount, u.LongestStreak, u.StreakLastDate, u.LastWorkoutDate,
	)
	return err
}

func (t *txStore) GetWorkout(ctx context.Context, workoutID string) (*domain.Workout, error) {
	return getWorkout(ctx, t.tx, workoutID)
}

func (t *txStore) CreateSession(ctx context.Context, s domain.WorkoutSession, records []domain.ExerciseRecord) error {
	if _, err := t.tx.Exec(ctx,
		`INSERT INTO workout_sessions (`+sessionColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		s.ID, s.UserID, s.WorkoutID, s.StartTime, s.EndTime, s.DurationSeconds, s.CaloriesBurned, s.XPEarned, s.Completed, s.Notes,
	); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		var plan any
		if r.WorkoutExerciseID != "" {
			plan = r.WorkoutExerciseID
		}
		batch.Queue(
			`INSERT INTO exercise_records (id, session_id, exercise_id, workout_exercise_id) VALUES ($1,$2,$3,$4)`,
			r.ID, r.SessionID, r.ExerciseID, plan,
		)
	}
	if batch.Len() == 0 {
		return nil
	}
	return t.tx.SendBatch(ctx, batch).Close()
}

func (t *txStore) GetSession(ctx context.Context, sessionID string) (*domain.WorkoutSession, error) {
	if !validID(sessionID) {
		return nil, nil
	}
	s, err := scanSession(t.tx.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions WHERE id = $1 FOR UPDATE`, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// FinalizeSession is a compare-and-set on end_time IS NULL.
func (t *txStore) FinalizeSession(ctx context.Context, s domain.WorkoutSession) (bool, error) {
	tag, err := t.tx.Exec(ctx,
		`UPDATE workout_sessions
            SET end_time = $2, duration_seconds = $3, calories_burned = $4, xp_earned = $5, completed = $6
          WHERE id = $1 AND end_time IS NULL`,
		s.ID, s.EndTime, s.DurationSeconds, s.CaloriesBurned, s.XPEarned, s.Completed,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (t *txStore) CountExerciseRecords(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM exercise_records WHERE session_id = $1`, sessionID).Scan(&n)
	return n, err
}

func (t *txStore) FindExerciseRecord(ctx context.Context, sessionID, exerciseID string) (*domain.ExerciseRecord, error) {
	if !validID(exerciseID) {
		return nil, nil
	}
	var r domain.ExerciseRecord
	err := t.tx.QueryRow(ctx,
		`SELECT id, session_id, exercise_id, COALESCE(workout_exercise_id::text, '')
           FROM exercise_records
          WHERE session_id = $1 AND exercise_id = $2
          ORDER BY id
          LIMIT 1`, sessionID, exerciseID,
	).Scan(&r.ID, &r.SessionID, &r.ExerciseID, &r.WorkoutExerciseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// UpsertSetRecord keeps the existing row id when the set number was already logged.
func (t *txStore) UpsertSetRecord(ctx context.Context, s domain.SetRecord) (domain.SetRecord, error) {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO set_records (id, exercise_record_id, set_number, actual_reps, weight_kg, completed)
         VALUES ($1,$2,$3,$4,$5,$6)
         ON CONFLICT (exercise_record_id, set_number) DO UPDATE
            SET actual_reps = EXCLUDED.actual_reps,
                weight_kg = EXCLUDED.weight_kg,
                completed = EXCLUDED.completed
         RETURNING id`,
		s.ID, s.ExerciseRecordID, s.SetNumber, s.ActualReps, s.WeightKG, s.Completed,
	).Scan(&s.ID)
	return s, err
}

func (t *txStore) Projection(ctx context.Context, userID string, loc *time.Location) (domain.ProgressProjection, error) {
	var p domain.ProgressProjection
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*),
                COUNT(*) FILTER (WHERE EXTRACT(ISODOW FROM start_time AT TIME ZONE $2) IN (6, 7))
           FROM workout_sessions
          WHERE user_id = $1 AND completed`, userID, tzName(loc),
	).Scan(&p.CompletedSessions, &p.WeekendSessions)
	if err != nil {
		return p, err
	}

	if p.TrainedMuscleGroupIDs, err = t.strings(ctx,
		`SELECT DISTINCT emg.muscle_group_id
           FROM workout_sessions s
           JOIN exercise_records er ON er.session_id = s.id
           JOIN exercise_muscle_groups emg ON emg.exercise_id = er.exercise_id
          WHERE s.user_id = $1 AND s.completed
          ORDER BY 1`, userID); err != nil {
		return p, err
	}
	if p.KnownMuscleGroupIDs, err = t.strings(ctx, `SELECT id FROM muscle_groups ORDER BY id`); err != nil {
		return p, err
	}

	err = t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM supplement_records WHERE user_id = $1 AND taken`, userID,
	).Scan(&p.SupplementsTaken)
	return p, err
}

func (t *txStore) EarnedAchievementIDs(ctx context.Context, userID string) ([]string, error) {
	return t.strings(ctx, `SELECT achievement_id FROM user_achievements WHERE user_id = $1 ORDER BY achievement_id`, userID)
}

func (t *txStore) InsertUserAchievement(ctx context.Context, ua domain.UserAchievement) (bool, error) {
	tag, err := t.tx.Exec(ctx,
		`INSERT INTO user_achievements (user_id, achievement_id, earned_at) VALUES ($1,$2,$3)
         ON CONFLICT (user_id, achievement_id) DO NOTHING`,
		ua.UserID, ua.AchievementID, ua.EarnedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (t *txStore) GetChallenge(ctx context.Context, challengeID string) (*domain.Challenge, error) {
	if !validID(challengeID) {
		return nil, nil
	}
	c, err := scanChallenge(t.tx.QueryRow(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, challengeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (t *txStore) GetUserChallenge(ctx context.Context, userID, challengeID string) (*domain.UserChallenge, error) {
	if !validID(challengeID) {
		return nil, nil
	}
	var uc domain.UserChallenge
	err := t.tx.QueryRow(ctx,
		`SELECT user_id, challenge_id, joined_at, completed, completed_at
           FROM user_challenges
          WHERE user_id = $1 AND challenge_id = $2
          FOR UPDATE`, userID, challengeID,
	).Scan(&uc.UserID, &uc.ChallengeID, &uc.JoinedAt, &uc.Completed, &uc.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &uc, nil
}

func (t *txStore) InsertUserChallenge(ctx context.Context, uc domain.UserChallenge) (bool, error) {
	tag, err := t.tx.Exec(ctx,
		`INSERT INTO user_challenges (user_id, challenge_id, joined_at, completed, completed_at) VALUES ($1,$2,$3,$4,$5)
         ON CONFLICT (user_id, challenge_id) DO NOTHING`,
		uc.UserID, uc.ChallengeID, uc.JoinedAt, uc.Completed, uc.CompletedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (t *txStore) SaveUserChallenge(ctx context.Context, uc domain.UserChallenge) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE user_challenges SET completed = $3, completed_at = $4 WHERE user_id = $1 AND challenge_id = $2`,
		uc.UserID, uc.ChallengeID, uc.Completed, uc.CompletedAt,
	)
	return err
}

func (t *txStore) CreateNotification(ctx context.Context, n domain.Notification) error {
	return insertNotification(ctx, t.tx, n)
}

func (t *txStore) AppendEvent(ctx context.Context, event domain.OutboxEvent) error {
	return outbox.Insert(ctx, t.tx, event)
}

func (t *txStore) strings(ctx context.Context, sql string, args ...any) ([]string, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

var _ domain.Tx = (*txStore)(nil)
