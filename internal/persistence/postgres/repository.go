// Package postgres implements domain.Repository on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/fittrack/internal/domain"
)

// Repository provides Postgres-backed persistence for the fittrack domain.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithinTx runs fn in a read-committed transaction. Rows read through Tx.GetUser and
// Tx.GetSession stay locked until commit or rollback.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(ctx, &txStore{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpsertProfile inserts the user or updates profile fields, leaving progression untouched.
func (r *Repository) UpsertProfile(ctx context.Context, user domain.User) (*domain.User, error) {
	const stmt = `INSERT INTO users (id, username, email, height_cm, weight_kg, level, xp, total_xp, streak_count, longest_streak, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        ON CONFLICT (id) DO UPDATE
           SET username = EXCLUDED.username,
               email = EXCLUDED.email,
               height_cm = EXCLUDED.height_cm,
               weight_kg = EXCLUDED.weight_kg,
               updated_at = NOW()
        RETURNING ` + userColumns

	level := user.Level
	if level < 1 {
		level = 1
	}
	return scanUser(r.pool.QueryRow(ctx, stmt,
		user.ID, user.Username, user.Email, user.HeightCM, user.WeightKG,
		level, user.XP, user.TotalXP, user.StreakCount, user.LongestStreak, user.CreatedAt,
	))
}

// GetUser fetches a user without locking.
func (r *Repository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// UserStats aggregates completed sessions. DaysTrained counts distinct local dates since since.
func (r *Repository) UserStats(ctx context.Context, userID string, since time.Time, loc *time.Location) (domain.UserStats, error) {
	var stats domain.UserStats
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
                COALESCE(SUM(duration_seconds), 0),
                COUNT(DISTINCT (start_time AT TIME ZONE $3)::date) FILTER (WHERE start_time >= $2)
           FROM workout_sessions
          WHERE user_id = $1 AND completed`,
		userID, since, tzName(loc),
	).Scan(&stats.TotalWorkouts, &stats.TotalDurationSeconds, &stats.DaysTrained)
	if err != nil {
		return stats, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT mg.name, COUNT(*)
           FROM workout_sessions s
           JOIN exercise_records er ON er.session_id = s.id
           JOIN exercise_muscle_groups emg ON emg.exercise_id = er.exercise_id
           JOIN muscle_groups mg ON mg.id = emg.muscle_group_id
          WHERE s.user_id = $1 AND s.completed
          GROUP BY mg.name
          ORDER BY COUNT(*) DESC, mg.name`, userID)
	if err != nil {
		return stats, err
	}
	stats.MuscleGroups, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.MuscleGroupCount, error) {
		var c domain.MuscleGroupCount
		err := row.Scan(&c.Name, &c.Count)
		return c, err
	})
	return stats, err
}

// ListMuscleGroups returns the seeded muscle groups.
func (r *Repository) ListMuscleGroups(ctx context.Context) ([]domain.MuscleGroup, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM muscle_groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.MuscleGroup, error) {
		var mg domain.MuscleGroup
		err := row.Scan(&mg.ID, &mg.Name)
		return mg, err
	})
}

// CreateExercise stores the exercise and its muscle group links atomically.
func (r *Repository) CreateExercise(ctx context.Context, exercise domain.Exercise) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx,
		`INSERT INTO exercises (id, owner_id, name, description, difficulty, equipment, created_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		exercise.ID, exercise.OwnerID, exercise.Name, exercise.Description, exercise.Difficulty, exercise.Equipment, exercise.CreatedAt,
	); err != nil {
		return err
	}
	for _, mg := range exercise.MuscleGroupIDs {
		if _, err = tx.Exec(ctx,
			`INSERT INTO exercise_muscle_groups (exercise_id, muscle_group_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
			exercise.ID, mg,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListExercises returns the owner's exercises, optionally filtered by muscle group.
func (r *Repository) ListExercises(ctx context.Context, ownerID, muscleGroupID string) ([]domain.Exercise, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.owner_id, e.name, e.description, e.difficulty, e.equipment, e.created_at,
                COALESCE(array_agg(emg.muscle_group_id ORDER BY emg.muscle_group_id)
                         FILTER (WHERE emg.muscle_group_id IS NOT NULL), '{}')
           FROM exercises e
           LEFT JOIN exercise_muscle_groups emg ON emg.exercise_id = e.id
          WHERE e.owner_id = $1
            AND ($2 = '' OR EXISTS (
                SELECT 1 FROM exercise_muscle_groups f WHERE f.exercise_id = e.id AND f.muscle_group_id = $2))
          GROUP BY e.id
          ORDER BY e.name, e.id`, ownerID, muscleGroupID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Exercise, error) {
		var e domain.Exercise
		err := row.Scan(&e.ID, &e.OwnerID, &e.Name, &e.Description, &e.Difficulty, &e.Equipment, &e.CreatedAt, &e.MuscleGroupIDs)
		return e, err
	})
}

// CreateWorkout stores the workout and its planned exercises atomically.
func (r *Repository) CreateWorkout(ctx context.Context, workout domain.Workout) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx,
		`INSERT INTO workouts (id, user_id, name, description, is_template, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		workout.ID, workout.UserID, workout.Name, workout.Description, workout.IsTemplate, workout.CreatedAt,
	); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, we := range workout.Exercises {
		batch.Queue(
			`INSERT INTO workout_exercises (id, workout_id, exercise_id, position, sets, target_reps, rest_seconds, notes)
             VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			we.ID, workout.ID, we.ExerciseID, we.Order, we.Sets, we.TargetReps, we.RestSeconds, we.Notes,
		)
	}
	if batch.Len() > 0 {
		if err = tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListWorkouts returns the user's workouts plus every template, newest first.
func (r *Repository) ListWorkouts(ctx context.Context, userID string) ([]domain.Workout, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, name, description, is_template, created_at
           FROM workouts
          WHERE user_id = $1 OR is_template
          ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	workouts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Workout, error) {
		var w domain.Workout
		err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.Description, &w.IsTemplate, &w.CreatedAt)
		return w, err
	})
	if err != nil || len(workouts) == 0 {
		return workouts, err
	}

	ids := make([]string, 0, len(workouts))
	for _, w := range workouts {
		ids = append(ids, w.ID)
	}
	planned, err := workoutExercises(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range workouts {
		workouts[i].Exercises = planned[workouts[i].ID]
	}
	return workouts, nil
}

// GetWorkout fetches a workout with its planned exercises.
func (r *Repository) GetWorkout(ctx context.Context, workoutID string) (*domain.Workout, error) {
	return getWorkout(ctx, r.pool, workoutID)
}

// ListSessions pages the user's sessions newest first using a keyset cursor on (start_time, id).
func (r *Repository) ListSessions(ctx context.Context, userID string, cursor *domain.Cursor, limit int) ([]domain.WorkoutSession, *domain.Cursor, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if cursor == nil {
		rows, err = r.pool.Query(ctx,
			`SELECT `+sessionColumns+` FROM workout_sessions
              WHERE user_id = $1
              ORDER BY start_time DESC, id DESC
              LIMIT $2`, userID, limit)
	} else {
		if !validID(cursor.ID) {
			return nil, nil, domain.Invalid("invalid cursor")
		}
		rows, err = r.pool.Query(ctx,
			`SELECT `+sessionColumns+` FROM workout_sessions
              WHERE user_id = $1 AND (start_time, id) < ($2, $3::uuid)
              ORDER BY start_time DESC, id DESC
              LIMIT $4`, userID, cursor.StartedAt, cursor.ID, limit)
	}
	if err != nil {
		return nil, nil, err
	}
	sessions, err := pgx.CollectRows(rows, collectSession)
	if err != nil {
		return nil, nil, err
	}

	var next *domain.Cursor
	if limit > 0 && len(sessions) == limit {
		last := sessions[len(sessions)-1]
		next = &domain.Cursor{StartedAt: last.StartTime, ID: last.ID}
	}
	return sessions, next, nil
}

// GetSessionDetail fetches a session with its exercise records in plan order and their sets.
func (r *Repository) GetSessionDetail(ctx context.Context, sessionID string) (*domain.SessionDetail, error) {
	if !validID(sessionID) {
		return nil, nil
	}
	sess, err := scanSession(r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM workout_sessions WHERE id = $1`, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	detail := &domain.SessionDetail{WorkoutSession: sess}

	rows, err := r.pool.Query(ctx,
		`SELECT er.id, er.session_id, er.exercise_id, COALESCE(er.workout_exercise_id::text, '')
           FROM exercise_records er
           LEFT JOIN workout_exercises we ON we.id = er.workout_exercise_id
          WHERE er.session_id = $1
          ORDER BY we.position NULLS LAST, er.id`, sessionID)
	if err != nil {
		return nil, err
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ExerciseRecordDetail, error) {
		var rd domain.ExerciseRecordDetail
		err := row.Scan(&rd.ID, &rd.SessionID, &rd.ExerciseID, &rd.WorkoutExerciseID)
		return rd, err
	})
	if err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx,
		`SELECT sr.id, sr.exercise_record_id, sr.set_number, sr.actual_reps, sr.weight_kg, sr.completed
           FROM set_records sr
           JOIN exercise_records er ON er.id = sr.exercise_record_id
          WHERE er.session_id = $1
          ORDER BY sr.set_number`, sessionID)
	if err != nil {
		return nil, err
	}
	sets, err := pgx.CollectRows(rows, collectSetRecord)
	if err != nil {
		return nil, err
	}
	byRecord := make(map[string][]domain.SetRecord, len(records))
	for _, set := range sets {
		byRecord[set.ExerciseRecordID] = append(byRecord[set.ExerciseRecordID], set)
	}
	for i := range records {
		records[i].Sets = byRecord[records[i].ID]
	}
	detail.Exercises = records
	return detail, nil
}

func collectSetRecord(row pgx.CollectableRow) (domain.SetRecord, error) {
	var s domain.SetRecord
	err := row.Scan(&s.ID, &s.ExerciseRecordID, &s.SetNumber, &s.ActualReps, &s.WeightKG, &s.Completed)
	return s, err
}

// CreateSupplement stores a supplement.
func (r *Repository) CreateSupplement(ctx context.Context, s domain.Supplement) error {
	days := s.Days
	if days == nil {
		days = []int{}
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO supplements (`+supplementColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		s.ID, s.UserID, s.Name, s.Description, string(s.Frequency), string(s.Timing), s.TimeOfDay, days, s.CreatedAt,
	)
	return err
}

// ListSupplements returns the user's supplements ordered by name.
func (r *Repository) ListSupplements(ctx context.Context, userID string) ([]domain.Supplement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+supplementColumns+` FROM supplements WHERE user_id = $1 ORDER BY name, id`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, collectSupplement)
}

// GetSupplement fetches one supplement.
func (r *Repository) GetSupplement(ctx context.Context, supplementID string) (*domain.Supplement, error) {
	if !validID(supplementID) {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+supplementColumns+` FROM supplements WHERE id = $1`, supplementID)
	if err != nil {
		return nil, err
	}
	s, err := pgx.CollectOneRow(rows, collectSupplement)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// RecordSupplement logs a take or skip.
func (r *Repository) RecordSupplement(ctx context.Context, record domain.SupplementRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO supplement_records (id, supplement_id, user_id, recorded_at, taken) VALUES ($1,$2,$3,$4,$5)`,
		record.ID, record.SupplementID, record.UserID, record.Timestamp, record.Taken,
	)
	return err
}

// ListTimedSupplements returns every supplement scheduled at a clock time.
func (r *Repository) ListTimedSupplements(ctx context.Context) ([]domain.Supplement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+supplementColumns+` FROM supplements
          WHERE time_type = 'time' AND time_of_day <> ''
          ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, collectSupplement)
}

// SeedAchievements upserts the rule catalog.
func (r *Repository) SeedAchievements(ctx context.Context, achievements []domain.Achievement) error {
	batch := &pgx.Batch{}
	for _, a := range achievements {
		batch.Queue(
			`INSERT INTO achievements (`+achievementColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
             ON CONFLICT (id) DO UPDATE
                SET name = EXCLUDED.name,
                    description = EXCLUDED.description,
                    xp_reward = EXCLUDED.xp_reward,
                    icon_name = EXCLUDED.icon_name,
                    requirement_type = EXCLUDED.requirement_type,
                    requirement_value = EXCLUDED.requirement_value,
                    time_window = EXCLUDED.time_window`,
			a.ID, a.Name, a.Description, a.XPReward, a.IconName, string(a.RequirementType), a.RequirementValue, string(a.TimeWindow),
		)
	}
	if batch.Len() == 0 {
		return nil
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// ListAchievements returns the rule catalog.
func (r *Repository) ListAchievements(ctx context.Context) ([]domain.Achievement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+achievementColumns+` FROM achievements ORDER BY requirement_type, requirement_value, id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, collectAchievement)
}

// ListUserAchievements returns the user's earned achievements, oldest first.
func (r *Repository) ListUserAchievements(ctx context.Context, userID string) ([]domain.UserAchievement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, achievement_id, earned_at FROM user_achievements
          WHERE user_id = $1
          ORDER BY earned_at, achievement_id`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.UserAchievement, error) {
		var ua domain.UserAchievement
		err := row.Scan(&ua.UserID, &ua.AchievementID, &ua.EarnedAt)
		return ua, err
	})
}

// CreateChallenge stores a challenge.
func (r *Repository) CreateChallenge(ctx context.Context, c domain.Challenge) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO challenges (`+challengeColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		c.ID, c.Name, c.Description, c.Icon, c.StartDate, c.EndDate, c.XPReward, c.RequiredWorkouts, c.Active,
	)
	return err
}

// ListActiveChallenges returns active challenges whose end date is not before today.
func (r *Repository) ListActiveChallenges(ctx context.Context, today time.Time) ([]domain.Challenge, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+challengeColumns+` FROM challenges
          WHERE is_active AND end_date >= $1::date
          ORDER BY start_date, id`, today)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, collectChallenge)
}

// CreateNotification stores a notification outside any unit of work.
func (r *Repository) CreateNotification(ctx context.Context, n domain.Notification) error {
	return insertNotification(ctx, r.pool, n)
}

// ListNotifications returns the user's notifications, newest first.
func (r *Repository) ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+notificationColumns+` FROM notifications
          WHERE user_id = $1
          ORDER BY created_at DESC, id DESC
          LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, collectNotification)
}

// MarkNotificationRead flags one of the user's notifications.
func (r *Repository) MarkNotificationRead(ctx context.Context, userID, notificationID string) (bool, error) {
	if !validID(notificationID) {
		return false, nil
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, notificationID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkAllNotificationsRead flags every unread notification of the user.
func (r *Repository) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read`, userID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// UnreadNotificationCount counts unread notifications.
func (r *Repository) UnreadNotificationCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT read`, userID).Scan(&n)
	return n, err
}

// UsersWithStreakAtRisk returns users who last trained on lastWorkout with a streak of at least
// minStreak.
func (r *Repository) UsersWithStreakAtRisk(ctx context.Context, lastWorkout time.Time, minStreak int) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users
          WHERE last_workout_date = $1::date AND streak_count >= $2
          ORDER BY id`, lastWorkout, minStreak)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.User, error) {
		u, err := scanUser(row)
		if err != nil {
			return domain.User{}, err
		}
		return *u, nil
	})
}

var _ domain.Repository = (*Repository)(nil)
