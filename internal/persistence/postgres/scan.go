package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"example.com/fittrack/internal/domain"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// validID reports whether id can be compared against a UUID column. Ids that are not UUIDs
// cannot exist, so lookups short-circuit to "not found".
func validID(id string) bool {
	return uuid.Validate(id) == nil
}

func tzName(loc *time.Location) string {
	if loc == nil {
		return "UTC"
	}
	return loc.String()
}

const userColumns = `id, username, email, level, xp, total_xp, streak_count, longest_streak, streak_last_date, last_workout_date, height_cm, weight_kg, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Level, &u.XP, &u.TotalXP, &u.StreakCount, &u.LongestStreak,
		&u.StreakLastDate, &u.LastWorkoutDate, &u.HeightCM, &u.WeightKG, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const sessionColumns = `id, user_id, workout_id, start_time, end_time, duration_seconds, calories_burned, xp_earned, completed, notes`

func scanSession(row pgx.Row) (domain.WorkoutSession, error) {
	var s domain.WorkoutSession
	err := row.Scan(&s.ID, &s.UserID, &s.WorkoutID, &s.StartTime, &s.EndTime, &s.DurationSeconds, &s.CaloriesBurned,
		&s.XPEarned, &s.Completed, &s.Notes)
	return s, err
}

func collectSession(row pgx.CollectableRow) (domain.WorkoutSession, error) {
	return scanSession(row)
}

const supplementColumns = `id, user_id, name, description, frequency, time_type, time_of_day, days, created_at`

func collectSupplement(row pgx.CollectableRow) (domain.Supplement, error) {
	var s domain.Supplement
	var frequency, timing string
	err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Description, &frequency, &timing, &s.TimeOfDay, &s.Days, &s.CreatedAt)
	s.Frequency = domain.SupplementFrequency(frequency)
	s.Timing = domain.SupplementTiming(timing)
	return s, err
}

const achievementColumns = `id, name, description, xp_reward, icon_name, requirement_type, requirement_value, time_window`

func collectAchievement(row pgx.CollectableRow) (domain.Achievement, error) {
	var a domain.Achievement
	var reqType, window string
	err := row.Scan(&a.ID, &a.Name, &a.Description, &a.XPReward, &a.IconName, &reqType, &a.RequirementValue, &window)
	a.RequirementType = domain.RequirementType(reqType)
	a.TimeWindow = domain.TimeWindow(window)
	return a, err
}

const challengeColumns = `id, name, description, icon, start_date, end_date, xp_reward, required_workouts, is_active`

func scanChallenge(row pgx.Row) (domain.Challenge, error) {
	var c domain.Challenge
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.StartDate, &c.EndDate, &c.XPReward, &c.RequiredWorkouts, &c.Active)
	return c, err
}

func collectChallenge(row pgx.CollectableRow) (domain.Challenge, error) {
	return scanChallenge(row)
}

const notificationColumns = `id, user_id, title, message, type, icon, action_url, read, created_at`

func collectNotification(row pgx.CollectableRow) (domain.Notification, error) {
	var n domain.Notification
	var kind string
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &kind, &n.Icon, &n.ActionURL, &n.Read, &n.CreatedAt)
	n.Type = domain.NotificationType(kind)
	return n, err
}

func insertNotification(ctx context.Context, q querier, n domain.Notification) error {
	_, err := q.Exec(ctx,
		`INSERT INTO notifications (`+notificationColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		n.ID, n.UserID, n.Title, n.Message, string(n.Type), n.Icon, n.ActionURL, n.Read, n.CreatedAt,
	)
	return err
}

func getWorkout(ctx context.Context, q querier, workoutID string) (*domain.Workout, error) {
	if !validID(workoutID) {
		return nil, nil
	}
	var w domain.Workout
	err := q.QueryRow(ctx,
		`SELECT id, user_id, name, description, is_template, created_at FROM workouts WHERE id = $1`, workoutID,
	).Scan(&w.ID, &w.UserID, &w.Name, &w.Description, &w.IsTemplate, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	planned, err := workoutExercises(ctx, q, []string{w.ID})
	if err != nil {
		return nil, err
	}
	w.Exercises = planned[w.ID]
	return &w, nil
}

// workoutExercises loads planned exercises for the given workouts, ordered by position.
func workoutExercises(ctx context.Context, q querier, workoutIDs []string) (map[string][]domain.WorkoutExercise, error) {
	rows, err := q.Query(ctx,
		`SELECT id, workout_id, exercise_id, position, sets, target_reps, rest_seconds, notes
           FROM workout_exercises
          WHERE workout_id = ANY($1::uuid[])
          ORDER BY workout_id, position, id`, workoutIDs)
	if err != nil {
		return nil, err
	}
	planned, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.WorkoutExercise, error) {
		var we domain.WorkoutExercise
		err := row.Scan(&we.ID, &we.WorkoutID, &we.ExerciseID, &we.Order, &we.Sets, &we.TargetReps, &we.RestSeconds, &we.Notes)
		return we, err
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string][]domain.WorkoutExercise, len(workoutIDs))
	for _, we := range planned {
		out[we.WorkoutID] = append(out[we.WorkoutID], we)
	}
	return out, nil
}
