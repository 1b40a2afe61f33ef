//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/progression"
	"example.com/fittrack/internal/testsupport"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newIntegrationRepo(t *testing.T) (*Repository, *domain.Service) {
	t.Helper()
	repo := NewRepository(testsupport.StartPostgres(t))
	require.NoError(t, repo.SeedAchievements(context.Background(), progression.DefaultAchievements()))
	return repo, domain.NewService(repo)
}

func seedPlan(t *testing.T, ctx context.Context, svc *domain.Service, userID string) *domain.Workout {
	t.Helper()
	_, err := svc.UpsertProfile(ctx, domain.ProfileInput{UserID: userID, Username: "ana"})
	require.NoError(t, err)
	ex, err := svc.CreateExercise(ctx, domain.CreateExerciseInput{
		OwnerID: userID, Name: "Squat", MuscleGroupIDs: []string{"legs", "glutes"},
	})
	require.NoError(t, err)
	w, err := svc.CreateWorkout(ctx, domain.CreateWorkoutInput{
		UserID: userID, Name: "Leg day",
		Exercises: []domain.WorkoutExerciseInput{{ExerciseID: ex.ID, Sets: 3, TargetReps: 5}},
	})
	require.NoError(t, err)
	return w
}

func TestCompleteSessionPersistsProgression(t *testing.T) {
	ctx := context.Background()
	repo, svc := newIntegrationRepo(t)
	workout := seedPlan(t, ctx, svc, "user-1")

	start := time.Date(2024, 3, 9, 9, 0, 0, 0, time.UTC) // Saturday
	engine := progression.NewEngine(repo, progression.WithClock(fixedClock{now: start}))
	detail, err := engine.StartSession(ctx, "user-1", workout.ID)
	require.NoError(t, err)
	require.Len(t, detail.Exercises, 1)

	set, err := engine.RecordSet(ctx, "user-1", detail.ID, progression.RecordSetInput{
		ExerciseID: workout.Exercises[0].ExerciseID, SetNumber: 1, ActualReps: 5,
	})
	require.NoError(t, err)
	again, err := engine.RecordSet(ctx, "user-1", detail.ID, progression.RecordSetInput{
		ExerciseID: workout.Exercises[0].ExerciseID, SetNumber: 1, ActualReps: 6,
	})
	require.NoError(t, err)
	require.Equal(t, set.ID, again.ID, "same set number keeps its row")

	engine = progression.NewEngine(repo, progression.WithClock(fixedClock{now: start.Add(45 * time.Minute)}))
	done, err := engine.CompleteSession(ctx, "user-1", detail.ID)
	require.NoError(t, err)
	require.True(t, done.Session.Completed)
	require.Equal(t, 45*60, done.Session.DurationSeconds)

	_, err = engine.CompleteSession(ctx, "user-1", detail.ID)
	require.ErrorIs(t, err, domain.ErrAlreadyCompleted)

	user, err := repo.GetUser(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, user.StreakCount)
	require.Equal(t, done.TotalXP, user.TotalXP)

	err = repo.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		p, err := tx.Projection(ctx, "user-1", time.UTC)
		require.NoError(t, err)
		require.Equal(t, 1, p.CompletedSessions)
		require.Equal(t, 1, p.WeekendSessions)
		require.Equal(t, []string{"glutes", "legs"}, p.TrainedMuscleGroupIDs)
		require.Len(t, p.KnownMuscleGroupIDs, 8)
		return nil
	})
	require.NoError(t, err)

	var outboxRows int
	require.NoError(t, repo.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE aggregate_id = $1`, detail.ID).Scan(&outboxRows))
	require.Equal(t, 1, outboxRows)

	got, err := svc.GetSession(ctx, "user-1", detail.ID)
	require.NoError(t, err)
	require.Len(t, got.Exercises[0].Sets, 1)
	require.Equal(t, 6, got.Exercises[0].Sets[0].ActualReps)

	stats, err := repo.UserStats(ctx, "user-1", start.Add(-24*time.Hour), time.UTC)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalWorkouts)
	require.Equal(t, 1, stats.DaysTrained)
	require.Len(t, stats.MuscleGroups, 2)
}

func TestConcurrentCompletionFinalizesOnce(t *testing.T) {
	ctx := context.Background()
	repo, svc := newIntegrationRepo(t)
	workout := seedPlan(t, ctx, svc, "user-2")

	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	detail, err := progression.NewEngine(repo, progression.WithClock(fixedClock{now: start})).
		StartSession(ctx, "user-2", workout.ID)
	require.NoError(t, err)

	engine := progression.NewEngine(repo, progression.WithClock(fixedClock{now: start.Add(time.Hour)}))
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.CompleteSession(ctx, "user-2", detail.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrAlreadyCompleted):
				conflicts++
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, successes)
	require.Equal(t, 4, conflicts)

	user, err := repo.GetUser(ctx, "user-2")
	require.NoError(t, err)
	require.Equal(t, 1, user.StreakCount)
}

func TestListSessionsPagesWithCursor(t *testing.T) {
	ctx := context.Background()
	repo, svc := newIntegrationRepo(t)
	workout := seedPlan(t, ctx, svc, "user-3")

	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := progression.NewEngine(repo, progression.WithClock(fixedClock{now: base.Add(time.Duration(i) * time.Hour)})).
			StartSession(ctx, "user-3", workout.ID)
		require.NoError(t, err)
	}

	page, next, err := repo.ListSessions(ctx, "user-3", nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, next)
	require.True(t, page[0].StartTime.After(page[1].StartTime))

	rest, next, err := repo.ListSessions(ctx, "user-3", next, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Nil(t, next)
	require.True(t, rest[0].StartTime.Equal(base))
}

func TestNotificationsAndLookups(t *testing.T) {
	ctx := context.Background()
	repo, svc := newIntegrationRepo(t)
	_, err := svc.UpsertProfile(ctx, domain.ProfileInput{UserID: "user-4", Username: "bo"})
	require.NoError(t, err)

	n := domain.Notification{
		ID: "0b6f8a8e-2a3e-4d59-9f7b-9d7d1f1f0a01", UserID: "user-4",
		Title: "Hi", Message: "Welcome", Type: domain.NotificationSystem, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateNotification(ctx, n))

	unread, err := repo.UnreadNotificationCount(ctx, "user-4")
	require.NoError(t, err)
	require.Equal(t, 1, unread)

	ok, err := repo.MarkNotificationRead(ctx, "someone-else", n.ID)
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = repo.MarkNotificationRead(ctx, "user-4", n.ID)
	require.NoError(t, err)
	require.True(t, ok)

	sess, err := repo.GetSessionDetail(ctx, "not-a-uuid")
	require.NoError(t, err)
	require.Nil(t, sess)
	workout, err := repo.GetWorkout(ctx, "not-a-uuid")
	require.NoError(t, err)
	require.Nil(t, workout)
}
