package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/persistence/memory"
)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func seedUser(t *testing.T, store *memory.Store, u domain.User) {
	t.Helper()
	require.NoError(t, store.WithinTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		return tx.SaveUser(ctx, u)
	}))
}

func TestStreakWarningTargetsYesterdaysStreaks(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	yesterday := time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	seedUser(t, store, domain.User{ID: "at-risk", Level: 1, StreakCount: 4, LastWorkoutDate: &yesterday})
	seedUser(t, store, domain.User{ID: "short", Level: 1, StreakCount: 2, LastWorkoutDate: &yesterday})
	seedUser(t, store, domain.User{ID: "trained-today", Level: 1, StreakCount: 9, LastWorkoutDate: &today})

	logger, _ := test.NewNullLogger()
	job := NewStreakWarningJob(store, time.UTC, fixedNow(now), logger)
	require.NoError(t, job.Run(context.Background()))

	notes, err := store.ListNotifications(context.Background(), "at-risk", 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, domain.NotificationStreak, notes[0].Type)
	require.Contains(t, notes[0].Message, "4 day streak")

	for _, id := range []string{"short", "trained-today"} {
		notes, err := store.ListNotifications(context.Background(), id, 10)
		require.NoError(t, err)
		require.Empty(t, notes, id)
	}
}

func TestStreakWarningUsesConfiguredLocation(t *testing.T) {
	store := memory.NewStore()
	brt := time.FixedZone("BRT", -3*60*60)
	// 01:00 UTC on the 10th is still the 9th in BRT, so "yesterday" is the 8th.
	now := time.Date(2024, 5, 10, 1, 0, 0, 0, time.UTC)
	eighth := time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC)
	seedUser(t, store, domain.User{ID: "u", Level: 1, StreakCount: 3, LastWorkoutDate: &eighth})

	require.NoError(t, NewStreakWarningJob(store, brt, fixedNow(now), nil).Run(context.Background()))

	count, err := store.UnreadNotificationCount(context.Background(), "u")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestDueWithin(t *testing.T) {
	// Friday 2024-05-10 08:05, weekday index 4.
	now := time.Date(2024, 5, 10, 8, 5, 0, 0, time.UTC)
	window := 15 * time.Minute

	cases := []struct {
		name string
		s    domain.Supplement
		want bool
	}{
		{"daily inside window", domain.Supplement{Frequency: domain.FrequencyDaily, Timing: domain.TimingTime, TimeOfDay: "08:00"}, true},
		{"daily exactly now", domain.Supplement{Frequency: domain.FrequencyDaily, Timing: domain.TimingTime, TimeOfDay: "08:05"}, true},
		{"daily window start excluded", domain.Supplement{Frequency: domain.FrequencyDaily, Timing: domain.TimingTime, TimeOfDay: "07:50"}, false},
		{"daily later today", domain.Supplement{Frequency: domain.FrequencyDaily, Timing: domain.TimingTime, TimeOfDay: "09:00"}, false},
		{"custom on friday", domain.Supplement{Frequency: domain.FrequencyCustom, Timing: domain.TimingTime, TimeOfDay: "08:00", Days: []int{0, 4}}, true},
		{"custom not today", domain.Supplement{Frequency: domain.FrequencyCustom, Timing: domain.TimingTime, TimeOfDay: "08:00", Days: []int{5, 6}}, false},
		{"workout day never scheduled", domain.Supplement{Frequency: domain.FrequencyWorkoutDay, Timing: domain.TimingTime, TimeOfDay: "08:00"}, false},
		{"pre workout timing", domain.Supplement{Frequency: domain.FrequencyDaily, Timing: domain.TimingPreWorkout}, false},
		{"malformed time", domain.Supplement{Frequency: domain.FrequencyDaily, Timing: domain.TimingTime, TimeOfDay: "8am"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, DueWithin(tc.s, now, window))
		})
	}
}

func TestSupplementReminderCreatesNotifications(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.CreateSupplement(ctx, domain.Supplement{
		ID: "s1", UserID: "u1", Name: "Creatine", Frequency: domain.FrequencyDaily, Timing: domain.TimingTime, TimeOfDay: "08:00",
	}))
	require.NoError(t, store.CreateSupplement(ctx, domain.Supplement{
		ID: "s2", UserID: "u1", Name: "Magnesium", Frequency: domain.FrequencyDaily, Timing: domain.TimingTime, TimeOfDay: "22:00",
	}))

	now := time.Date(2024, 5, 10, 8, 5, 0, 0, time.UTC)
	job := NewSupplementReminderJob(store, 15*time.Minute, time.UTC, fixedNow(now), nil)
	require.NoError(t, job.Run(ctx))

	notes, err := store.ListNotifications(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, "Time to take: Creatine", notes[0].Title)
	require.Equal(t, domain.NotificationSupplement, notes[0].Type)
}

type stubDLQ struct {
	calls    int
	batch    int
	requeued int
	err      error
}

func (s *stubDLQ) RunOnce(_ context.Context, batchSize int) (int, error) {
	s.calls++
	s.batch = batchSize
	return s.requeued, s.err
}

func TestDLQRetryJob(t *testing.T) {
	dlq := &stubDLQ{requeued: 2}
	job := NewDLQRetryJob(dlq, 0, nil)
	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, 1, dlq.calls)
	require.Equal(t, 100, dlq.batch)

	dlq.err = errors.New("db down")
	require.ErrorIs(t, job.Run(context.Background()), dlq.err)
}
