package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"example.com/fittrack/internal/domain"
)

// StreakWarningMinimum is the smallest streak worth a warning.
const StreakWarningMinimum = 3

type streakSource interface {
	UsersWithStreakAtRisk(ctx context.Context, lastWorkout time.Time, minStreak int) ([]domain.User, error)
	CreateNotification(ctx context.Context, n domain.Notification) error
}

// StreakWarningJob warns users whose streak ends today unless they work out. It targets users
// with a streak of at least StreakWarningMinimum whose last workout was yesterday.
type StreakWarningJob struct {
	repo   streakSource
	loc    *time.Location
	now    func() time.Time
	logger logrus.FieldLogger
}

// NewStreakWarningJob constructs a StreakWarningJob.
func NewStreakWarningJob(repo streakSource, loc *time.Location, now func() time.Time, logger logrus.FieldLogger) *StreakWarningJob {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &StreakWarningJob{repo: repo, loc: loc, now: now, logger: logger}
}

// Name implements Job.
func (j *StreakWarningJob) Name() string { return "streak_warning" }

// Run implements Job.
func (j *StreakWarningJob) Run(ctx context.Context) error {
	now := j.now()
	yesterday := domain.DateOf(now, j.loc).AddDate(0, 0, -1)

	users, err := j.repo.UsersWithStreakAtRisk(ctx, yesterday, StreakWarningMinimum)
	if err != nil {
		return fmt.Errorf("list users with streak at risk: %w", err)
	}

	var errs error
	sent := 0
	for _, u := range users {
		if err := j.repo.CreateNotification(ctx, streakWarning(u, now)); err != nil {
			errs = errors.Join(errs, fmt.Errorf("warn %s: %w", u.ID, err))
			continue
		}
		sent++
	}
	remindersCounter.WithLabelValues("streak_warning").Add(float64(sent))
	if sent > 0 && j.logger != nil {
		j.logger.WithField("count", sent).Info("streak warnings sent")
	}
	return errs
}

type supplementSource interface {
	ListTimedSupplements(ctx context.Context) ([]domain.Supplement, error)
	CreateNotification(ctx context.Context, n domain.Notification) error
}

// SupplementReminderJob reminds users of supplements scheduled inside the window that ends now.
// The window should match the job's schedule interval so every time of day fires once.
type SupplementReminderJob struct {
	repo   supplementSource
	window time.Duration
	loc    *time.Location
	now    func() time.Time
	logger logrus.FieldLogger
}

// NewSupplementReminderJob constructs a SupplementReminderJob.
func NewSupplementReminderJob(repo supplementSource, window time.Duration, loc *time.Location, now func() time.Time, logger logrus.FieldLogger) *SupplementReminderJob {
	if window <= 0 {
		window = 15 * time.Minute
	}
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &SupplementReminderJob{repo: repo, window: window, loc: loc, now: now, logger: logger}
}

// Name implements Job.
func (j *SupplementReminderJob) Name() string { return "supplement_reminder" }

// Run implements Job.
func (j *SupplementReminderJob) Run(ctx context.Context) error {
	now := j.now().In(j.loc)
	supplements, err := j.repo.ListTimedSupplements(ctx)
	if err != nil {
		return fmt.Errorf("list timed supplements: %w", err)
	}

	var errs error
	sent := 0
	for _, s := range supplements {
		if !DueWithin(s, now, j.window) {
			continue
		}
		if err := j.repo.CreateNotification(ctx, supplementReminder(s, now)); err != nil {
			errs = errors.Join(errs, fmt.Errorf("remind %s: %w", s.ID, err))
			continue
		}
		sent++
	}
	remindersCounter.WithLabelValues("supplement").Add(float64(sent))
	if sent > 0 && j.logger != nil {
		j.logger.WithField("count", sent).Info("supplement reminders sent")
	}
	return errs
}

// DueWithin reports whether s is scheduled today (in now's location) at a time in
// (now-window, now]. Only daily and custom supplements with a time of day are ever due.
func DueWithin(s domain.Supplement, now time.Time, window time.Duration) bool {
	if s.Timing != domain.TimingTime || s.TimeOfDay == "" {
		return false
	}
	switch s.Frequency {
	case domain.FrequencyDaily:
	case domain.FrequencyCustom:
		if !slices.Contains(s.Days, mondayIndex(now.Weekday())) {
			return false
		}
	default:
		return false
	}

	clock, err := time.Parse("15:04", s.TimeOfDay)
	if err != nil {
		return false
	}
	at := time.Date(now.Year(), now.Month(), now.Day(), clock.Hour(), clock.Minute(), 0, 0, now.Location())
	return at.After(now.Add(-window)) && !at.After(now)
}

// mondayIndex maps time.Weekday to 0 = Monday .. 6 = Sunday.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

type dlqRunner interface {
	RunOnce(ctx context.Context, batchSize int) (int, error)
}

// DLQRetryJob replays due outbox dead-letter entries.
type DLQRetryJob struct {
	manager   dlqRunner
	batchSize int
	logger    logrus.FieldLogger
}

// NewDLQRetryJob constructs a DLQRetryJob.
func NewDLQRetryJob(manager dlqRunner, batchSize int, logger logrus.FieldLogger) *DLQRetryJob {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &DLQRetryJob{manager: manager, batchSize: batchSize, logger: logger}
}

// Name implements Job.
func (j *DLQRetryJob) Name() string { return "outbox_dlq_retry" }

// Run implements Job.
func (j *DLQRetryJob) Run(ctx context.Context) error {
	requeued, err := j.manager.RunOnce(ctx, j.batchSize)
	if requeued > 0 && j.logger != nil {
		j.logger.WithField("requeued", requeued).Info("dlq entries requeued")
	}
	return err
}

func streakWarning(u domain.User, at time.Time) domain.Notification {
	return domain.Notification{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Title:     "Don't lose your streak!",
		Message:   fmt.Sprintf("You are on a %d day streak. Work out today to keep it going!", u.StreakCount),
		Type:      domain.NotificationStreak,
		Icon:      "streak_warning",
		ActionURL: "/workouts",
		CreatedAt: at,
	}
}

func supplementReminder(s domain.Supplement, at time.Time) domain.Notification {
	return domain.Notification{
		ID:        uuid.NewString(),
		UserID:    s.UserID,
		Title:     fmt.Sprintf("Time to take: %s", s.Name),
		Message:   fmt.Sprintf("Reminder: it's time to take your %s supplement.", s.Name),
		Type:      domain.NotificationSupplement,
		Icon:      "supplement",
		ActionURL: "/supplements",
		CreatedAt: at,
	}
}
