package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"time"

	"example.com/fittrack/internal/domain"
)

// UpsertProfile implements domain.Repository.
func (s *Store) UpsertProfile(ctx context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.state.users[user.ID]; ok {
		existing.Username = user.Username
		existing.Email = user.Email
		existing.HeightCM = user.HeightCM
		existing.WeightKG = user.WeightKG
		user = existing
	}
	s.state.users[user.ID] = user
	return &user, nil
}

// GetUser implements domain.Repository.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.state.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// UserStats implements domain.Repository.
func (s *Store) UserStats(ctx context.Context, userID string, since time.Time, loc *time.Location) (domain.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.UserStats
	records := s.state.recordsBySession()
	names := make(map[string]string, len(s.state.muscleGroups))
	for _, mg := range s.state.muscleGroups {
		names[mg.ID] = mg.Name
	}
	counts := make(map[string]int)
	days := make(map[time.Time]bool)
	for _, sess := range s.state.completedSessions(userID) {
		stats.TotalWorkouts++
		stats.TotalDurationSeconds += sess.DurationSeconds
		if !sess.StartTime.Before(since) {
			days[domain.DateOf(sess.StartTime, loc)] = true
		}
		for _, r := range records[sess.ID] {
			for _, mg := range s.state.exercises[r.ExerciseID].MuscleGroupIDs {
				counts[names[mg]]++
			}
		}
	}
	for name, n := range counts {
		stats.MuscleGroups = append(stats.MuscleGroups, domain.MuscleGroupCount{Name: name, Count: n})
	}
	slices.SortFunc(stats.MuscleGroups, func(a, b domain.MuscleGroupCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	stats.DaysTrained = len(days)
	return stats, nil
}

// ListMuscleGroups implements domain.Repository.
func (s *Store) ListMuscleGroups(ctx context.Context) ([]domain.MuscleGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.muscleGroups), nil
}

// CreateExercise implements domain.Repository.
func (s *Store) CreateExercise(ctx context.Context, exercise domain.Exercise) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.exercises[exercise.ID] = exercise
	return nil
}

// ListExercises implements domain.Repository.
func (s *Store) ListExercises(ctx context.Context, ownerID, muscleGroupID string) ([]domain.Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Exercise
	for _, ex := range s.state.exercises {
		if ex.OwnerID != ownerID {
			continue
		}
		if muscleGroupID != "" && !slices.Contains(ex.MuscleGroupIDs, muscleGroupID) {
			continue
		}
		out = append(out, ex)
	}
	slices.SortFunc(out, func(a, b domain.Exercise) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// CreateWorkout implements domain.Repository.
func (s *Store) CreateWorkout(ctx context.Context, workout domain.Workout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	workout.Exercises = slices.Clone(workout.Exercises)
	s.state.workouts[workout.ID] = workout
	return nil
}

// ListWorkouts implements domain.Repository.
func (s *Store) ListWorkouts(ctx context.Context, userID string) ([]domain.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Workout
	for _, w := range s.state.workouts {
		if domain.VisibleTo(w, userID) {
			w.Exercises = slices.Clone(w.Exercises)
			out = append(out, w)
		}
	}
	slices.SortFunc(out, func(a, b domain.Workout) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// GetWorkout implements domain.Repository.
func (s *Store) GetWorkout(ctx context.Context, workoutID string) (*domain.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&tx{st: s.state}).GetWorkout(ctx, workoutID)
}

// ListSessions implements domain.Repository.
func (s *Store) ListSessions(ctx context.Context, userID string, cursor *domain.Cursor, limit int) ([]domain.WorkoutSession, *domain.Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []domain.WorkoutSession
	for _, sess := range s.state.sessions {
		if sess.UserID != userID {
			continue
		}
		if cursor != nil && !olderThan(sess, *cursor) {
			continue
		}
		all = append(all, sess)
	}
	slices.SortFunc(all, func(a, b domain.WorkoutSession) int {
		if c := b.StartTime.Compare(a.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	var next *domain.Cursor
	if limit > 0 && len(all) == limit {
		last := all[len(all)-1]
		next = &domain.Cursor{StartedAt: last.StartTime, ID: last.ID}
	}
	return all, next, nil
}

// olderThan reports whether the session sorts strictly after the cursor in newest-first order.
func olderThan(sess domain.WorkoutSession, c domain.Cursor) bool {
	if sess.StartTime.Equal(c.StartedAt) {
		return sess.ID < c.ID
	}
	return sess.StartTime.Before(c.StartedAt)
}

// GetSessionDetail implements domain.Repository.
func (s *Store) GetSessionDetail(ctx context.Context, sessionID string) (*domain.SessionDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.state.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	detail := &domain.SessionDetail{WorkoutSession: sess}
	order := make(map[string]int)
	if w, ok := s.state.workouts[sess.WorkoutID]; ok {
		for _, we := range w.Exercises {
			order[we.ID] = we.Order
		}
	}
	for _, r := range s.state.recordsBySession()[sessionID] {
		rd := domain.ExerciseRecordDetail{ExerciseRecord: r}
		for key, set := range s.state.setRecords {
			if key.recordID == r.ID {
				rd.Sets = append(rd.Sets, set)
			}
		}
		slices.SortFunc(rd.Sets, func(a, b domain.SetRecord) int { return cmp.Compare(a.SetNumber, b.SetNumber) })
		detail.Exercises = append(detail.Exercises, rd)
	}
	slices.SortFunc(detail.Exercises, func(a, b domain.ExerciseRecordDetail) int {
		if c := cmp.Compare(order[a.WorkoutExerciseID], order[b.WorkoutExerciseID]); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return detail, nil
}

// CreateSupplement implements domain.Repository.
func (s *Store) CreateSupplement(ctx context.Context, supplement domain.Supplement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.supplements[supplement.ID] = supplement
	return nil
}

// ListSupplements implements domain.Repository.
func (s *Store) ListSupplements(ctx context.Context, userID string) ([]domain.Supplement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Supplement
	for _, sup := range s.state.supplements {
		if sup.UserID == userID {
			out = append(out, sup)
		}
	}
	sortSupplements(out)
	return out, nil
}

// GetSupplement implements domain.Repository.
func (s *Store) GetSupplement(ctx context.Context, supplementID string) (*domain.Supplement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sup, ok := s.state.supplements[supplementID]
	if !ok {
		return nil, nil
	}
	return &sup, nil
}

// RecordSupplement implements domain.Repository.
func (s *Store) RecordSupplement(ctx context.Context, record domain.SupplementRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.supplementRecords = append(s.state.supplementRecords, record)
	return nil
}

// ListTimedSupplements implements domain.Repository.
func (s *Store) ListTimedSupplements(ctx context.Context) ([]domain.Supplement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Supplement
	for _, sup := range s.state.supplements {
		if sup.Timing == domain.TimingTime && sup.TimeOfDay != "" {
			out = append(out, sup)
		}
	}
	sortSupplements(out)
	return out, nil
}

func sortSupplements(out []domain.Supplement) {
	slices.SortFunc(out, func(a, b domain.Supplement) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SeedAchievements implements domain.Repository.
func (s *Store) SeedAchievements(ctx context.Context, achievements []domain.Achievement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range achievements {
		i := slices.IndexFunc(s.state.achievements, func(existing domain.Achievement) bool { return existing.ID == a.ID })
		if i >= 0 {
			s.state.achievements[i] = a
			continue
		}
		s.state.achievements = append(s.state.achievements, a)
	}
	return nil
}

// ListAchievements implements domain.Repository.
func (s *Store) ListAchievements(ctx context.Context) ([]domain.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.achievements), nil
}

// ListUserAchievements implements domain.Repository.
func (s *Store) ListUserAchievements(ctx context.Context, userID string) ([]domain.UserAchievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.UserAchievement
	for key, ua := range s.state.userAchievements {
		if key.userID == userID {
			out = append(out, ua)
		}
	}
	slices.SortFunc(out, func(a, b domain.UserAchievement) int {
		if c := a.EarnedAt.Compare(b.EarnedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.AchievementID, b.AchievementID)
	})
	return out, nil
}

// CreateChallenge implements domain.Repository.
func (s *Store) CreateChallenge(ctx context.Context, challenge domain.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.challenges[challenge.ID] = challenge
	return nil
}

// ListActiveChallenges implements domain.Repository.
func (s *Store) ListActiveChallenges(ctx context.Context, now time.Time) ([]domain.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Challenge
	for _, c := range s.state.challenges {
		if c.Active && !c.EndDate.Before(now) {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b domain.Challenge) int {
		if c := a.StartDate.Compare(b.StartDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// CreateNotification implements domain.Repository.
func (s *Store) CreateNotification(ctx context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.notifications[n.ID] = n
	return nil
}

// ListNotifications implements domain.Repository.
func (s *Store) ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Notification
	for _, n := range s.state.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, func(a, b domain.Notification) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkNotificationRead implements domain.Repository.
func (s *Store) MarkNotificationRead(ctx context.Context, userID, notificationID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.state.notifications[notificationID]
	if !ok || n.UserID != userID {
		return false, nil
	}
	n.Read = true
	s.state.notifications[notificationID] = n
	return true, nil
}

// MarkAllNotificationsRead implements domain.Repository.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for _, id := range slices.Collect(maps.Keys(s.state.notifications)) {
		n := s.state.notifications[id]
		if n.UserID == userID && !n.Read {
			n.Read = true
			s.state.notifications[id] = n
			changed++
		}
	}
	return changed, nil
}

// UnreadNotificationCount implements domain.Repository.
func (s *Store) UnreadNotificationCount(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.state.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

// UsersWithStreakAtRisk implements domain.Repository.
func (s *Store) UsersWithStreakAtRisk(ctx context.Context, lastWorkout time.Time, minStreak int) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.User
	for _, u := range s.state.users {
		if u.LastWorkoutDate != nil && u.LastWorkoutDate.Equal(lastWorkout) && u.StreakCount >= minStreak {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b domain.User) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

var _ domain.Repository = (*Store)(nil)
