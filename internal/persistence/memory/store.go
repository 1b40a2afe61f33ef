// Package memory provides an in-memory Repository for local development and tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"example.com/fittrack/internal/domain"
)

type state struct {
	users             map[string]domain.User
	muscleGroups      []domain.MuscleGroup
	exercises         map[string]domain.Exercise
	workouts          map[string]domain.Workout
	sessions          map[string]domain.WorkoutSession
	exerciseRecords   map[string]domain.ExerciseRecord
	setRecords        map[setKey]domain.SetRecord
	supplements       map[string]domain.Supplement
	supplementRecords []domain.SupplementRecord
	achievements      []domain.Achievement
	userAchievements  map[pairKey]domain.UserAchievement
	challenges        map[string]domain.Challenge
	userChallenges    map[pairKey]domain.UserChallenge
	notifications     map[string]domain.Notification
	events            []domain.OutboxEvent
}

type setKey struct {
	recordID  string
	setNumber int
}

type pairKey struct {
	userID  string
	otherID string
}

func newState() *state {
	return &state{
		users:            make(map[string]domain.User),
		muscleGroups:     domain.DefaultMuscleGroups(),
		exercises:        make(map[string]domain.Exercise),
		workouts:         make(map[string]domain.Workout),
		sessions:         make(map[string]domain.WorkoutSession),
		exerciseRecords:  make(map[string]domain.ExerciseRecord),
		setRecords:       make(map[setKey]domain.SetRecord),
		supplements:      make(map[string]domain.Supplement),
		userAchievements: make(map[pairKey]domain.UserAchievement),
		challenges:       make(map[string]domain.Challenge),
		userChallenges:   make(map[pairKey]domain.UserChallenge),
		notifications:    make(map[string]domain.Notification),
	}
}

// clone copies every collection. Stored values are replaced on write, never mutated in
// place, so copying the containers is enough to isolate a transaction.
func (s *state) clone() *state {
	return &state{
		users:             maps.Clone(s.users),
		muscleGroups:      slices.Clone(s.muscleGroups),
		exercises:         maps.Clone(s.exercises),
		workouts:          maps.Clone(s.workouts),
		sessions:          maps.Clone(s.sessions),
		exerciseRecords:   maps.Clone(s.exerciseRecords),
		setRecords:        maps.Clone(s.setRecords),
		supplements:       maps.Clone(s.supplements),
		supplementRecords: slices.Clone(s.supplementRecords),
		achievements:      slices.Clone(s.achievements),
		userAchievements:  maps.Clone(s.userAchievements),
		challenges:        maps.Clone(s.challenges),
		userChallenges:    maps.Clone(s.userChallenges),
		notifications:     maps.Clone(s.notifications),
		events:            slices.Clone(s.events),
	}
}

// Store implements domain.Repository in memory. Transactions are serialized and commit by
// swapping in a modified copy of the state.
type Store struct {
	mu    sync.RWMutex
	state *state
}

// NewStore constructs a Store seeded with the default muscle groups.
func NewStore() *Store {
	return &Store{state: newState()}
}

// WithinTx implements domain.UnitOfWork.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.state.clone()
	if err := fn(ctx, &tx{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Events returns the outbox events committed so far.
func (s *Store) Events() []domain.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.events)
}

type tx struct {
	st *state
}

func (t *tx) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	u, ok := t.st.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (t *tx) SaveUser(ctx context.Context, user domain.User) error {
	t.st.users[user.ID] = user
	return nil
}

func (t *tx) GetWorkout(ctx context.Context, workoutID string) (*domain.Workout, error) {
	w, ok := t.st.workouts[workoutID]
	if !ok {
		return nil, nil
	}
	w.Exercises = slices.Clone(w.Exercises)
	return &w, nil
}

func (t *tx) CreateSession(ctx context.Context, session domain.WorkoutSession, records []domain.ExerciseRecord) error {
	t.st.sessions[session.ID] = session
	for _, r := range records {
		t.st.exerciseRecords[r.ID] = r
	}
	return nil
}

func (t *tx) GetSession(ctx context.Context, sessionID string) (*domain.WorkoutSession, error) {
	s, ok := t.st.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (t *tx) FinalizeSession(ctx context.Context, session domain.WorkoutSession) (bool, error) {
	current, ok := t.st.sessions[session.ID]
	if !ok || current.EndTime != nil {
		return false, nil
	}
	t.st.sessions[session.ID] = session
	return true, nil
}

func (t *tx) CountExerciseRecords(ctx context.Context, sessionID string) (int, error) {
	n := 0
	for _, r := range t.st.exerciseRecords {
		if r.SessionID == sessionID {
			n++
		}
	}
	return n, nil
}

func (t *tx) FindExerciseRecord(ctx context.Context, sessionID, exerciseID string) (*domain.ExerciseRecord, error) {
	var found *domain.ExerciseRecord
	for _, r := range t.st.exerciseRecords {
		if r.SessionID != sessionID || r.ExerciseID != exerciseID {
			continue
		}
		// lowest id wins so repeated lookups are stable
		if found == nil || r.ID < found.ID {
			found = &r
		}
	}
	return found, nil
}

func (t *tx) UpsertSetRecord(ctx context.Context, set domain.SetRecord) (domain.SetRecord, error) {
	key := setKey{recordID: set.ExerciseRecordID, setNumber: set.SetNumber}
	if existing, ok := t.st.setRecords[key]; ok {
		set.ID = existing.ID
	}
	t.st.setRecords[key] = set
	return set, nil
}

func (t *tx) Projection(ctx context.Context, userID string, loc *time.Location) (domain.ProgressProjection, error) {
	return t.st.projection(userID, loc), nil
}

func (t *tx) EarnedAchievementIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	for key := range t.st.userAchievements {
		if key.userID == userID {
			ids = append(ids, key.otherID)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (t *tx) InsertUserAchievement(ctx context.Context, ua domain.UserAchievement) (bool, error) {
	key := pairKey{userID: ua.UserID, otherID: ua.AchievementID}
	if _, exists := t.st.userAchievements[key]; exists {
		return false, nil
	}
	t.st.userAchievements[key] = ua
	return true, nil
}

func (t *tx) GetChallenge(ctx context.Context, challengeID string) (*domain.Challenge, error) {
	c, ok := t.st.challenges[challengeID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (t *tx) GetUserChallenge(ctx context.Context, userID, challengeID string) (*domain.UserChallenge, error) {
	uc, ok := t.st.userChallenges[pairKey{userID: userID, otherID: challengeID}]
	if !ok {
		return nil, nil
	}
	return &uc, nil
}

func (t *tx) InsertUserChallenge(ctx context.Context, uc domain.UserChallenge) (bool, error) {
	key := pairKey{userID: uc.UserID, otherID: uc.ChallengeID}
	if _, exists := t.st.userChallenges[key]; exists {
		return false, nil
	}
	t.st.userChallenges[key] = uc
	return true, nil
}

func (t *tx) SaveUserChallenge(ctx context.Context, uc domain.UserChallenge) error {
	t.st.userChallenges[pairKey{userID: uc.UserID, otherID: uc.ChallengeID}] = uc
	return nil
}

func (t *tx) CreateNotification(ctx context.Context, n domain.Notification) error {
	t.st.notifications[n.ID] = n
	return nil
}

func (t *tx) AppendEvent(ctx context.Context, event domain.OutboxEvent) error {
	t.st.events = append(t.st.events, event)
	return nil
}

func (s *state) completedSessions(userID string) []domain.WorkoutSession {
	var out []domain.WorkoutSession
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.Completed {
			out = append(out, sess)
		}
	}
	return out
}

// recordsBySession groups exercise records under their session id.
func (s *state) recordsBySession() map[string][]domain.ExerciseRecord {
	out := make(map[string][]domain.ExerciseRecord)
	for _, r := range s.exerciseRecords {
		out[r.SessionID] = append(out[r.SessionID], r)
	}
	return out
}

func (s *state) projection(userID string, loc *time.Location) domain.ProgressProjection {
	var p domain.ProgressProjection
	records := s.recordsBySession()
	trained := make(map[string]bool)
	for _, sess := range s.completedSessions(userID) {
		p.CompletedSessions++
		if domain.IsWeekend(sess.StartTime, loc) {
			p.WeekendSessions++
		}
		for _, r := range records[sess.ID] {
			for _, mg := range s.exercises[r.ExerciseID].MuscleGroupIDs {
				trained[mg] = true
			}
		}
	}
	p.TrainedMuscleGroupIDs = slices.Sorted(maps.Keys(trained))
	for _, mg := range s.muscleGroups {
		p.KnownMuscleGroupIDs = append(p.KnownMuscleGroupIDs, mg.ID)
	}
	for _, rec := range s.supplementRecords {
		if rec.UserID == userID && rec.Taken {
			p.SupplementsTaken++
		}
	}
	return p
}
