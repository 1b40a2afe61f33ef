// Package events defines the integration event payloads published through the outbox.
package events

import "time"

// Event types published on the gamification topic.
const (
	TypeSessionCompleted    = "session.completed"
	TypeAchievementUnlocked = "achievement.unlocked"
	TypeChallengeCompleted  = "challenge.completed"
)

// Envelope carries the fields every gamification event shares. Consumers that only project
// progression state decode into Envelope and ignore the rest.
type Envelope struct {
	UserID  string `json:"user_id"`
	TotalXP int    `json:"total_xp"`
	Level   int    `json:"level"`
}

// SessionCompleted is emitted once per finalized workout session.
type SessionCompleted struct {
	Envelope
	SessionID       string    `json:"session_id"`
	WorkoutID       string    `json:"workout_id"`
	DurationSeconds int       `json:"duration_seconds"`
	CaloriesBurned  int       `json:"calories_burned"`
	XPEarned        int       `json:"xp_earned"`
	LeveledUp       bool      `json:"leveled_up"`
	StreakCount     int       `json:"streak_count"`
	CompletedAt     time.Time `json:"completed_at"`
}

// AchievementUnlocked is emitted for each newly created user achievement.
type AchievementUnlocked struct {
	Envelope
	AchievementID string    `json:"achievement_id"`
	XPReward      int       `json:"xp_reward"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}

// ChallengeCompleted is emitted when a user completes a joined challenge.
type ChallengeCompleted struct {
	Envelope
	ChallengeID string    `json:"challenge_id"`
	XPReward    int       `json:"xp_reward"`
	CompletedAt time.Time `json:"completed_at"`
}
