package progression

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"example.com/fittrack/internal/domain"
)

func achievementNotification(userID string, a domain.Achievement, at time.Time) domain.Notification {
	return domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     fmt.Sprintf("Achievement unlocked: %s", a.Name),
		Message:   fmt.Sprintf("Congratulations! You unlocked '%s' and earned %d XP!", a.Name, a.XPReward),
		Type:      domain.NotificationAchievement,
		Icon:      a.IconName,
		ActionURL: "/achievements",
		CreatedAt: at,
	}
}

func streakNotification(userID string, streak int, at time.Time) domain.Notification {
	return domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     fmt.Sprintf("%d day streak!", streak),
		Message:   fmt.Sprintf("Amazing! You have worked out %d days in a row. Keep it up!", streak),
		Type:      domain.NotificationStreak,
		Icon:      "streak",
		ActionURL: "/profile",
		CreatedAt: at,
	}
}

func challengeNotification(userID string, c domain.Challenge, at time.Time) domain.Notification {
	return domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     fmt.Sprintf("Challenge completed: %s", c.Name),
		Message:   fmt.Sprintf("You completed the challenge '%s' and earned %d XP!", c.Name, c.XPReward),
		Type:      domain.NotificationChallenge,
		Icon:      c.Icon,
		ActionURL: "/challenges",
		CreatedAt: at,
	}
}
