package progression

import (
	"context"

	"github.com/sirupsen/logrus"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/events"
)

// ChallengeCompletion is the outcome of completing a challenge.
type ChallengeCompletion struct {
	Challenge domain.Challenge
	XPEarned  int
	LeveledUp bool
	Level     int
}

// JoinChallenge enrolls the user in an active challenge that has not ended.
func (e *Engine) JoinChallenge(ctx context.Context, userID, challengeID string) (*domain.UserChallenge, error) {
	var joined domain.UserChallenge
	err := e.uow.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		challenge, err := tx.GetChallenge(ctx, challengeID)
		if err != nil {
			return err
		}
		if challenge == nil || !challenge.Active {
			return domain.ErrChallengeNotFound
		}
		now := e.clock.Now().UTC()
		if domain.DateOf(now, e.loc).After(challenge.EndDate) {
			return domain.ErrChallengeEnded
		}
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUserNotFound
		}
		joined = domain.UserChallenge{UserID: userID, ChallengeID: challenge.ID, JoinedAt: now}
		inserted, err := tx.InsertUserChallenge(ctx, joined)
		if err != nil {
			return err
		}
		if !inserted {
			return domain.ErrChallengeAlreadyJoined
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &joined, nil
}

// CompleteChallenge marks a joined challenge complete and credits its reward once.
func (e *Engine) CompleteChallenge(ctx context.Context, userID, challengeID string) (*ChallengeCompletion, error) {
	var result ChallengeCompletion
	err := e.uow.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		challenge, err := tx.GetChallenge(ctx, challengeID)
		if err != nil {
			return err
		}
		if challenge == nil {
			return domain.ErrChallengeNotFound
		}
		participation, err := tx.GetUserChallenge(ctx, userID, challenge.ID)
		if err != nil {
			return err
		}
		if participation == nil {
			return domain.ErrChallengeNotJoined
		}
		if participation.Completed {
			return domain.ErrChallengeAlreadyCompleted
		}
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUserNotFound
		}

		now := e.clock.Now().UTC()
		participation.Completed = true
		participation.CompletedAt = &now
		if err := tx.SaveUserChallenge(ctx, *participation); err != nil {
			return err
		}
		leveledUp := AddXP(user, challenge.XPReward)
		if err := tx.SaveUser(ctx, *user); err != nil {
			return err
		}
		if err := tx.CreateNotification(ctx, challengeNotification(user.ID, *challenge, now)); err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, domain.OutboxEvent{
			Type:          events.TypeChallengeCompleted,
			AggregateType: "user_challenge",
			AggregateID:   user.ID + ":" + challenge.ID,
			UserID:        user.ID,
			OccurredAt:    now,
			Payload: events.ChallengeCompleted{
				Envelope:    envelope(*user),
				ChallengeID: challenge.ID,
				XPReward:    challenge.XPReward,
				CompletedAt: now,
			},
		}); err != nil {
			return err
		}
		result = ChallengeCompletion{
			Challenge: *challenge,
			XPEarned:  challenge.XPReward,
			LeveledUp: leveledUp,
			Level:     user.Level,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.WithFields(logrus.Fields{
		"user_id":      userID,
		"challenge_id": challengeID,
		"xp_earned":    result.XPEarned,
	}).Info("challenge completed")
	return &result, nil
}
