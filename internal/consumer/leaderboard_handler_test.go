package consumer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/events"
)

type recordedScore struct {
	userID  string
	totalXP int
}

type fakeBoard struct {
	scores []recordedScore
}

func (b *fakeBoard) Record(_ context.Context, userID string, totalXP int) error {
	b.scores = append(b.scores, recordedScore{userID: userID, totalXP: totalXP})
	return nil
}

func TestLeaderboardHandlerRecordsTotalXP(t *testing.T) {
	board := &fakeBoard{}
	handler := NewLeaderboardHandler(board)

	payload, err := json.Marshal(events.AchievementUnlocked{
		Envelope:      events.Envelope{UserID: "user-7", TotalXP: 167, Level: 2},
		AchievementID: "first_workout",
		XPReward:      25,
	})
	require.NoError(t, err)

	require.NoError(t, handler.Handle(context.Background(), Message{EventType: events.TypeAchievementUnlocked, Payload: payload}))
	require.Equal(t, []recordedScore{{userID: "user-7", totalXP: 167}}, board.scores)
}

func TestLeaderboardHandlerFallsBackToHeaderUser(t *testing.T) {
	board := &fakeBoard{}
	msg := Message{UserID: "user-9", Payload: json.RawMessage(`{"total_xp":40}`)}

	require.NoError(t, NewLeaderboardHandler(board).Handle(context.Background(), msg))
	require.Equal(t, []recordedScore{{userID: "user-9", totalXP: 40}}, board.scores)
}

func TestLeaderboardHandlerRejectsAnonymousEvents(t *testing.T) {
	board := &fakeBoard{}
	err := NewLeaderboardHandler(board).Handle(context.Background(), Message{Payload: json.RawMessage(`{"total_xp":40}`)})
	require.Error(t, err)
	require.Empty(t, board.scores)

	err = NewLeaderboardHandler(board).Handle(context.Background(), Message{Payload: json.RawMessage(`[]`)})
	require.Error(t, err)
}
