package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"example.com/fittrack/internal/events"
)

type scoreRecorder interface {
	Record(ctx context.Context, userID string, totalXP int) error
}

// LeaderboardHandler projects the total XP carried by every gamification event onto the
// leaderboard.
type LeaderboardHandler struct {
	board scoreRecorder
}

// NewLeaderboardHandler constructs a LeaderboardHandler.
func NewLeaderboardHandler(board scoreRecorder) *LeaderboardHandler {
	return &LeaderboardHandler{board: board}
}

// Handle decodes the shared envelope and records the user's total XP.
func (h *LeaderboardHandler) Handle(ctx context.Context, msg Message) error {
	var env events.Envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		return fmt.Errorf("decode %s envelope: %w", msg.EventType, err)
	}
	if env.UserID == "" {
		env.UserID = msg.UserID
	}
	if env.UserID == "" {
		return fmt.Errorf("%s event without user_id at offset %d", msg.EventType, msg.Offset)
	}
	return h.board.Record(ctx, env.UserID, env.TotalXP)
}
