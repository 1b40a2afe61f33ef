// Package leaderboard ranks users by lifetime XP in a Redis sorted set.
package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"example.com/fittrack/internal/progression"
)

// DefaultKey is the sorted set holding user id -> total XP.
const DefaultKey = "fittrack:leaderboard:xp"

// MaxLimit bounds Top.
const MaxLimit = 100

// ErrNotRanked is returned by Rank for users that have not earned XP yet.
var ErrNotRanked = errors.New("leaderboard: user not ranked")

// Entry is one leaderboard row. Rank is 1-based.
type Entry struct {
	UserID  string `json:"user_id"`
	TotalXP int    `json:"total_xp"`
	Level   int    `json:"level"`
	Rank    int64  `json:"rank"`
}

// sortedSet is the subset of redis.Cmdable the board needs.
type sortedSet interface {
	ZAddArgs(ctx context.Context, key string, args redis.ZAddArgs) *redis.IntCmd
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd
	ZRevRank(ctx context.Context, key, member string) *redis.IntCmd
	ZScore(ctx context.Context, key, member string) *redis.FloatCmd
}

// Board reads and writes the XP leaderboard.
type Board struct {
	client sortedSet
	key    string
}

// New returns a Board over client. An empty key selects DefaultKey.
func New(client sortedSet, key string) *Board {
	if key == "" {
		key = DefaultKey
	}
	return &Board{client: client, key: key}
}

// Record sets the user's score to totalXP unless a higher score is already stored, so replayed
// or reordered events never move a user down.
func (b *Board) Record(ctx context.Context, userID string, totalXP int) error {
	if userID == "" {
		return errors.New("leaderboard: empty user id")
	}
	err := b.client.ZAddArgs(ctx, b.key, redis.ZAddArgs{
		GT:      true,
		Members: []redis.Z{{Score: float64(totalXP), Member: userID}},
	}).Err()
	if err != nil {
		return fmt.Errorf("leaderboard: record %s: %w", userID, err)
	}
	return nil
}

// Top returns the highest ranked users, best first.
func (b *Board) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > MaxLimit {
		limit = MaxLimit
	}
	members, err := b.client.ZRevRangeWithScores(ctx, b.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard: top: %w", err)
	}

	entries := make([]Entry, 0, len(members))
	for i, m := range members {
		userID, ok := m.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, newEntry(userID, m.Score, int64(i)+1))
	}
	return entries, nil
}

// Rank returns the user's position. Users without a score yield ErrNotRanked.
func (b *Board) Rank(ctx context.Context, userID string) (Entry, error) {
	rank, err := b.client.ZRevRank(ctx, b.key, userID).Result()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotRanked
	}
	if err != nil {
		return Entry{}, fmt.Errorf("leaderboard: rank %s: %w", userID, err)
	}
	score, err := b.client.ZScore(ctx, b.key, userID).Result()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotRanked
	}
	if err != nil {
		return Entry{}, fmt.Errorf("leaderboard: score %s: %w", userID, err)
	}
	return newEntry(userID, score, rank+1), nil
}

func newEntry(userID string, score float64, rank int64) Entry {
	total := int(score)
	return Entry{
		UserID:  userID,
		TotalXP: total,
		Level:   progression.LevelForTotalXP(total),
		Rank:    rank,
	}
}
