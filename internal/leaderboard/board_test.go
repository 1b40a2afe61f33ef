package leaderboard

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeSortedSet struct {
	added    []redis.ZAddArgs
	addErr   error
	top      []redis.Z
	ranks    map[string]int64
	scores   map[string]float64
	lastStop int64
}

func (f *fakeSortedSet) ZAddArgs(ctx context.Context, key string, args redis.ZAddArgs) *redis.IntCmd {
	f.added = append(f.added, args)
	return redis.NewIntResult(int64(len(args.Members)), f.addErr)
}

func (f *fakeSortedSet) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd {
	f.lastStop = stop
	return redis.NewZSliceCmdResult(f.top, nil)
}

func (f *fakeSortedSet) ZRevRank(ctx context.Context, key, member string) *redis.IntCmd {
	rank, ok := f.ranks[member]
	if !ok {
		return redis.NewIntResult(0, redis.Nil)
	}
	return redis.NewIntResult(rank, nil)
}

func (f *fakeSortedSet) ZScore(ctx context.Context, key, member string) *redis.FloatCmd {
	score, ok := f.scores[member]
	if !ok {
		return redis.NewFloatResult(0, redis.Nil)
	}
	return redis.NewFloatResult(score, nil)
}

func TestRecordOnlyRaisesScores(t *testing.T) {
	store := &fakeSortedSet{}
	board := New(store, "")

	require.NoError(t, board.Record(context.Background(), "user-1", 142))
	require.Len(t, store.added, 1)
	require.True(t, store.added[0].GT)
	require.Equal(t, []redis.Z{{Score: 142, Member: "user-1"}}, store.added[0].Members)
	require.Equal(t, DefaultKey, board.key)
}

func TestRecordRejectsEmptyUser(t *testing.T) {
	store := &fakeSortedSet{}
	require.Error(t, New(store, "lb").Record(context.Background(), "", 10))
	require.Empty(t, store.added)
}

func TestRecordWrapsRedisErrors(t *testing.T) {
	boom := errors.New("connection refused")
	err := New(&fakeSortedSet{addErr: boom}, "lb").Record(context.Background(), "u", 1)
	require.ErrorIs(t, err, boom)
}

func TestTopAssignsRanksAndLevels(t *testing.T) {
	store := &fakeSortedSet{top: []redis.Z{
		{Score: 650, Member: "a"},
		{Score: 142, Member: "b"},
		{Score: 25, Member: "c"},
	}}
	entries, err := New(store, "lb").Top(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, []Entry{
		{UserID: "a", TotalXP: 650, Level: 4, Rank: 1},
		{UserID: "b", TotalXP: 142, Level: 2, Rank: 2},
		{UserID: "c", TotalXP: 25, Level: 1, Rank: 3},
	}, entries)
	require.Equal(t, int64(2), store.lastStop)
}

func TestTopClampsLimit(t *testing.T) {
	store := &fakeSortedSet{}
	_, err := New(store, "lb").Top(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, int64(MaxLimit-1), store.lastStop)

	_, err = New(store, "lb").Top(context.Background(), 5000)
	require.NoError(t, err)
	require.Equal(t, int64(MaxLimit-1), store.lastStop)
}

func TestRank(t *testing.T) {
	store := &fakeSortedSet{
		ranks:  map[string]int64{"b": 1},
		scores: map[string]float64{"b": 300},
	}
	board := New(store, "lb")

	entry, err := board.Rank(context.Background(), "b")
	require.NoError(t, err)
	require.Equal(t, Entry{UserID: "b", TotalXP: 300, Level: 3, Rank: 2}, entry)

	_, err = board.Rank(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotRanked)
}
