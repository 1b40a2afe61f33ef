package progression

import (
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/domain"
)

func TestAddXPCrossesOneLevel(t *testing.T) {
	u := &domain.User{Level: 1, XP: 90, TotalXP: 90}

	leveledUp := AddXP(u, 15)

	require.True(t, leveledUp)
	require.Equal(t, 2, u.Level)
	require.Equal(t, 5, u.XP)
	require.Equal(t, 105, u.TotalXP)
}

func TestAddXPRollsOverSeveralLevels(t *testing.T) {
	u := &domain.User{Level: 1}

	// 100 (l1) + 200 (l2) + 300 (l3) = 600, 50 left over at level 4
	require.True(t, AddXP(u, 650))
	require.Equal(t, 4, u.Level)
	require.Equal(t, 50, u.XP)
	require.Equal(t, 650, u.TotalXP)
}

func TestAddXPKeepsInvariant(t *testing.T) {
	u := &domain.User{Level: 1}
	for _, amount := range []int{0, 1, 7, 99, 100, 101, 250, 999, 3, 42} {
		before := u.TotalXP
		AddXP(u, amount)
		require.GreaterOrEqual(t, u.XP, 0)
		require.Less(t, u.XP, u.Level*XPPerLevel)
		require.Equal(t, before+amount, u.TotalXP)
	}
}

func TestAddXPWithoutLevelUp(t *testing.T) {
	u := &domain.User{Level: 3, XP: 10}
	require.False(t, AddXP(u, 50))
	require.Equal(t, 3, u.Level)
	require.Equal(t, 60, u.XP)
}

func TestAddXPIgnoresNegativeAmounts(t *testing.T) {
	u := &domain.User{Level: 2, XP: 40, TotalXP: 140}
	require.False(t, AddXP(u, -20))
	require.Equal(t, domain.User{Level: 2, XP: 40, TotalXP: 140}, *u)
}

func TestDerivedLevelViews(t *testing.T) {
	u := domain.User{Level: 2, XP: 50}
	require.Equal(t, 150, XPToNextLevel(u))
	require.Equal(t, 25, LevelProgressPercentage(u))

	require.Equal(t, 0, LevelProgressPercentage(domain.User{Level: 1}))
	require.Equal(t, 99, LevelProgressPercentage(domain.User{Level: 1, XP: 99}))
	require.Equal(t, 100, LevelProgressPercentage(domain.User{Level: 1, XP: 250}))
	require.Equal(t, 0, LevelProgressPercentage(domain.User{Level: 1, XP: -5}))
}

func TestLevelForTotalXPMatchesLedger(t *testing.T) {
	require.Equal(t, 1, LevelForTotalXP(0))
	require.Equal(t, 1, LevelForTotalXP(99))
	require.Equal(t, 2, LevelForTotalXP(100))
	require.Equal(t, 3, LevelForTotalXP(300))
	require.Equal(t, 4, LevelForTotalXP(650))

	u := &domain.User{Level: 1}
	for _, amount := range []int{25, 82, 140, 5, 390, 1000} {
		AddXP(u, amount)
		require.Equal(t, u.Level, LevelForTotalXP(u.TotalXP))
	}
}
