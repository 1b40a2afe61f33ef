// Package progression implements the session completion engine: XP and level arithmetic,
// consecutive-day streaks, session statistics and achievement unlocking.
package progression

import "example.com/fittrack/internal/domain"

// XPPerLevel is the XP required per level step; advancing from level n costs n*XPPerLevel.
const XPPerLevel = 100

// AddXP credits amount to the user and rolls any excess into level-ups. It reports whether
// the level increased. Negative amounts are ignored.
func AddXP(u *domain.User, amount int) bool {
	if amount < 0 {
		return false
	}
	if u.Level < 1 {
		u.Level = 1
	}
	u.TotalXP += amount
	u.XP += amount

	leveledUp := false
	for u.XP >= u.Level*XPPerLevel {
		u.XP -= u.Level * XPPerLevel
		u.Level++
		leveledUp = true
	}
	return leveledUp
}

// XPToNextLevel is the XP still needed to reach the next level.
func XPToNextLevel(u domain.User) int {
	return levelOf(u)*XPPerLevel - u.XP
}

// LevelProgressPercentage is floor(xp / (level*100) * 100), clamped to [0,100].
func LevelProgressPercentage(u domain.User) int {
	pct := u.XP * 100 / (levelOf(u) * XPPerLevel)
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

func levelOf(u domain.User) int {
	if u.Level < 1 {
		return 1
	}
	return u.Level
}

// LevelForTotalXP returns the level a user reaches after earning total XP from level 1.
// Reaching level n costs 50*n*(n-1) in total.
func LevelForTotalXP(total int) int {
	level := 1
	for total >= level*XPPerLevel {
		total -= level * XPPerLevel
		level++
	}
	return level
}
