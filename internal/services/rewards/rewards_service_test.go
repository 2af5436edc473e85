package rewards

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextStreakFirstLogin(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

	count, bonus := NextStreak(0, nil, now)
	assert.Equal(t, 1, count)
	assert.Equal(t, dailyStreakReward, bonus)
}

func TestNextStreakSameDayIsNoop(t *testing.T) {
	now := time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC)
	earlier := time.Date(2025, 3, 10, 0, 1, 0, 0, time.UTC)

	count, bonus := NextStreak(4, &earlier, now)
	assert.Equal(t, 4, count)
	assert.Zero(t, bonus)
}

func TestNextStreakConsecutiveDay(t *testing.T) {
	now := time.Date(2025, 3, 11, 0, 5, 0, 0, time.UTC)
	yesterday := time.Date(2025, 3, 10, 23, 55, 0, 0, time.UTC)

	count, bonus := NextStreak(4, &yesterday, now)
	assert.Equal(t, 5, count)
	assert.Equal(t, dailyStreakReward, bonus)
}

func TestNextStreakWeeklyBonus(t *testing.T) {
	now := time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC)
	yesterday := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	// Седьмой подряд день приносит недельный бонус
	count, bonus := NextStreak(6, &yesterday, now)
	assert.Equal(t, 7, count)
	assert.Equal(t, dailyStreakReward+weeklyStreakBonus, bonus)
}

func TestNextStreakGapResets(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	lastWeek := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	count, bonus := NextStreak(12, &lastWeek, now)
	assert.Equal(t, 1, count)
	assert.Equal(t, dailyStreakReward, bonus)
}

func TestNextStreakHandlesNonUTCLastLogin(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	now := time.Date(2025, 3, 11, 1, 0, 0, 0, time.UTC)
	yesterday := time.Date(2025, 3, 11, 1, 0, 0, 0, loc) // 10 марта 22:00 UTC

	count, _ := NextStreak(2, &yesterday, now)
	assert.Equal(t, 3, count)
}
