package trading

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPairLockKeySymmetric(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	// Ключ не зависит от порядка аргументов
	assert.Equal(t, PairLockKey(a, b), PairLockKey(b, a))
}

func TestPairLockKeyDistinguishesPairs(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	assert.NotEqual(t, PairLockKey(a, b), PairLockKey(a, c))
	assert.NotEqual(t, PairLockKey(a, b), PairLockKey(b, c))
}

func TestPairLockKeyStable(t *testing.T) {
	a := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	b := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	first := PairLockKey(a, b)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, PairLockKey(a, b))
	}
}

func TestValidSwipeDirection(t *testing.T) {
	assert.True(t, ValidSwipeDirection("left"))
	assert.True(t, ValidSwipeDirection("right"))

	assert.False(t, ValidSwipeDirection(""))
	assert.False(t, ValidSwipeDirection("up"))
	assert.False(t, ValidSwipeDirection("Left"))
}

func TestMatchTeddyBonusWithinRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		bonus := matchTeddyBonus()
		assert.GreaterOrEqual(t, bonus, matchBonusMin)
		assert.LessOrEqual(t, bonus, matchBonusMax)
	}
}
