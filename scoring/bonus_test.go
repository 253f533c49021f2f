package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeBonusSameTier(t *testing.T) {
	bonusA, bonusB := ComputeBonus(2, 2, 5, 3)
	assert.Equal(t, float64(2), bonusA, "winner in the same tier gets the same-tier bonus")
	assert.Equal(t, float64(0), bonusB)
}

func TestComputeBonusHigherTierWinner(t *testing.T) {
	// winner's division rank is numerically greater than the loser's
	bonusA, bonusB := ComputeBonus(3, 2, 5, 3)
	assert.Equal(t, float64(3), bonusA)
	assert.Equal(t, float64(0), bonusB)
}

func TestComputeBonusLowerTierWinner(t *testing.T) {
	bonusA, bonusB := ComputeBonus(2, 3, 5, 3)
	assert.Equal(t, float64(0), bonusA, "winner from a numerically lower-ranked division gets nothing")
	assert.Equal(t, float64(0), bonusB)
}

func TestComputeBonusTiedScore(t *testing.T) {
	bonusA, bonusB := ComputeBonus(1, 3, 2, 2)
	assert.Equal(t, float64(0), bonusA)
	assert.Equal(t, float64(0), bonusB)
}

func TestComputeBonusSideB(t *testing.T) {
	bonusA, bonusB := ComputeBonus(2, 3, 1, 4)
	assert.Equal(t, float64(0), bonusA)
	assert.Equal(t, float64(3), bonusB)

	bonusA, bonusB = ComputeBonus(2, 2, 1, 4)
	assert.Equal(t, float64(0), bonusA)
	assert.Equal(t, float64(2), bonusB)
}

func TestComputeBonusUnsetRankDefaultsToOne(t *testing.T) {
	// an unset rank counts as 1, so both teams are in the same tier
	bonusA, bonusB := ComputeBonus(0, 1, 3, 1)
	assert.Equal(t, float64(2), bonusA)
	assert.Equal(t, float64(0), bonusB)

	// unset vs rank 2: the unset side wins from a lower tier, no bonus
	bonusA, bonusB = ComputeBonus(0, 2, 3, 1)
	assert.Equal(t, float64(0), bonusA)
	assert.Equal(t, float64(0), bonusB)
}
