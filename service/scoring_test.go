package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeScoreIncorrectIsZero(t *testing.T) {
	assert.Equal(t, int32(0), ComputeScore(100, 0, 0, false))
	assert.Equal(t, int32(0), ComputeScore(1000, 59, 1, false))
}

func TestComputeScoreFastLowMemory(t *testing.T) {
	// 100 base, 10 minutes, 20 MB:
	// time bonus  = round(100 * (1 - 10/60) * 0.10) = 8
	// mem bonus   = round(100 * (1 - 20/100) * 0.05) = 4
	assert.Equal(t, int32(112), ComputeScore(100, 10, 20, true))
}

func TestComputeScoreBonusesFloorAtZero(t *testing.T) {
	// beyond both cutoffs: no negative bonuses, score equals base
	assert.Equal(t, int32(100), ComputeScore(100, 120, 250, true))
}

func TestComputeScoreUpperBound(t *testing.T) {
	cases := []struct {
		base   int32
		time   float64
		memory float64
	}{
		{100, 0, 0},
		{100, 30, 50},
		{250, 5, 10},
		{1000, 0.5, 1},
		{1, 0, 0},
	}
	for _, tc := range cases {
		score := ComputeScore(tc.base, tc.time, tc.memory, true)
		limit := int32(math.Round(float64(tc.base) * 1.15))
		assert.GreaterOrEqual(t, score, tc.base)
		assert.LessOrEqual(t, score, limit)
	}
}
