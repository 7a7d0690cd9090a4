package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeScoreRoundTrip(t *testing.T) {
	cases := []struct {
		total  int64
		solved int32
		streak int32
	}{
		{0, 0, 0},
		{1, 1, 1},
		{114, 1, 1},
		{98765, 432, 28},
		{1_000_000, 9999, 9999},
	}
	for _, tc := range cases {
		total, solved, streak := DecodeScore(EncodeScore(tc.total, tc.solved, tc.streak))
		assert.Equal(t, tc.total, total)
		assert.Equal(t, tc.solved, solved)
		assert.Equal(t, tc.streak, streak)
	}
}

func TestEncodeScoreOrdersLikeThreeKeyComparison(t *testing.T) {
	// each left tuple beats the right one under
	// (totalScore, solved, streak) lexicographic comparison
	pairs := [][2][3]int64{
		{{900, 1, 1}, {899, 9999, 9999}},
		{{500, 8, 1}, {500, 4, 9}},
		{{300, 2, 3}, {300, 2, 2}},
		{{1, 0, 0}, {0, 9999, 9999}},
	}
	for _, p := range pairs {
		hi := EncodeScore(p[0][0], int32(p[0][1]), int32(p[0][2]))
		lo := EncodeScore(p[1][0], int32(p[1][1]), int32(p[1][2]))
		assert.Greater(t, hi, lo, "tuple %v must outrank %v", p[0], p[1])
	}
}

func TestEncodeScoreClampsCounters(t *testing.T) {
	// counters past four digits clamp instead of spilling into the next field
	clamped := EncodeScore(100, 123456, 54321)
	total, solved, streak := DecodeScore(clamped)
	assert.Equal(t, int64(100), total)
	assert.Equal(t, int32(9999), solved)
	assert.Equal(t, int32(9999), streak)
}
