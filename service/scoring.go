package service

import "math"

// ComputeScore derives a submission's point value from the challenge's base
// points, elapsed minutes, and peak memory. Incorrect submissions score 0.
// Speed and memory efficiency earn small bonuses on top of the base value,
// bounded so the result never exceeds round(basePoints * 1.15).
func ComputeScore(basePoints int32, timeTakenMinutes, memoryUsedMB float64, isCorrect bool) int32 {
	if !isCorrect {
		return 0
	}
	base := float64(basePoints)
	timeBonusFactor := math.Max(0, 1-timeTakenMinutes/60)
	timeBonus := math.Round(base * timeBonusFactor * 0.10)
	memoryBonusFactor := math.Max(0, 1-memoryUsedMB/100)
	memoryBonus := math.Round(base * memoryBonusFactor * 0.05)
	return basePoints + int32(timeBonus) + int32(memoryBonus)
}
