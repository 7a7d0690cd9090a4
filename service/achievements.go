package service

import (
	"fmt"
	"time"

	"collegeconnect/model"
)

// achievementRule unlocks when its condition holds and no achievement with
// the same name exists yet. Rules are evaluated in a fixed order so repeated
// runs over the same stats produce the same sequence.
type achievementRule struct {
	name        string
	description string
	icon        string
	qualifies   func(stats *model.UserStats) bool
}

func achievementRules() []achievementRule {
	rules := []achievementRule{
		{
			name:        "First Solve",
			description: "Solved your first challenge",
			icon:        "🎯",
			qualifies: func(s *model.UserStats) bool {
				return s.ChallengesSolved == 1
			},
		},
		{
			name:        "Week Warrior",
			description: "Maintained a 7-day solve streak",
			icon:        "🔥",
			qualifies: func(s *model.UserStats) bool {
				return s.CurrentStreak == 7
			},
		},
		{
			name:        "Monthly Master",
			description: "Maintained a 30-day solve streak",
			icon:        "🏆",
			qualifies: func(s *model.UserStats) bool {
				return s.CurrentStreak == 30
			},
		},
		{
			name:        "Score Master",
			description: "Reached 1000 total points",
			icon:        "⭐",
			qualifies: func(s *model.UserStats) bool {
				return s.TotalScore >= 1000
			},
		},
	}
	for _, category := range model.Categories {
		cat := category
		rules = append(rules, achievementRule{
			name:        fmt.Sprintf("%s Expert", cat),
			description: fmt.Sprintf("Solved 10 challenges in %s", cat),
			icon:        "🧠",
			qualifies: func(s *model.UserStats) bool {
				return s.CategoryStats[cat].Solved >= 10
			},
		})
	}
	return rules
}

// EvaluateAchievements appends every newly qualified achievement to the
// stats sequence and returns the ones unlocked by this call. Names stay
// unique no matter how often the conditions are re-evaluated.
func EvaluateAchievements(stats *model.UserStats, now time.Time) []model.Achievement {
	var unlocked []model.Achievement
	for _, rule := range achievementRules() {
		if stats.HasAchievement(rule.name) {
			continue
		}
		if !rule.qualifies(stats) {
			continue
		}
		achievement := model.Achievement{
			Name:        rule.name,
			Description: rule.description,
			Icon:        rule.icon,
			UnlockedAt:  now,
		}
		stats.Achievements = append(stats.Achievements, achievement)
		unlocked = append(unlocked, achievement)
	}
	return unlocked
}
