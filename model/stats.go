package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStats aggregates one user's performance across all challenges.
// Created lazily on the user's first submission and mutated only by the
// submission pipeline and the leaderboard ranker.
type UserStats struct {
	ID                  primitive.ObjectID        `bson:"_id,omitempty" json:"id"`
	UserID              string                    `bson:"userId" json:"userId"`
	TotalScore          int64                     `bson:"totalScore" json:"totalScore"`
	ChallengesSolved    int32                     `bson:"challengesSolved" json:"challengesSolved"`
	ChallengesAttempted int32                     `bson:"challengesAttempted" json:"challengesAttempted"`
	CurrentStreak       int32                     `bson:"currentStreak" json:"currentStreak"`
	LongestStreak       int32                     `bson:"longestStreak" json:"longestStreak"`
	LastSubmissionDate  *time.Time                `bson:"lastSubmissionDate,omitempty" json:"lastSubmissionDate,omitempty"`
	StreakStartDate     *time.Time                `bson:"streakStartDate,omitempty" json:"streakStartDate,omitempty"`
	CategoryStats       map[string]CategoryStat   `bson:"categoryStats" json:"categoryStats"`
	DifficultyStats     map[string]DifficultyStat `bson:"difficultyStats" json:"difficultyStats"`
	Achievements        []Achievement             `bson:"achievements" json:"achievements"`
	Rank                int32                     `bson:"rank" json:"rank"`
	PreviousRank        int32                     `bson:"previousRank" json:"previousRank"`
	RankUpdatedAt       time.Time                 `bson:"rankUpdatedAt" json:"rankUpdatedAt"`
	CreatedAt           time.Time                 `bson:"created_at" json:"createdAt"`
	UpdatedAt           time.Time                 `bson:"updated_at" json:"updatedAt"`
	Version             int64                     `bson:"version" json:"-"`
}

type CategoryStat struct {
	Solved    int32 `bson:"solved" json:"solved"`
	Attempted int32 `bson:"attempted" json:"attempted"`
	Score     int64 `bson:"score" json:"score"`
}

type DifficultyStat struct {
	Solved    int32 `bson:"solved" json:"solved"`
	Attempted int32 `bson:"attempted" json:"attempted"`
	Score     int64 `bson:"score" json:"score"`
}

// Achievement is a named one-time milestone on a user's stats.
type Achievement struct {
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description" json:"description"`
	Icon        string    `bson:"icon" json:"icon"`
	UnlockedAt  time.Time `bson:"unlockedAt" json:"unlockedAt"`
}

// NewUserStats builds the zero-valued stats document for a user.
func NewUserStats(userID string, now time.Time) *UserStats {
	return &UserStats{
		UserID:          userID,
		CategoryStats:   map[string]CategoryStat{},
		DifficultyStats: map[string]DifficultyStat{},
		Achievements:    []Achievement{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// HasAchievement reports whether an achievement with the given name is
// already unlocked.
func (s *UserStats) HasAchievement(name string) bool {
	for _, a := range s.Achievements {
		if a.Name == name {
			return true
		}
	}
	return false
}
