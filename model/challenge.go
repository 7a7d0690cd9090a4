package model

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// challenge categories, fixed set
const (
	CategoryDSA       = "dsa"
	CategoryAptitude  = "aptitude"
	CategoryProgram   = "programming"
	CategoryWebDev    = "web-development"
	CategoryMobileDev = "mobile-development"
	CategoryAIML      = "ai-ml"
)

// Categories lists every valid challenge category in canonical order.
var Categories = []string{
	CategoryDSA,
	CategoryAptitude,
	CategoryProgram,
	CategoryWebDev,
	CategoryMobileDev,
	CategoryAIML,
}

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
	DifficultyExpert = "expert"
)

// Difficulties lists every valid difficulty in canonical order.
var Difficulties = []string{
	DifficultyEasy,
	DifficultyMedium,
	DifficultyHard,
	DifficultyExpert,
}

// Challenge represents an authored coding challenge
type Challenge struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	Difficulty  string             `bson:"difficulty" json:"difficulty"`
	Points      int32              `bson:"points" json:"points"`
	TimeLimit   int32              `bson:"time_limit" json:"timeLimit"`
	TestCases   []TestCase         `bson:"testcases" json:"testCases"`
	CreatedBy   string             `bson:"created_by" json:"createdBy"`
	IsActive    bool               `bson:"is_active" json:"isActive"`
	IsPublished bool               `bson:"is_published" json:"isPublished"`
	Attempts    int64              `bson:"attempts" json:"attempts"`
	SolvedBy    int64              `bson:"solvedBy" json:"solvedBy"`
	AverageTime float64            `bson:"averageTime" json:"averageTime"`
	SuccessRate int32              `bson:"successRate" json:"successRate"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
	DeletedAt   *time.Time         `bson:"deleted_at,omitempty" json:"-"`
}

// test case of a challenge, hidden cases are withheld from listings
type TestCase struct {
	Input          string `bson:"input" json:"input"`
	ExpectedOutput string `bson:"expected_output" json:"expectedOutput"`
	Hidden         bool   `bson:"hidden" json:"hidden"`
}

// UpdateStats advances the aggregate counters for one finished submission.
// Keeps successRate == round(solvedBy/attempts*100) and the running
// averageTime over solved submissions only.
func (c *Challenge) UpdateStats(isSolved bool, timeTaken float64) {
	c.Attempts++
	if isSolved {
		c.SolvedBy++
		c.AverageTime = ((c.AverageTime * float64(c.SolvedBy-1)) + timeTaken) / float64(c.SolvedBy)
	}
	if c.Attempts > 0 {
		c.SuccessRate = int32(math.Round(float64(c.SolvedBy) / float64(c.Attempts) * 100))
	} else {
		c.SuccessRate = 0
	}
}

// ValidCategory reports whether cat is one of the fixed challenge categories.
func ValidCategory(cat string) bool {
	for _, c := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// ValidDifficulty reports whether d is a known difficulty.
func ValidDifficulty(d string) bool {
	for _, v := range Difficulties {
		if v == d {
			return true
		}
	}
	return false
}
