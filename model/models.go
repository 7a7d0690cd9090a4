package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GenericResponse struct {
	Success bool        `json:"success"`
	Status  int         `json:"status"`
	Payload interface{} `json:"payload,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

type ErrorInfo struct {
	ErrorType string `json:"errorType"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
}

// submission status values
const (
	StatusPending           = "pending"
	StatusAccepted          = "accepted"
	StatusWrongAnswer       = "wrong-answer"
	StatusTimeLimitExceeded = "time-limit-exceeded"
	StatusRuntimeError      = "runtime-error"
	StatusCompilationError  = "compilation-error"
)

// Submission is one user's attempt at a challenge. Immutable once stored,
// apart from the score computed synchronously during creation.
type Submission struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       string             `bson:"userId" json:"userId"`
	ChallengeID  string             `bson:"challengeId" json:"challengeId"`
	Code         string             `bson:"code" json:"code"`
	Language     string             `bson:"language" json:"language"`
	Status       string             `bson:"status" json:"status"`
	Score        int32              `bson:"score" json:"score"`
	TimeTaken    float64            `bson:"timeTaken" json:"timeTaken"`
	MemoryUsed   float64            `bson:"memoryUsed" json:"memoryUsed"`
	TestResults  []TestCaseResult   `bson:"testResults" json:"testResults"`
	IsCorrect    bool               `bson:"isCorrect" json:"isCorrect"`
	ErrorMessage string             `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	SubmittedAt  time.Time          `bson:"submittedAt" json:"submittedAt"`
}

// TestCaseResult is the outcome of running one test case.
type TestCaseResult struct {
	Passed        bool    `bson:"passed" json:"passed"`
	ActualOutput  string  `bson:"actualOutput" json:"actualOutput"`
	ExecutionTime float64 `bson:"executionTime" json:"executionTime"`
	MemoryUsed    float64 `bson:"memoryUsed" json:"memoryUsed"`
}

type SubmitSolutionRequest struct {
	UserID      string `json:"userId"`
	ChallengeID string `json:"challengeId"`
	Code        string `json:"code"`
	Language    string `json:"language"`
}

type SubmitSolutionResponse struct {
	Submission *Submission `json:"submission"`
}

type CreateChallengeRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Difficulty  string     `json:"difficulty"`
	Points      int32      `json:"points"`
	TimeLimit   int32      `json:"timeLimit"`
	TestCases   []TestCase `json:"testCases"`
	CreatedBy   string     `json:"createdBy"`
	IsPublished bool       `json:"isPublished"`
}

type UpdateChallengeRequest struct {
	ChallengeID string  `json:"challengeId"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Difficulty  *string `json:"difficulty,omitempty"`
	Points      *int32  `json:"points,omitempty"`
	TimeLimit   *int32  `json:"timeLimit,omitempty"`
	IsPublished *bool   `json:"isPublished,omitempty"`
}

type ListChallengesRequest struct {
	Category   string `json:"category,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Search     string `json:"search,omitempty"`
	Page       int64  `json:"page"`
	PageSize   int64  `json:"pageSize"`
}

type ListChallengesResponse struct {
	Challenges []Challenge `json:"challenges"`
	TotalCount int64       `json:"totalCount"`
	Page       int64       `json:"page"`
	PageSize   int64       `json:"pageSize"`
}

// leaderboard timeframe filters
const (
	TimeframeAllTime = "all-time"
	TimeframeMonthly = "monthly"
	TimeframeWeekly  = "weekly"
)

type GetLeaderboardRequest struct {
	Timeframe string `json:"timeframe,omitempty"`
	Category  string `json:"category,omitempty"`
	Page      int64  `json:"page"`
	Limit     int64  `json:"limit"`
}

type GetLeaderboardResponse struct {
	Entries    []LeaderboardEntry `json:"entries"`
	Pagination Pagination         `json:"pagination"`
}

type LeaderboardEntry struct {
	UserID           string `json:"userId"`
	Rank             int32  `json:"rank"`
	PreviousRank     int32  `json:"previousRank"`
	TotalScore       int64  `json:"totalScore"`
	ChallengesSolved int32  `json:"challengesSolved"`
	CurrentStreak    int32  `json:"currentStreak"`
	LongestStreak    int32  `json:"longestStreak"`
}

type Pagination struct {
	Page       int64 `json:"page"`
	Limit      int64 `json:"limit"`
	TotalCount int64 `json:"totalCount"`
}

type GetUserRankResponse struct {
	Stats *UserStats `json:"stats"`
	Rank  int32      `json:"rank"`
}
