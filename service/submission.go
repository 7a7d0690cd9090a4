package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"collegeconnect/model"
	"collegeconnect/repository"
	"collegeconnect/utils"

	"github.com/google/uuid"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc/codes"
)

const statsSaveRetries = 3

// SubmitSolution runs a user's code against a challenge's test cases,
// persists the submission, and drives every downstream aggregate: challenge
// stats, user stats with streaks and achievements, and the leaderboard.
//
// The submission record is the durable source of truth. Once it is inserted,
// failures in the aggregate updates are logged and left for the resync paths
// to repair; they never discard the submission or fail the request.
func (s *ChallengeService) SubmitSolution(ctx context.Context, req *model.SubmitSolutionRequest) (*model.SubmitSolutionResponse, error) {
	traceID := uuid.New().String()
	s.logger.Log(zapcore.InfoLevel, traceID, "Starting SubmitSolution", map[string]any{
		"method":      "SubmitSolution",
		"userId":      req.UserID,
		"challengeId": req.ChallengeID,
		"language":    req.Language,
	}, "SERVICE", nil)

	if req.UserID == "" || req.ChallengeID == "" {
		return nil, s.createGrpcError(codes.InvalidArgument, "User ID and challenge ID are required", "VALIDATION_ERROR", nil)
	}
	if req.Code == "" || req.Language == "" {
		return nil, s.createGrpcError(codes.InvalidArgument, "Code and language are required", "VALIDATION_ERROR", nil)
	}
	language := utils.NormalizeLanguage(req.Language)

	challenge, err := s.RepoConnInstance.GetChallenge(ctx, req.ChallengeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.createGrpcError(codes.NotFound, "Challenge not found", "NOT_FOUND", err)
		}
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to fetch challenge", map[string]any{
			"method":      "SubmitSolution",
			"challengeId": req.ChallengeID,
			"errorType":   "DB_ERROR",
		}, "SERVICE", err)
		return nil, s.createGrpcError(codes.Internal, "Failed to fetch challenge", "DB_ERROR", err)
	}
	if !challenge.IsActive || !challenge.IsPublished {
		return nil, s.createGrpcError(codes.NotFound, "Challenge not found", "NOT_FOUND", nil)
	}
	// an all-pass verdict over zero test cases would be vacuously true
	if len(challenge.TestCases) == 0 {
		return nil, s.createGrpcError(codes.FailedPrecondition, "Challenge has no test cases", "NO_TEST_CASES", nil)
	}

	// optimistic pre-check; the partial unique index is the authority
	alreadySolved, err := s.RepoConnInstance.HasAcceptedSubmission(ctx, req.UserID, req.ChallengeID)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to check prior submissions", map[string]any{
			"method":      "SubmitSolution",
			"userId":      req.UserID,
			"challengeId": req.ChallengeID,
			"errorType":   "DB_ERROR",
		}, "SERVICE", err)
		return nil, s.createGrpcError(codes.Internal, "Failed to check prior submissions", "DB_ERROR", err)
	}
	if alreadySolved {
		return nil, s.createGrpcError(codes.FailedPrecondition, "Challenge already solved", "ALREADY_SOLVED", nil)
	}

	start := time.Now()
	results := make([]model.TestCaseResult, 0, len(challenge.TestCases))
	isCorrect := true
	var memoryUsed float64
	for _, tc := range challenge.TestCases {
		res, err := s.Runner.RunTestCase(ctx, req.Code, language, tc.Input, tc.ExpectedOutput)
		if err != nil {
			s.logger.Log(zapcore.ErrorLevel, traceID, "Test case execution failed", map[string]any{
				"method":      "SubmitSolution",
				"challengeId": req.ChallengeID,
				"errorType":   "EXECUTION_ERROR",
			}, "SERVICE", err)
			return nil, s.createGrpcError(codes.Internal, "Failed to execute test cases", "EXECUTION_ERROR", err)
		}
		if !res.Passed {
			isCorrect = false
		}
		if res.MemoryUsedMB > memoryUsed {
			memoryUsed = res.MemoryUsedMB
		}
		results = append(results, model.TestCaseResult{
			Passed:        res.Passed,
			ActualOutput:  res.Output,
			ExecutionTime: res.ExecTimeMs,
			MemoryUsed:    res.MemoryUsedMB,
		})
	}
	timeTaken := time.Since(start).Minutes()

	submission := &model.Submission{
		UserID:      req.UserID,
		ChallengeID: req.ChallengeID,
		Code:        req.Code,
		Language:    language,
		Status:      model.StatusWrongAnswer,
		TimeTaken:   timeTaken,
		MemoryUsed:  memoryUsed,
		TestResults: results,
		IsCorrect:   isCorrect,
		SubmittedAt: time.Now(),
	}
	if isCorrect {
		submission.Status = model.StatusAccepted
	} else {
		submission.ErrorMessage = "Wrong Answer"
	}

	if err := s.RepoConnInstance.InsertSubmission(ctx, submission); err != nil {
		if errors.Is(err, repository.ErrDuplicateSolve) {
			return nil, s.createGrpcError(codes.FailedPrecondition, "Challenge already solved", "ALREADY_SOLVED", err)
		}
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to persist submission", map[string]any{
			"method":      "SubmitSolution",
			"userId":      req.UserID,
			"challengeId": req.ChallengeID,
			"errorType":   "DB_ERROR",
		}, "SERVICE", err)
		return nil, s.createGrpcError(codes.Internal, "Failed to persist submission", "DB_ERROR", err)
	}

	if isCorrect {
		submission.Score = ComputeScore(challenge.Points, timeTaken, memoryUsed, true)
		if err := s.RepoConnInstance.SetSubmissionScore(ctx, submission.ID, submission.Score); err != nil {
			s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to persist submission score", map[string]any{
				"method":       "SubmitSolution",
				"submissionId": submission.ID.Hex(),
				"errorType":    "DB_ERROR",
			}, "SERVICE", err)
		}
	}

	// downstream aggregates, best effort from here on
	challenge.UpdateStats(isCorrect, timeTaken)
	if err := s.RepoConnInstance.ApplyChallengeStats(ctx, challenge); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to update challenge stats", map[string]any{
			"method":      "SubmitSolution",
			"challengeId": req.ChallengeID,
			"errorType":   "DB_ERROR",
		}, "SERVICE", err)
	}

	if err := s.updateUserStats(ctx, challenge, submission); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to update user stats", map[string]any{
			"method":    "SubmitSolution",
			"userId":    req.UserID,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
	}

	if isCorrect {
		s.RequestRankRecompute(ctx, traceID)
	}

	s.invalidateSubmissionCaches(ctx, traceID, req.UserID, req.ChallengeID)

	s.logger.Log(zapcore.InfoLevel, traceID, "Submission processed", map[string]any{
		"method":      "SubmitSolution",
		"userId":      req.UserID,
		"challengeId": req.ChallengeID,
		"status":      submission.Status,
		"score":       submission.Score,
	}, "SERVICE", nil)
	return &model.SubmitSolutionResponse{Submission: submission}, nil
}

// updateUserStats loads-or-creates the user's stats, applies the submission,
// and saves under the version CAS, reloading and reapplying on conflict.
func (s *ChallengeService) updateUserStats(ctx context.Context, challenge *model.Challenge, submission *model.Submission) error {
	var lastErr error
	for attempt := 0; attempt < statsSaveRetries; attempt++ {
		stats, err := s.RepoConnInstance.GetUserStats(ctx, submission.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			stats = model.NewUserStats(submission.UserID, submission.SubmittedAt)
		} else if err != nil {
			return err
		}

		applySubmissionToStats(stats, challenge, submission)

		err = s.RepoConnInstance.SaveUserStats(ctx, stats)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("user stats save exhausted retries: %w", lastErr)
}

// applySubmissionToStats folds one submission into the aggregate counters,
// the streak, and the achievement sequence.
func applySubmissionToStats(stats *model.UserStats, challenge *model.Challenge, submission *model.Submission) {
	if stats.CategoryStats == nil {
		stats.CategoryStats = map[string]model.CategoryStat{}
	}
	if stats.DifficultyStats == nil {
		stats.DifficultyStats = map[string]model.DifficultyStat{}
	}

	stats.ChallengesAttempted++
	cat := stats.CategoryStats[challenge.Category]
	cat.Attempted++
	diff := stats.DifficultyStats[challenge.Difficulty]
	diff.Attempted++

	if submission.IsCorrect {
		stats.ChallengesSolved++
		stats.TotalScore += int64(submission.Score)
		cat.Solved++
		cat.Score += int64(submission.Score)
		diff.Solved++
		diff.Score += int64(submission.Score)
		AdvanceStreak(stats, submission.SubmittedAt)
	}

	stats.CategoryStats[challenge.Category] = cat
	stats.DifficultyStats[challenge.Difficulty] = diff

	EvaluateAchievements(stats, submission.SubmittedAt)
}

func (s *ChallengeService) invalidateSubmissionCaches(ctx context.Context, traceID, userID, challengeID string) {
	patterns := []string{
		fmt.Sprintf("submissions:%s:*", userID),
		"leaderboard:*",
	}
	for _, pattern := range patterns {
		if err := s.RedisCacheClient.DeletePattern(ctx, pattern); err != nil {
			s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to delete cache pattern", map[string]any{
				"method":    "SubmitSolution",
				"pattern":   pattern,
				"errorType": "CACHE_ERROR",
			}, "SERVICE", err)
		}
	}
	keys := []string{
		fmt.Sprintf("stats:%s", userID),
		fmt.Sprintf("challenge:%s", challengeID),
	}
	if err := s.RedisCacheClient.Delete(ctx, keys...); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to delete cache", map[string]any{
			"method":    "SubmitSolution",
			"keys":      keys,
			"errorType": "CACHE_ERROR",
		}, "SERVICE", err)
	}
}
