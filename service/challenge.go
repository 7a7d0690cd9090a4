package service

import (
	"context"
	"encoding/json"
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

// CreateChallenge stores a new faculty-authored challenge.
func (s *ChallengeService) CreateChallenge(ctx context.Context, req *model.CreateChallengeRequest) (*model.Challenge, error) {
	traceID := uuid.New().String()
	s.logger.Log(zapcore.InfoLevel, traceID, "Starting CreateChallenge", map[string]any{
		"method": "CreateChallenge",
		"title":  req.Title,
	}, "SERVICE", nil)

	if req.Title == "" || req.Description == "" {
		return nil, s.createGrpcError(codes.InvalidArgument, "Title and description are required", "VALIDATION_ERROR", nil)
	}
	req.Category = utils.NormalizeCategory(req.Category)
	if !model.ValidCategory(req.Category) {
		return nil, s.createGrpcError(codes.InvalidArgument, "Unknown category", "VALIDATION_ERROR", nil)
	}
	if !model.ValidDifficulty(req.Difficulty) {
		return nil, s.createGrpcError(codes.InvalidArgument, "Unknown difficulty", "VALIDATION_ERROR", nil)
	}
	if req.Points < 1 || req.Points > 1000 {
		return nil, s.createGrpcError(codes.InvalidArgument, "Points must be between 1 and 1000", "VALIDATION_ERROR", nil)
	}
	if len(req.TestCases) == 0 {
		return nil, s.createGrpcError(codes.InvalidArgument, "At least one test case is required", "VALIDATION_ERROR", nil)
	}
	for _, tc := range req.TestCases {
		if tc.Input == "" || tc.ExpectedOutput == "" {
			return nil, s.createGrpcError(codes.InvalidArgument, "Test case input and expected output are required", "VALIDATION_ERROR", nil)
		}
	}

	challenge, err := s.RepoConnInstance.CreateChallenge(ctx, req)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to create challenge", map[string]any{
			"method":    "CreateChallenge",
			"title":     req.Title,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return nil, s.createGrpcError(codes.Internal, "Failed to create challenge", "DB_ERROR", err)
	}

	if err := s.RedisCacheClient.DeletePattern(ctx, "challenges_list:*"); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to delete cache", map[string]any{
			"method":    "CreateChallenge",
			"errorType": "CACHE_ERROR",
		}, "SERVICE", err)
	}

	s.logger.Log(zapcore.InfoLevel, traceID, "Challenge created successfully", map[string]any{
		"method":      "CreateChallenge",
		"challengeId": challenge.ID.Hex(),
	}, "SERVICE", nil)
	return challenge, nil
}

// UpdateChallenge edits challenge fields in place.
func (s *ChallengeService) UpdateChallenge(ctx context.Context, req *model.UpdateChallengeRequest) error {
	traceID := uuid.New().String()
	if req.ChallengeID == "" {
		return s.createGrpcError(codes.InvalidArgument, "Challenge ID is required", "VALIDATION_ERROR", nil)
	}
	if req.Difficulty != nil && !model.ValidDifficulty(*req.Difficulty) {
		return s.createGrpcError(codes.InvalidArgument, "Unknown difficulty", "VALIDATION_ERROR", nil)
	}
	if req.Points != nil && (*req.Points < 1 || *req.Points > 1000) {
		return s.createGrpcError(codes.InvalidArgument, "Points must be between 1 and 1000", "VALIDATION_ERROR", nil)
	}

	if err := s.RepoConnInstance.UpdateChallenge(ctx, req); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.createGrpcError(codes.NotFound, "Challenge not found", "NOT_FOUND", err)
		}
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to update challenge", map[string]any{
			"method":      "UpdateChallenge",
			"challengeId": req.ChallengeID,
			"errorType":   "DB_ERROR",
		}, "SERVICE", err)
		return s.createGrpcError(codes.Internal, "Failed to update challenge", "DB_ERROR", err)
	}

	s.invalidateChallengeCaches(ctx, traceID, req.ChallengeID)
	return nil
}

// DeleteChallenge soft-deletes a challenge; existing submissions keep
// referencing it.
func (s *ChallengeService) DeleteChallenge(ctx context.Context, challengeID string) error {
	traceID := uuid.New().String()
	if challengeID == "" {
		return s.createGrpcError(codes.InvalidArgument, "Challenge ID is required", "VALIDATION_ERROR", nil)
	}
	if err := s.RepoConnInstance.DeactivateChallenge(ctx, challengeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.createGrpcError(codes.NotFound, "Challenge not found", "NOT_FOUND", err)
		}
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to delete challenge", map[string]any{
			"method":      "DeleteChallenge",
			"challengeId": challengeID,
			"errorType":   "DB_ERROR",
		}, "SERVICE", err)
		return s.createGrpcError(codes.Internal, "Failed to delete challenge", "DB_ERROR", err)
	}
	s.invalidateChallengeCaches(ctx, traceID, challengeID)
	return nil
}

// GetChallenge serves one challenge, cache-aside, with hidden test cases
// redacted so graders' inputs never reach the client.
func (s *ChallengeService) GetChallenge(ctx context.Context, challengeID string) (*model.Challenge, error) {
	traceID := uuid.New().String()
	if challengeID == "" {
		return nil, s.createGrpcError(codes.InvalidArgument, "Challenge ID is required", "VALIDATION_ERROR", nil)
	}

	cacheKey := fmt.Sprintf("challenge:%s", challengeID)
	if cached, hit, err := s.RedisCacheClient.Get(ctx, cacheKey); err == nil && hit {
		var challenge model.Challenge
		if err := json.Unmarshal([]byte(cached), &challenge); err == nil {
			return &challenge, nil
		}
	}

	challenge, err := s.RepoConnInstance.GetChallenge(ctx, challengeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.createGrpcError(codes.NotFound, "Challenge not found", "NOT_FOUND", err)
		}
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to retrieve challenge", map[string]any{
			"method":      "GetChallenge",
			"challengeId": challengeID,
			"errorType":   "DB_ERROR",
		}, "SERVICE", err)
		return nil, s.createGrpcError(codes.Internal, "Failed to retrieve challenge", "DB_ERROR", err)
	}

	redacted := redactHiddenTestCases(challenge)
	s.cacheResponse(ctx, traceID, cacheKey, redacted, 5*time.Second)
	return redacted, nil
}

// ListChallenges serves a filtered, paginated challenge listing, cache-aside.
func (s *ChallengeService) ListChallenges(ctx context.Context, req *model.ListChallengesRequest) (*model.ListChallengesResponse, error) {
	traceID := uuid.New().String()
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 10
	}
	if req.Category != "" {
		req.Category = utils.NormalizeCategory(req.Category)
	}

	cacheKey := fmt.Sprintf("challenges_list:%s:%s:%s:%d:%d", req.Category, req.Difficulty, req.Search, req.Page, req.PageSize)
	if cached, hit, err := s.RedisCacheClient.Get(ctx, cacheKey); err == nil && hit {
		var resp model.ListChallengesResponse
		if err := json.Unmarshal([]byte(cached), &resp); err == nil {
			return &resp, nil
		}
	}

	resp, err := s.RepoConnInstance.ListChallenges(ctx, req)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to list challenges", map[string]any{
			"method":    "ListChallenges",
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return nil, s.createGrpcError(codes.Internal, "Failed to list challenges", "DB_ERROR", err)
	}
	for i := range resp.Challenges {
		resp.Challenges[i] = *redactHiddenTestCases(&resp.Challenges[i])
	}

	s.cacheResponse(ctx, traceID, cacheKey, resp, 5*time.Second)
	return resp, nil
}

// AddTestCases appends test cases to a challenge.
func (s *ChallengeService) AddTestCases(ctx context.Context, challengeID string, testCases []model.TestCase) error {
	traceID := uuid.New().String()
	if challengeID == "" {
		return s.createGrpcError(codes.InvalidArgument, "Challenge ID is required", "VALIDATION_ERROR", nil)
	}
	if len(testCases) == 0 {
		return s.createGrpcError(codes.InvalidArgument, "At least one test case is required", "VALIDATION_ERROR", nil)
	}
	for _, tc := range testCases {
		if tc.Input == "" || tc.ExpectedOutput == "" {
			return s.createGrpcError(codes.InvalidArgument, "Test case input and expected output are required", "VALIDATION_ERROR", nil)
		}
	}

	if err := s.RepoConnInstance.AddTestCases(ctx, challengeID, testCases); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.createGrpcError(codes.NotFound, "Challenge not found", "NOT_FOUND", err)
		}
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to add test cases", map[string]any{
			"method":      "AddTestCases",
			"challengeId": challengeID,
			"errorType":   "DB_ERROR",
		}, "SERVICE", err)
		return s.createGrpcError(codes.Internal, "Failed to add test cases", "DB_ERROR", err)
	}

	s.invalidateChallengeCaches(ctx, traceID, challengeID)
	return nil
}

// GetSubmissions lists a user's submissions, optionally for one challenge.
func (s *ChallengeService) GetSubmissions(ctx context.Context, userID, challengeID string, page, pageSize int64) ([]model.Submission, int64, error) {
	traceID := uuid.New().String()
	if userID == "" {
		return nil, 0, s.createGrpcError(codes.InvalidArgument, "User ID is required", "VALIDATION_ERROR", nil)
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	submissions, total, err := s.RepoConnInstance.ListSubmissions(ctx, userID, challengeID, page, pageSize)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to list submissions", map[string]any{
			"method":    "GetSubmissions",
			"userId":    userID,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return nil, 0, s.createGrpcError(codes.Internal, "Failed to list submissions", "DB_ERROR", err)
	}
	return submissions, total, nil
}

// GetUserStatsView serves the per-user stats projection behind the profile
// and analytics dashboards, cache-aside.
func (s *ChallengeService) GetUserStatsView(ctx context.Context, userID string) (*model.UserStats, error) {
	traceID := uuid.New().String()
	if userID == "" {
		return nil, s.createGrpcError(codes.InvalidArgument, "User ID is required", "VALIDATION_ERROR", nil)
	}

	cacheKey := fmt.Sprintf("stats:%s", userID)
	if cached, hit, err := s.RedisCacheClient.Get(ctx, cacheKey); err == nil && hit {
		var stats model.UserStats
		if err := json.Unmarshal([]byte(cached), &stats); err == nil {
			return &stats, nil
		}
	}

	stats, err := s.RepoConnInstance.GetUserStats(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.createGrpcError(codes.NotFound, "User stats not found", "NOT_FOUND", err)
		}
		return nil, s.createGrpcError(codes.Internal, "Failed to load user stats", "DB_ERROR", err)
	}

	s.cacheResponse(ctx, traceID, cacheKey, stats, 5*time.Second)
	return stats, nil
}

func (s *ChallengeService) invalidateChallengeCaches(ctx context.Context, traceID, challengeID string) {
	if err := s.RedisCacheClient.Delete(ctx, fmt.Sprintf("challenge:%s", challengeID)); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to delete cache", map[string]any{
			"method":      "invalidateChallengeCaches",
			"challengeId": challengeID,
			"errorType":   "CACHE_ERROR",
		}, "SERVICE", err)
	}
	if err := s.RedisCacheClient.DeletePattern(ctx, "challenges_list:*"); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to delete cache pattern", map[string]any{
			"method":    "invalidateChallengeCaches",
			"errorType": "CACHE_ERROR",
		}, "SERVICE", err)
	}
}

// redactHiddenTestCases blanks the payload of hidden test cases in a copy of
// the challenge.
func redactHiddenTestCases(challenge *model.Challenge) *model.Challenge {
	out := *challenge
	out.TestCases = make([]model.TestCase, len(challenge.TestCases))
	for i, tc := range challenge.TestCases {
		if tc.Hidden {
			out.TestCases[i] = model.TestCase{Hidden: true}
		} else {
			out.TestCases[i] = tc
		}
	}
	return &out
}
