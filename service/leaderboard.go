package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"collegeconnect/cache"
	"collegeconnect/model"
	"collegeconnect/repository"
	"collegeconnect/utils"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc/codes"
)

// Subscriber consumes the rank recomputation signal.
type Subscriber interface {
	Subscribe(subject string, handler func(*nats.Msg)) (*nats.Subscription, error)
}

// RecomputeRanks rebuilds the total order over all user stats by
// (totalScore desc, challengesSolved desc, currentStreak desc) with stable
// creation-order tie-break, persists rank/previousRank for every user whose
// position moved, and refreshes the Redis board. Unchanged ranks are not
// rewritten.
func (s *ChallengeService) RecomputeRanks(ctx context.Context) error {
	traceID := uuid.New().String()
	startedAt := time.Now()

	all, err := s.RepoConnInstance.ListAllStatsOrdered(ctx)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to load user stats for ranking", map[string]any{
			"method":    "RecomputeRanks",
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return err
	}

	now := time.Now()
	changed := 0
	members := make([]cache.BoardMember, len(all))
	for i, stats := range all {
		newRank := int32(i + 1)
		members[i] = cache.BoardMember{
			UserID:           stats.UserID,
			TotalScore:       stats.TotalScore,
			ChallengesSolved: stats.ChallengesSolved,
			CurrentStreak:    stats.CurrentStreak,
		}
		if stats.Rank == newRank {
			continue
		}
		if err := s.RepoConnInstance.UpdateUserRank(ctx, stats.ID, newRank, stats.Rank, now); err != nil {
			s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to persist rank change", map[string]any{
				"method":    "RecomputeRanks",
				"userId":    stats.UserID,
				"newRank":   newRank,
				"errorType": "DB_ERROR",
			}, "SERVICE", err)
			continue
		}
		changed++
	}

	if err := s.LB.Rebuild(ctx, members); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to rebuild Redis board", map[string]any{
			"method":    "RecomputeRanks",
			"errorType": "CACHE_ERROR",
		}, "SERVICE", err)
	}

	s.logger.Log(zapcore.InfoLevel, traceID, "Rank recomputation completed", map[string]any{
		"method":   "RecomputeRanks",
		"users":    len(all),
		"changed":  changed,
		"duration": time.Since(startedAt).String(),
	}, "SERVICE", nil)
	return nil
}

// SyncLeaderboardToRedis rebuilds the Redis board from the Mongo truth.
func (s *ChallengeService) SyncLeaderboardToRedis(ctx context.Context) error {
	all, err := s.RepoConnInstance.ListAllStatsOrdered(ctx)
	if err != nil {
		return err
	}
	members := make([]cache.BoardMember, len(all))
	for i, stats := range all {
		members[i] = cache.BoardMember{
			UserID:           stats.UserID,
			TotalScore:       stats.TotalScore,
			ChallengesSolved: stats.ChallengesSolved,
			CurrentStreak:    stats.CurrentStreak,
		}
	}
	return s.LB.Rebuild(ctx, members)
}

type rankSignal struct {
	TraceID     string    `json:"traceId"`
	RequestedAt time.Time `json:"requestedAt"`
}

// RequestRankRecompute publishes the "rank recomputation requested" signal.
// If the signal cannot be published, the recomputation runs inline so the
// leaderboard still converges.
func (s *ChallengeService) RequestRankRecompute(ctx context.Context, traceID string) {
	payload, _ := json.Marshal(rankSignal{TraceID: traceID, RequestedAt: time.Now()})
	if err := s.NatsClient.Publish(s.RankSubject, payload); err != nil {
		s.logger.Log(zapcore.WarnLevel, traceID, "Rank signal publish failed, recomputing inline", map[string]any{
			"method":  "RequestRankRecompute",
			"subject": s.RankSubject,
		}, "SERVICE", err)
		s.RecomputeRanks(ctx)
	}
}

// StartRankConsumer subscribes to the rank signal and drains it through a
// coalescing channel: a burst of accepted submissions triggers one
// recomputation, bounding the staleness window without a recompute per
// message.
func (s *ChallengeService) StartRankConsumer(sub Subscriber) error {
	_, err := sub.Subscribe(s.RankSubject, func(msg *nats.Msg) {
		select {
		case s.rankPending <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	go func() {
		for range s.rankPending {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			s.RecomputeRanks(ctx)
			cancel()
		}
	}()
	return nil
}

// GetLeaderboard serves the ranked entries for the requested view: all-time
// global, a category board, or a weekly/monthly window derived from the
// submission log.
func (s *ChallengeService) GetLeaderboard(ctx context.Context, req *model.GetLeaderboardRequest) (*model.GetLeaderboardResponse, error) {
	traceID := uuid.New().String()
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 20
	}
	if req.Limit > 100 {
		req.Limit = 100
	}

	if req.Category != "" {
		category := utils.NormalizeCategory(req.Category)
		if !model.ValidCategory(category) {
			return nil, s.createGrpcError(codes.InvalidArgument, "Unknown category", "VALIDATION_ERROR", nil)
		}
		return s.categoryLeaderboard(ctx, traceID, category, req.Page, req.Limit)
	}

	switch req.Timeframe {
	case "", model.TimeframeAllTime:
		return s.globalLeaderboard(ctx, traceID, req.Page, req.Limit)
	case model.TimeframeWeekly:
		return s.timeframeLeaderboard(ctx, traceID, time.Now().AddDate(0, 0, -7), req.Page, req.Limit)
	case model.TimeframeMonthly:
		return s.timeframeLeaderboard(ctx, traceID, time.Now().AddDate(0, -1, 0), req.Page, req.Limit)
	default:
		return nil, s.createGrpcError(codes.InvalidArgument, "Unknown timeframe", "VALIDATION_ERROR", nil)
	}
}

func (s *ChallengeService) globalLeaderboard(ctx context.Context, traceID string, page, limit int64) (*model.GetLeaderboardResponse, error) {
	cacheKey := fmt.Sprintf("leaderboard:global:%d:%d", page, limit)
	if cached, hit, err := s.RedisCacheClient.Get(ctx, cacheKey); err == nil && hit {
		var resp model.GetLeaderboardResponse
		if err := json.Unmarshal([]byte(cached), &resp); err == nil {
			return &resp, nil
		}
	}

	stats, total, err := s.RepoConnInstance.ListStatsPage(ctx, page, limit)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to load leaderboard page", map[string]any{
			"method":    "GetLeaderboard",
			"page":      page,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return nil, s.createGrpcError(codes.Internal, "Failed to load leaderboard", "DB_ERROR", err)
	}

	entries := make([]model.LeaderboardEntry, len(stats))
	for i, st := range stats {
		rank := st.Rank
		if rank == 0 {
			// not ranked since the last recomputation; position is exact
			rank = int32((page-1)*limit + int64(i) + 1)
		}
		entries[i] = model.LeaderboardEntry{
			UserID:           st.UserID,
			Rank:             rank,
			PreviousRank:     st.PreviousRank,
			TotalScore:       st.TotalScore,
			ChallengesSolved: st.ChallengesSolved,
			CurrentStreak:    st.CurrentStreak,
			LongestStreak:    st.LongestStreak,
		}
	}
	resp := &model.GetLeaderboardResponse{
		Entries:    entries,
		Pagination: model.Pagination{Page: page, Limit: limit, TotalCount: total},
	}
	s.cacheResponse(ctx, traceID, cacheKey, resp, 5*time.Second)
	return resp, nil
}

func (s *ChallengeService) categoryLeaderboard(ctx context.Context, traceID, category string, page, limit int64) (*model.GetLeaderboardResponse, error) {
	cacheKey := fmt.Sprintf("leaderboard:category:%s:%d:%d", category, page, limit)
	if cached, hit, err := s.RedisCacheClient.Get(ctx, cacheKey); err == nil && hit {
		var resp model.GetLeaderboardResponse
		if err := json.Unmarshal([]byte(cached), &resp); err == nil {
			return &resp, nil
		}
	}

	stats, total, err := s.RepoConnInstance.CategoryLeaderboard(ctx, category, page, limit)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to load category leaderboard", map[string]any{
			"method":    "GetLeaderboard",
			"category":  category,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return nil, s.createGrpcError(codes.Internal, "Failed to load leaderboard", "DB_ERROR", err)
	}

	entries := make([]model.LeaderboardEntry, len(stats))
	for i, st := range stats {
		catStat := st.CategoryStats[category]
		entries[i] = model.LeaderboardEntry{
			UserID:           st.UserID,
			Rank:             int32((page-1)*limit + int64(i) + 1),
			PreviousRank:     st.PreviousRank,
			TotalScore:       catStat.Score,
			ChallengesSolved: catStat.Solved,
			CurrentStreak:    st.CurrentStreak,
			LongestStreak:    st.LongestStreak,
		}
	}
	resp := &model.GetLeaderboardResponse{
		Entries:    entries,
		Pagination: model.Pagination{Page: page, Limit: limit, TotalCount: total},
	}
	s.cacheResponse(ctx, traceID, cacheKey, resp, 5*time.Second)
	return resp, nil
}

func (s *ChallengeService) timeframeLeaderboard(ctx context.Context, traceID string, since time.Time, page, limit int64) (*model.GetLeaderboardResponse, error) {
	rows, err := s.RepoConnInstance.AggregateTimeframeLeaderboard(ctx, since, page, limit)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to aggregate timeframe leaderboard", map[string]any{
			"method":    "GetLeaderboard",
			"since":     since,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return nil, s.createGrpcError(codes.Internal, "Failed to load leaderboard", "DB_ERROR", err)
	}
	total, err := s.RepoConnInstance.CountTimeframeSolvers(ctx, since)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to count timeframe solvers", map[string]any{
			"method":    "GetLeaderboard",
			"since":     since,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return nil, s.createGrpcError(codes.Internal, "Failed to load leaderboard", "DB_ERROR", err)
	}

	entries := make([]model.LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = model.LeaderboardEntry{
			UserID:           row.UserID,
			Rank:             int32((page-1)*limit + int64(i) + 1),
			TotalScore:       row.Score,
			ChallengesSolved: int32(row.Solved),
		}
	}
	return &model.GetLeaderboardResponse{
		Entries:    entries,
		Pagination: model.Pagination{Page: page, Limit: limit, TotalCount: total},
	}, nil
}

// GetStreakLeaderboard orders active streak holders by current then longest
// streak.
func (s *ChallengeService) GetStreakLeaderboard(ctx context.Context, page, limit int64) (*model.GetLeaderboardResponse, error) {
	traceID := uuid.New().String()
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	stats, total, err := s.RepoConnInstance.StreakLeaderboard(ctx, page, limit)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to load streak leaderboard", map[string]any{
			"method":    "GetStreakLeaderboard",
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return nil, s.createGrpcError(codes.Internal, "Failed to load leaderboard", "DB_ERROR", err)
	}
	entries := make([]model.LeaderboardEntry, len(stats))
	for i, st := range stats {
		entries[i] = model.LeaderboardEntry{
			UserID:           st.UserID,
			Rank:             int32((page-1)*limit + int64(i) + 1),
			PreviousRank:     st.PreviousRank,
			TotalScore:       st.TotalScore,
			ChallengesSolved: st.ChallengesSolved,
			CurrentStreak:    st.CurrentStreak,
			LongestStreak:    st.LongestStreak,
		}
	}
	return &model.GetLeaderboardResponse{
		Entries:    entries,
		Pagination: model.Pagination{Page: page, Limit: limit, TotalCount: total},
	}, nil
}

// GetUserRank returns a user's stats and 1-based rank: the rank persisted by
// the last recomputation when one exists, otherwise a count of users strictly
// ahead under the same three-key comparison, plus one. Both paths break ties
// the way RecomputeRanks does, so the answer always agrees with the rank
// field served by GetLeaderboard.
func (s *ChallengeService) GetUserRank(ctx context.Context, userID string) (*model.GetUserRankResponse, error) {
	traceID := uuid.New().String()
	if userID == "" {
		return nil, s.createGrpcError(codes.InvalidArgument, "User ID is required", "VALIDATION_ERROR", nil)
	}

	stats, err := s.RepoConnInstance.GetUserStats(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.createGrpcError(codes.NotFound, "User stats not found", "NOT_FOUND", err)
		}
		return nil, s.createGrpcError(codes.Internal, "Failed to load user stats", "DB_ERROR", err)
	}

	if stats.Rank > 0 {
		return &model.GetUserRankResponse{Stats: stats, Rank: stats.Rank}, nil
	}
	s.logger.Log(zapcore.InfoLevel, traceID, "No persisted rank yet, counting users ahead", map[string]any{
		"method": "GetUserRank",
		"userId": userID,
	}, "SERVICE", nil)

	ahead, err := s.RepoConnInstance.CountUsersAhead(ctx, stats)
	if err != nil {
		return nil, s.createGrpcError(codes.Internal, "Failed to compute user rank", "DB_ERROR", err)
	}
	return &model.GetUserRankResponse{Stats: stats, Rank: int32(ahead) + 1}, nil
}

func (s *ChallengeService) cacheResponse(ctx context.Context, traceID, cacheKey string, payload any, ttl time.Duration) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to marshal cache payload", map[string]any{
			"method":    "cacheResponse",
			"cacheKey":  cacheKey,
			"errorType": "MARSHAL_ERROR",
		}, "SERVICE", err)
		return
	}
	if err := s.RedisCacheClient.Set(ctx, cacheKey, data, ttl); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to cache payload", map[string]any{
			"method":    "cacheResponse",
			"cacheKey":  cacheKey,
			"errorType": "CACHE_ERROR",
		}, "SERVICE", err)
	}
}
