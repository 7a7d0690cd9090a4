package service

import (
	"context"
	"fmt"
	"time"

	"collegeconnect/cache"
	"collegeconnect/judge"
	"collegeconnect/logger"
	"collegeconnect/model"
	"collegeconnect/repository"

	"github.com/google/uuid"
	cron "github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Store is the entity-store surface the service depends on. Implemented by
// *repository.Repository; faked in tests.
type Store interface {
	CreateChallenge(ctx context.Context, req *model.CreateChallengeRequest) (*model.Challenge, error)
	UpdateChallenge(ctx context.Context, req *model.UpdateChallengeRequest) error
	DeactivateChallenge(ctx context.Context, challengeID string) error
	GetChallenge(ctx context.Context, challengeID string) (*model.Challenge, error)
	ListChallenges(ctx context.Context, req *model.ListChallengesRequest) (*model.ListChallengesResponse, error)
	AddTestCases(ctx context.Context, challengeID string, testCases []model.TestCase) error
	ApplyChallengeStats(ctx context.Context, challenge *model.Challenge) error

	InsertSubmission(ctx context.Context, submission *model.Submission) error
	SetSubmissionScore(ctx context.Context, submissionID primitive.ObjectID, score int32) error
	HasAcceptedSubmission(ctx context.Context, userID, challengeID string) (bool, error)
	ListSubmissions(ctx context.Context, userID, challengeID string, page, pageSize int64) ([]model.Submission, int64, error)

	GetUserStats(ctx context.Context, userID string) (*model.UserStats, error)
	SaveUserStats(ctx context.Context, stats *model.UserStats) error
	ListAllStatsOrdered(ctx context.Context) ([]model.UserStats, error)
	ListStatsPage(ctx context.Context, page, limit int64) ([]model.UserStats, int64, error)
	UpdateUserRank(ctx context.Context, statsID primitive.ObjectID, newRank, previousRank int32, at time.Time) error
	CountUsersAhead(ctx context.Context, stats *model.UserStats) (int64, error)
	CategoryLeaderboard(ctx context.Context, category string, page, limit int64) ([]model.UserStats, int64, error)
	StreakLeaderboard(ctx context.Context, page, limit int64) ([]model.UserStats, int64, error)
	AggregateTimeframeLeaderboard(ctx context.Context, since time.Time, page, limit int64) ([]repository.TimeframeScore, error)
	CountTimeframeSolvers(ctx context.Context, since time.Time) (int64, error)
}

// Notifier publishes the rank recomputation signal.
type Notifier interface {
	Publish(subject string, data []byte) error
}

// Board is the Redis sorted-set fast path for top-K reads. Rank reads stay
// on Mongo: tied composite scores carry no order inside the sorted set, so
// only the persisted ranks agree with the recomputation's tie-break.
type Board interface {
	Rebuild(ctx context.Context, members []cache.BoardMember) error
	TopK(ctx context.Context, k int64) ([]cache.BoardMember, error)
}

// ChallengeService orchestrates challenge submissions, scoring, streaks,
// achievements, and the leaderboard.
type ChallengeService struct {
	RepoConnInstance Store
	NatsClient       Notifier
	RedisCacheClient cache.Cache
	LB               Board
	Runner           judge.Runner
	RankSubject      string
	logger           *logger.LogStreamer

	rankPending chan struct{}
}

func NewService(repo Store, nats Notifier, redisCache cache.Cache, board Board, runner judge.Runner, rankSubject string, log *logger.LogStreamer) *ChallengeService {
	traceID := uuid.New().String()
	svc := &ChallengeService{
		RepoConnInstance: repo,
		NatsClient:       nats,
		RedisCacheClient: redisCache,
		LB:               board,
		Runner:           runner,
		RankSubject:      rankSubject,
		logger:           log,
		rankPending:      make(chan struct{}, 1),
	}
	// seed the Redis board from Mongo during initialization
	if err := svc.SyncLeaderboardToRedis(context.Background()); err != nil {
		svc.logger.Log(zapcore.ErrorLevel, traceID, "Failed to sync leaderboard during service initialization", map[string]any{
			"method":    "NewService",
			"errorType": "LEADERBOARD_SYNC_FAILED",
		}, "SERVICE", err)
	}
	svc.logger.Log(zapcore.InfoLevel, traceID, "ChallengeService initialized", map[string]any{
		"method": "NewService",
	}, "SERVICE", nil)
	return svc
}

// StartCronJob schedules the hourly leaderboard resync that repairs drift
// between the Mongo truth and the Redis board.
func (s *ChallengeService) StartCronJob() {
	c := cron.New()

	c.AddFunc("@every 1h", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.logger.Log(zapcore.InfoLevel, "", "Syncing user stats and Redis board", map[string]any{
			"method": "SYNC LEADERBOARD CRON JOB",
		}, "SERVICE", nil)
		if err := s.SyncLeaderboardToRedis(ctx); err != nil {
			s.logger.Log(zapcore.ErrorLevel, "", "Failed to sync leaderboard", map[string]any{
				"method":    "SYNC LEADERBOARD CRON JOB",
				"errorType": "LEADERBOARD_SYNC_FAILED",
			}, "SERVICE", err)
		}
	})

	c.Start() // does not block
}

// createGrpcError constructs a gRPC status error carrying the taxonomy tag.
func (s *ChallengeService) createGrpcError(code codes.Code, message string, errorType string, cause error) error {
	traceID := uuid.New().String()
	details := message
	if cause != nil {
		details = cause.Error()
	}
	s.logger.Log(zapcore.ErrorLevel, traceID, "Creating gRPC error", map[string]any{
		"method":    "createGrpcError",
		"code":      code,
		"errorType": errorType,
		"details":   details,
	}, "SERVICE", nil)
	return status.Error(code, fmt.Sprintf("ErrorType: %s, Code: %d, Details: %s", errorType, code, details))
}
