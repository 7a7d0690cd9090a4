package cache

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const boardKey = "leaderboard:global"

// BoardMember is one user's sorted-set entry.
type BoardMember struct {
	UserID           string
	TotalScore       int64
	ChallengesSolved int32
	CurrentStreak    int32
}

// Board mirrors the global leaderboard in a Redis sorted set for fast top-K
// reads. Mongo remains the source of truth; the board is rebuilt on every
// rank recomputation and repaired by the hourly cron sync. It is not a rank
// authority: members with equal composite scores carry no order inside the
// set, while the recomputation breaks such ties by account age.
type Board struct {
	client *redis.Client
}

func NewBoard(client *redis.Client) *Board {
	return &Board{client: client}
}

// EncodeScore packs (totalScore, solved, streak) into a single float so
// distinct tuples order like the three-key comparison; equal tuples collapse
// to the same score and the set assigns them no meaningful order. Solved and
// streak each get four decimal digits; the packed integer stays well below
// 2^53 so the float64 score is exact.
func EncodeScore(totalScore int64, solved, streak int32) float64 {
	s := int64(solved)
	if s > 9999 {
		s = 9999
	}
	st := int64(streak)
	if st > 9999 {
		st = 9999
	}
	return float64(totalScore*1e8 + s*1e4 + st)
}

// DecodeScore unpacks a board score back into its three components.
func DecodeScore(score float64) (totalScore int64, solved, streak int32) {
	c := int64(score)
	return c / 1e8, int32((c / 1e4) % 1e4), int32(c % 1e4)
}

// Rebuild atomically replaces the whole board.
func (b *Board) Rebuild(ctx context.Context, members []BoardMember) error {
	pipe := b.client.TxPipeline()
	pipe.Del(ctx, boardKey)
	if len(members) > 0 {
		zs := make([]*redis.Z, len(members))
		for i, m := range members {
			zs[i] = &redis.Z{
				Score:  EncodeScore(m.TotalScore, m.ChallengesSolved, m.CurrentStreak),
				Member: m.UserID,
			}
		}
		pipe.ZAdd(ctx, boardKey, zs...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to rebuild leaderboard board: %w", err)
	}
	return nil
}

// TopK returns the best k members, highest composite score first.
func (b *Board) TopK(ctx context.Context, k int64) ([]BoardMember, error) {
	zs, err := b.client.ZRevRangeWithScores(ctx, boardKey, 0, k-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read top %d from board: %w", k, err)
	}
	members := make([]BoardMember, len(zs))
	for i, z := range zs {
		id, _ := z.Member.(string)
		total, solved, streak := DecodeScore(z.Score)
		members[i] = BoardMember{
			UserID:           id,
			TotalScore:       total,
			ChallengesSolved: solved,
			CurrentStreak:    streak,
		}
	}
	return members, nil
}
