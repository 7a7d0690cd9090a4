package repository

import (
	"context"
	"fmt"
	"time"

	"collegeconnect/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// three-key leaderboard order, ties broken by creation order
var statsSortOrder = bson.D{
	{Key: "totalScore", Value: -1},
	{Key: "challengesSolved", Value: -1},
	{Key: "currentStreak", Value: -1},
	{Key: "created_at", Value: 1},
	{Key: "_id", Value: 1},
}

func (r *Repository) GetUserStats(ctx context.Context, userID string) (*model.UserStats, error) {
	var stats model.UserStats
	err := r.userStats.FindOne(ctx, bson.M{"userId": userID}).Decode(&stats)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// SaveUserStats persists the stats document with optimistic concurrency. A
// fresh document (zero ID) is inserted at version 1; an existing one is
// replaced only if the stored version still matches, otherwise
// ErrVersionConflict tells the caller to reload and reapply.
func (r *Repository) SaveUserStats(ctx context.Context, stats *model.UserStats) error {
	now := time.Now()
	stats.UpdatedAt = now

	if stats.ID.IsZero() {
		stats.Version = 1
		res, err := r.userStats.InsertOne(ctx, stats)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrVersionConflict
			}
			return err
		}
		stats.ID = res.InsertedID.(primitive.ObjectID)
		return nil
	}

	prevVersion := stats.Version
	stats.Version = prevVersion + 1
	result, err := r.userStats.ReplaceOne(ctx,
		bson.M{"_id": stats.ID, "version": prevVersion},
		stats,
	)
	if err != nil {
		stats.Version = prevVersion
		return err
	}
	if result.MatchedCount == 0 {
		stats.Version = prevVersion
		return ErrVersionConflict
	}
	return nil
}

// ListAllStatsOrdered loads every stats document in leaderboard order.
func (r *Repository) ListAllStatsOrdered(ctx context.Context) ([]model.UserStats, error) {
	cursor, err := r.userStats.Find(ctx, bson.M{}, options.Find().SetSort(statsSortOrder))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	stats := []model.UserStats{}
	if err = cursor.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// ListStatsPage returns one leaderboard page plus the total entry count.
func (r *Repository) ListStatsPage(ctx context.Context, page, limit int64) ([]model.UserStats, int64, error) {
	opts := options.Find().
		SetSort(statsSortOrder).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cursor, err := r.userStats.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)
	stats := []model.UserStats{}
	if err = cursor.All(ctx, &stats); err != nil {
		return nil, 0, err
	}
	total, err := r.userStats.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	return stats, total, nil
}

// UpdateUserRank records a rank change computed by the ranker. Scoped to the
// single document; version is bumped so a concurrent pipeline save retries
// instead of overwriting the rank fields.
func (r *Repository) UpdateUserRank(ctx context.Context, statsID primitive.ObjectID, newRank, previousRank int32, at time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"rank":          newRank,
			"previousRank":  previousRank,
			"rankUpdatedAt": at,
		},
		"$inc": bson.M{"version": 1},
	}
	result, err := r.userStats.UpdateOne(ctx, bson.M{"_id": statsID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUsersAhead counts users strictly ahead of the given stats under the
// three-key comparison, counting equal tuples created earlier as ahead so
// the result matches the stable tie-break of the full recomputation.
func (r *Repository) CountUsersAhead(ctx context.Context, stats *model.UserStats) (int64, error) {
	filter := bson.M{"$or": []bson.M{
		{"totalScore": bson.M{"$gt": stats.TotalScore}},
		{"totalScore": stats.TotalScore, "challengesSolved": bson.M{"$gt": stats.ChallengesSolved}},
		{"totalScore": stats.TotalScore, "challengesSolved": stats.ChallengesSolved,
			"currentStreak": bson.M{"$gt": stats.CurrentStreak}},
		{"totalScore": stats.TotalScore, "challengesSolved": stats.ChallengesSolved,
			"currentStreak": stats.CurrentStreak,
			"created_at":    bson.M{"$lt": stats.CreatedAt}},
	}}
	return r.userStats.CountDocuments(ctx, filter)
}

// CategoryLeaderboard returns users with at least one solve in the category,
// ordered by that category's score then solved count.
func (r *Repository) CategoryLeaderboard(ctx context.Context, category string, page, limit int64) ([]model.UserStats, int64, error) {
	solvedField := fmt.Sprintf("categoryStats.%s.solved", category)
	scoreField := fmt.Sprintf("categoryStats.%s.score", category)
	filter := bson.M{solvedField: bson.M{"$gt": 0}}
	opts := options.Find().
		SetSort(bson.D{
			{Key: scoreField, Value: -1},
			{Key: solvedField, Value: -1},
			{Key: "created_at", Value: 1},
		}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cursor, err := r.userStats.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)
	stats := []model.UserStats{}
	if err = cursor.All(ctx, &stats); err != nil {
		return nil, 0, err
	}
	total, err := r.userStats.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return stats, total, nil
}

// StreakLeaderboard orders users by current then longest streak.
func (r *Repository) StreakLeaderboard(ctx context.Context, page, limit int64) ([]model.UserStats, int64, error) {
	filter := bson.M{"currentStreak": bson.M{"$gt": 0}}
	opts := options.Find().
		SetSort(bson.D{
			{Key: "currentStreak", Value: -1},
			{Key: "longestStreak", Value: -1},
			{Key: "created_at", Value: 1},
		}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cursor, err := r.userStats.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)
	stats := []model.UserStats{}
	if err = cursor.All(ctx, &stats); err != nil {
		return nil, 0, err
	}
	total, err := r.userStats.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return stats, total, nil
}

// TimeframeScore is one row of a windowed leaderboard aggregation.
type TimeframeScore struct {
	UserID string `bson:"_id"`
	Score  int64  `bson:"score"`
	Solved int64  `bson:"solved"`
}

// AggregateTimeframeLeaderboard sums accepted-submission scores since the
// cutoff, grouped per user. Windowed views are derived from the submission
// log rather than the all-time aggregates.
func (r *Repository) AggregateTimeframeLeaderboard(ctx context.Context, since time.Time, page, limit int64) ([]TimeframeScore, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"isCorrect":   true,
			"submittedAt": bson.M{"$gte": since},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":    "$userId",
			"score":  bson.M{"$sum": "$score"},
			"solved": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "score", Value: -1},
			{Key: "solved", Value: -1},
			{Key: "_id", Value: 1},
		}}},
		{{Key: "$skip", Value: (page - 1) * limit}},
		{{Key: "$limit", Value: limit}},
	}
	cursor, err := r.submissions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	rows := []TimeframeScore{}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// CountTimeframeSolvers counts the distinct users with at least one accepted
// submission since the cutoff, the total behind the windowed leaderboard's
// pagination.
func (r *Repository) CountTimeframeSolvers(ctx context.Context, since time.Time) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"isCorrect":   true,
			"submittedAt": bson.M{"$gte": since},
		}}},
		{{Key: "$group", Value: bson.M{"_id": "$userId"}}},
		{{Key: "$count", Value: "total"}},
	}
	cursor, err := r.submissions.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)
	counts := []struct {
		Total int64 `bson:"total"`
	}{}
	if err = cursor.All(ctx, &counts); err != nil {
		return 0, err
	}
	if len(counts) == 0 {
		return 0, nil
	}
	return counts[0].Total, nil
}
