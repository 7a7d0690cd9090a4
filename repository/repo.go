package repository

import (
	"context"
	"errors"
	"time"

	"collegeconnect/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when a referenced document does not resolve.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateSolve is returned when the unique index rejects a second
	// correct submission for the same (user, challenge) pair.
	ErrDuplicateSolve = errors.New("correct submission already exists")
	// ErrVersionConflict is returned when a stats write loses the
	// compare-and-swap on the version field.
	ErrVersionConflict = errors.New("user stats version conflict")
)

type Repository struct {
	client      *mongo.Client
	challenges  *mongo.Collection
	submissions *mongo.Collection
	userStats   *mongo.Collection
}

func NewRepository(client *mongo.Client) *Repository {
	db := client.Database("collegeconnect")
	return &Repository{
		client:      client,
		challenges:  db.Collection("challenges"),
		submissions: db.Collection("submissions"),
		userStats:   db.Collection("user_stats"),
	}
}

// EnsureIndexes creates the secondary indexes the pipeline relies on. The
// partial unique index on submissions is the backstop for the concurrent
// duplicate-solve race: two in-flight correct submissions cannot both land.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.submissions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "challengeId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"isCorrect": true}),
		},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "submittedAt", Value: -1}}},
		{Keys: bson.D{{Key: "challengeId", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = r.userStats.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{
			{Key: "totalScore", Value: -1},
			{Key: "challengesSolved", Value: -1},
			{Key: "currentStreak", Value: -1},
			{Key: "created_at", Value: 1},
		}},
	})
	if err != nil {
		return err
	}
	_, err = r.challenges.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "difficulty", Value: 1}}},
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "is_published", Value: 1}}},
	})
	return err
}

func (r *Repository) CreateChallenge(ctx context.Context, req *model.CreateChallengeRequest) (*model.Challenge, error) {
	now := time.Now()
	challenge := &model.Challenge{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Difficulty:  req.Difficulty,
		Points:      req.Points,
		TimeLimit:   req.TimeLimit,
		TestCases:   req.TestCases,
		CreatedBy:   req.CreatedBy,
		IsActive:    true,
		IsPublished: req.IsPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if challenge.TestCases == nil {
		challenge.TestCases = []model.TestCase{}
	}
	res, err := r.challenges.InsertOne(ctx, challenge)
	if err != nil {
		return nil, err
	}
	challenge.ID = res.InsertedID.(primitive.ObjectID)
	return challenge, nil
}

func (r *Repository) UpdateChallenge(ctx context.Context, req *model.UpdateChallengeRequest) error {
	id, err := primitive.ObjectIDFromHex(req.ChallengeID)
	if err != nil {
		return ErrNotFound
	}
	set := bson.M{"updated_at": time.Now()}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Difficulty != nil {
		set["difficulty"] = *req.Difficulty
	}
	if req.Points != nil {
		set["points"] = *req.Points
	}
	if req.TimeLimit != nil {
		set["time_limit"] = *req.TimeLimit
	}
	if req.IsPublished != nil {
		set["is_published"] = *req.IsPublished
	}
	result, err := r.challenges.UpdateOne(ctx, bson.M{"_id": id, "deleted_at": nil}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateChallenge soft-deletes a challenge.
func (r *Repository) DeactivateChallenge(ctx context.Context, challengeID string) error {
	id, err := primitive.ObjectIDFromHex(challengeID)
	if err != nil {
		return ErrNotFound
	}
	update := bson.M{"$set": bson.M{
		"is_active":  false,
		"deleted_at": time.Now(),
		"updated_at": time.Now(),
	}}
	result, err := r.challenges.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) GetChallenge(ctx context.Context, challengeID string) (*model.Challenge, error) {
	id, err := primitive.ObjectIDFromHex(challengeID)
	if err != nil {
		return nil, ErrNotFound
	}
	var challenge model.Challenge
	err = r.challenges.FindOne(ctx, bson.M{"_id": id, "deleted_at": nil}).Decode(&challenge)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (r *Repository) ListChallenges(ctx context.Context, req *model.ListChallengesRequest) (*model.ListChallengesResponse, error) {
	filter := bson.M{"deleted_at": nil, "is_active": true}
	if req.Category != "" {
		filter["category"] = req.Category
	}
	if req.Difficulty != "" {
		filter["difficulty"] = req.Difficulty
	}
	if req.Search != "" {
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": req.Search, "$options": "i"}},
			{"description": bson.M{"$regex": req.Search, "$options": "i"}},
		}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((req.Page - 1) * req.PageSize).
		SetLimit(req.PageSize)
	cursor, err := r.challenges.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	challenges := []model.Challenge{}
	if err = cursor.All(ctx, &challenges); err != nil {
		return nil, err
	}
	total, err := r.challenges.CountDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &model.ListChallengesResponse{
		Challenges: challenges,
		TotalCount: total,
		Page:       req.Page,
		PageSize:   req.PageSize,
	}, nil
}

func (r *Repository) AddTestCases(ctx context.Context, challengeID string, testCases []model.TestCase) error {
	id, err := primitive.ObjectIDFromHex(challengeID)
	if err != nil {
		return ErrNotFound
	}
	update := bson.M{
		"$push": bson.M{"testcases": bson.M{"$each": testCases}},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	result, err := r.challenges.UpdateOne(ctx, bson.M{"_id": id, "deleted_at": nil}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyChallengeStats persists the aggregate counters produced by
// Challenge.UpdateStats. Aggregates are derived data; a lost update here is
// recoverable by replaying submissions, so no CAS guard is used.
func (r *Repository) ApplyChallengeStats(ctx context.Context, challenge *model.Challenge) error {
	update := bson.M{"$set": bson.M{
		"attempts":    challenge.Attempts,
		"solvedBy":    challenge.SolvedBy,
		"averageTime": challenge.AverageTime,
		"successRate": challenge.SuccessRate,
		"updated_at":  time.Now(),
	}}
	result, err := r.challenges.UpdateOne(ctx, bson.M{"_id": challenge.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
