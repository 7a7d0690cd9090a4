package repository

import (
	"context"

	"collegeconnect/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertSubmission stores a finished submission. The partial unique index on
// (userId, challengeId, isCorrect=true) turns a concurrent duplicate solve
// into ErrDuplicateSolve instead of a second accepted record.
func (r *Repository) InsertSubmission(ctx context.Context, submission *model.Submission) error {
	res, err := r.submissions.InsertOne(ctx, submission)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSolve
		}
		return err
	}
	submission.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// SetSubmissionScore records the score computed synchronously during
// creation. The only mutation a submission ever receives.
func (r *Repository) SetSubmissionScore(ctx context.Context, submissionID primitive.ObjectID, score int32) error {
	result, err := r.submissions.UpdateOne(ctx,
		bson.M{"_id": submissionID},
		bson.M{"$set": bson.M{"score": score}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// HasAcceptedSubmission reports whether the user already solved the
// challenge. A pre-check only; the unique index is the authority.
func (r *Repository) HasAcceptedSubmission(ctx context.Context, userID, challengeID string) (bool, error) {
	count, err := r.submissions.CountDocuments(ctx, bson.M{
		"userId":      userID,
		"challengeId": challengeID,
		"isCorrect":   true,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListSubmissions returns a user's submissions, optionally scoped to one
// challenge, newest first.
func (r *Repository) ListSubmissions(ctx context.Context, userID, challengeID string, page, pageSize int64) ([]model.Submission, int64, error) {
	filter := bson.M{"userId": userID}
	if challengeID != "" {
		filter["challengeId"] = challengeID
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "submittedAt", Value: -1}}).
		SetSkip((page - 1) * pageSize).
		SetLimit(pageSize)
	cursor, err := r.submissions.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)
	submissions := []model.Submission{}
	if err = cursor.All(ctx, &submissions); err != nil {
		return nil, 0, err
	}
	total, err := r.submissions.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return submissions, total, nil
}
