package service

import (
	"context"
	"testing"

	"collegeconnect/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestCreateChallengeValidation(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeNotifier{}, &fakeBoard{}, fixedRunner{passed: true, memMB: 20})

	valid := func() *model.CreateChallengeRequest {
		return &model.CreateChallengeRequest{
			Title:       "Two Sum",
			Description: "Find two numbers",
			Category:    "dsa",
			Difficulty:  model.DifficultyEasy,
			Points:      100,
			TestCases:   []model.TestCase{{Input: "1", ExpectedOutput: "1"}},
		}
	}

	created, err := svc.CreateChallenge(context.Background(), valid())
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())
	assert.True(t, created.IsActive)

	broken := []func(*model.CreateChallengeRequest){
		func(r *model.CreateChallengeRequest) { r.Title = "" },
		func(r *model.CreateChallengeRequest) { r.Description = "" },
		func(r *model.CreateChallengeRequest) { r.Category = "knitting" },
		func(r *model.CreateChallengeRequest) { r.Difficulty = "impossible" },
		func(r *model.CreateChallengeRequest) { r.Points = 0 },
		func(r *model.CreateChallengeRequest) { r.Points = 1001 },
		func(r *model.CreateChallengeRequest) { r.TestCases = nil },
		func(r *model.CreateChallengeRequest) { r.TestCases = []model.TestCase{} },
		func(r *model.CreateChallengeRequest) { r.TestCases[0].Input = "" },
		func(r *model.CreateChallengeRequest) { r.TestCases[0].ExpectedOutput = "" },
	}
	for i, mutate := range broken {
		req := valid()
		mutate(req)
		_, err := svc.CreateChallenge(context.Background(), req)
		require.Error(t, err, "case %d", i)
		assert.Equal(t, codes.InvalidArgument, status.Code(err), "case %d", i)
	}
}

func TestCreateChallengeNormalizesCategory(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeNotifier{}, &fakeBoard{}, fixedRunner{passed: true, memMB: 20})

	created, err := svc.CreateChallenge(context.Background(), &model.CreateChallengeRequest{
		Title:       "Regression 101",
		Description: "Fit a line",
		Category:    "Machine Learning",
		Difficulty:  model.DifficultyMedium,
		Points:      200,
		TestCases:   []model.TestCase{{Input: "x", ExpectedOutput: "y"}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryAIML, created.Category)
}

func TestGetChallengeRedactsHiddenTestCases(t *testing.T) {
	store := newFakeStore()
	_, challengeID := seedChallenge(store)

	svc := newTestService(store, &fakeNotifier{}, &fakeBoard{}, fixedRunner{passed: true, memMB: 20})

	challenge, err := svc.GetChallenge(context.Background(), challengeID)
	require.NoError(t, err)
	require.Len(t, challenge.TestCases, 2)

	assert.Equal(t, "1 2 3", challenge.TestCases[0].Input)
	assert.True(t, challenge.TestCases[1].Hidden)
	assert.Empty(t, challenge.TestCases[1].Input)
	assert.Empty(t, challenge.TestCases[1].ExpectedOutput)

	// the stored document keeps the hidden payload
	stored, err := store.GetChallenge(context.Background(), challengeID)
	require.NoError(t, err)
	assert.Equal(t, "4 5 9", stored.TestCases[1].Input)
}

func TestGetChallengeNotFound(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeNotifier{}, &fakeBoard{}, fixedRunner{passed: true, memMB: 20})

	_, err := svc.GetChallenge(context.Background(), "missing")
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = svc.GetChallenge(context.Background(), "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestDeleteChallengeSoftDeletes(t *testing.T) {
	store := newFakeStore()
	_, challengeID := seedChallenge(store)

	svc := newTestService(store, &fakeNotifier{}, &fakeBoard{}, fixedRunner{passed: true, memMB: 20})

	require.NoError(t, svc.DeleteChallenge(context.Background(), challengeID))

	stored, err := store.GetChallenge(context.Background(), challengeID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	// deactivated challenges reject new submissions
	_, err = svc.SubmitSolution(context.Background(), &model.SubmitSolutionRequest{
		UserID:      "u1",
		ChallengeID: challengeID,
		Code:        "x",
		Language:    "go",
	})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestAddTestCasesValidation(t *testing.T) {
	store := newFakeStore()
	challenge, challengeID := seedChallenge(store)

	svc := newTestService(store, &fakeNotifier{}, &fakeBoard{}, fixedRunner{passed: true, memMB: 20})

	err := svc.AddTestCases(context.Background(), challengeID, []model.TestCase{
		{Input: "7 8 15", ExpectedOutput: "15", Hidden: true},
	})
	require.NoError(t, err)
	assert.Len(t, challenge.TestCases, 3)

	err = svc.AddTestCases(context.Background(), challengeID, nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	err = svc.AddTestCases(context.Background(), challengeID, []model.TestCase{{Input: "", ExpectedOutput: "1"}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	err = svc.AddTestCases(context.Background(), "missing", []model.TestCase{{Input: "1", ExpectedOutput: "1"}})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGetSubmissionsRequiresUser(t *testing.T) {
	store := newFakeStore()
	_, challengeID := seedChallenge(store)

	svc := newTestService(store, &fakeNotifier{}, &fakeBoard{}, fixedRunner{passed: true, memMB: 20})

	_, err := svc.SubmitSolution(context.Background(), &model.SubmitSolutionRequest{
		UserID:      "u1",
		ChallengeID: challengeID,
		Code:        "print(3)",
		Language:    "go",
	})
	require.NoError(t, err)

	subs, total, err := svc.GetSubmissions(context.Background(), "u1", "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, subs, 1)
	assert.Equal(t, challengeID, subs[0].ChallengeID)

	_, _, err = svc.GetSubmissions(context.Background(), "", "", 1, 10)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetUserStatsView(t *testing.T) {
	store := newFakeStore()
	_, challengeID := seedChallenge(store)

	svc := newTestService(store, &fakeNotifier{}, &fakeBoard{}, fixedRunner{passed: true, memMB: 20})

	_, err := svc.GetUserStatsView(context.Background(), "u1")
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = svc.SubmitSolution(context.Background(), &model.SubmitSolutionRequest{
		UserID:      "u1",
		ChallengeID: challengeID,
		Code:        "print(3)",
		Language:    "go",
	})
	require.NoError(t, err)

	stats, err := svc.GetUserStatsView(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), stats.ChallengesSolved)
}
