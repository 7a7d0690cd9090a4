package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"collegeconnect/cache"
	"collegeconnect/judge"
	"collegeconnect/model"
	"collegeconnect/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeStore is an in-memory Store with the same contract as the Mongo
// repository, including the partial-unique-index and version-CAS behavior.
type fakeStore struct {
	challenges  map[string]*model.Challenge
	submissions []*model.Submission
	stats       map[string]*model.UserStats

	rankUpdates   int
	saveConflicts int // number of SaveUserStats calls to reject first
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		challenges: map[string]*model.Challenge{},
		stats:      map[string]*model.UserStats{},
	}
}

func (f *fakeStore) addChallenge(c *model.Challenge) string {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	id := c.ID.Hex()
	f.challenges[id] = c
	return id
}

func (f *fakeStore) CreateChallenge(ctx context.Context, req *model.CreateChallengeRequest) (*model.Challenge, error) {
	c := &model.Challenge{
		ID:          primitive.NewObjectID(),
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
		CreatedAt:   time.Now(),
	}
	f.challenges[c.ID.Hex()] = c
	return c, nil
}

func (f *fakeStore) UpdateChallenge(ctx context.Context, req *model.UpdateChallengeRequest) error {
	c, ok := f.challenges[req.ChallengeID]
	if !ok {
		return repository.ErrNotFound
	}
	if req.Title != nil {
		c.Title = *req.Title
	}
	if req.IsPublished != nil {
		c.IsPublished = *req.IsPublished
	}
	return nil
}

func (f *fakeStore) DeactivateChallenge(ctx context.Context, challengeID string) error {
	c, ok := f.challenges[challengeID]
	if !ok {
		return repository.ErrNotFound
	}
	c.IsActive = false
	return nil
}

func (f *fakeStore) GetChallenge(ctx context.Context, challengeID string) (*model.Challenge, error) {
	c, ok := f.challenges[challengeID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ListChallenges(ctx context.Context, req *model.ListChallengesRequest) (*model.ListChallengesResponse, error) {
	resp := &model.ListChallengesResponse{Page: req.Page, PageSize: req.PageSize}
	for _, c := range f.challenges {
		if c.IsActive {
			resp.Challenges = append(resp.Challenges, *c)
		}
	}
	resp.TotalCount = int64(len(resp.Challenges))
	return resp, nil
}

func (f *fakeStore) AddTestCases(ctx context.Context, challengeID string, testCases []model.TestCase) error {
	c, ok := f.challenges[challengeID]
	if !ok {
		return repository.ErrNotFound
	}
	c.TestCases = append(c.TestCases, testCases...)
	return nil
}

func (f *fakeStore) ApplyChallengeStats(ctx context.Context, challenge *model.Challenge) error {
	c, ok := f.challenges[challenge.ID.Hex()]
	if !ok {
		return repository.ErrNotFound
	}
	c.Attempts = challenge.Attempts
	c.SolvedBy = challenge.SolvedBy
	c.AverageTime = challenge.AverageTime
	c.SuccessRate = challenge.SuccessRate
	return nil
}

func (f *fakeStore) InsertSubmission(ctx context.Context, submission *model.Submission) error {
	if submission.IsCorrect {
		for _, existing := range f.submissions {
			if existing.UserID == submission.UserID &&
				existing.ChallengeID == submission.ChallengeID &&
				existing.IsCorrect {
				return repository.ErrDuplicateSolve
			}
		}
	}
	submission.ID = primitive.NewObjectID()
	cp := *submission
	f.submissions = append(f.submissions, &cp)
	return nil
}

func (f *fakeStore) SetSubmissionScore(ctx context.Context, submissionID primitive.ObjectID, score int32) error {
	for _, sub := range f.submissions {
		if sub.ID == submissionID {
			sub.Score = score
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStore) HasAcceptedSubmission(ctx context.Context, userID, challengeID string) (bool, error) {
	for _, sub := range f.submissions {
		if sub.UserID == userID && sub.ChallengeID == challengeID && sub.IsCorrect {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListSubmissions(ctx context.Context, userID, challengeID string, page, pageSize int64) ([]model.Submission, int64, error) {
	var out []model.Submission
	for _, sub := range f.submissions {
		if sub.UserID == userID && (challengeID == "" || sub.ChallengeID == challengeID) {
			out = append(out, *sub)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeStore) GetUserStats(ctx context.Context, userID string) (*model.UserStats, error) {
	stats, ok := f.stats[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *stats
	return &cp, nil
}

func (f *fakeStore) SaveUserStats(ctx context.Context, stats *model.UserStats) error {
	if f.saveConflicts > 0 {
		f.saveConflicts--
		return repository.ErrVersionConflict
	}
	if stats.ID.IsZero() {
		if _, exists := f.stats[stats.UserID]; exists {
			return repository.ErrVersionConflict
		}
		stats.ID = primitive.NewObjectID()
		stats.Version = 1
	} else {
		stored, ok := f.stats[stats.UserID]
		if !ok || stored.Version != stats.Version {
			return repository.ErrVersionConflict
		}
		stats.Version++
	}
	cp := *stats
	f.stats[stats.UserID] = &cp
	return nil
}

func (f *fakeStore) orderedStats() []model.UserStats {
	out := make([]model.UserStats, 0, len(f.stats))
	for _, st := range f.stats {
		out = append(out, *st)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if a.ChallengesSolved != b.ChallengesSolved {
			return a.ChallengesSolved > b.ChallengesSolved
		}
		if a.CurrentStreak != b.CurrentStreak {
			return a.CurrentStreak > b.CurrentStreak
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out
}

func (f *fakeStore) ListAllStatsOrdered(ctx context.Context) ([]model.UserStats, error) {
	return f.orderedStats(), nil
}

func (f *fakeStore) ListStatsPage(ctx context.Context, page, limit int64) ([]model.UserStats, int64, error) {
	all := f.orderedStats()
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= total {
		return []model.UserStats{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (f *fakeStore) UpdateUserRank(ctx context.Context, statsID primitive.ObjectID, newRank, previousRank int32, at time.Time) error {
	for _, st := range f.stats {
		if st.ID == statsID {
			st.Rank = newRank
			st.PreviousRank = previousRank
			st.RankUpdatedAt = at
			f.rankUpdates++
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStore) CountUsersAhead(ctx context.Context, stats *model.UserStats) (int64, error) {
	var ahead int64
	for _, other := range f.stats {
		if other.UserID == stats.UserID {
			continue
		}
		switch {
		case other.TotalScore != stats.TotalScore:
			if other.TotalScore > stats.TotalScore {
				ahead++
			}
		case other.ChallengesSolved != stats.ChallengesSolved:
			if other.ChallengesSolved > stats.ChallengesSolved {
				ahead++
			}
		case other.CurrentStreak != stats.CurrentStreak:
			if other.CurrentStreak > stats.CurrentStreak {
				ahead++
			}
		default:
			if other.CreatedAt.Before(stats.CreatedAt) {
				ahead++
			}
		}
	}
	return ahead, nil
}

func (f *fakeStore) CategoryLeaderboard(ctx context.Context, category string, page, limit int64) ([]model.UserStats, int64, error) {
	var out []model.UserStats
	for _, st := range f.orderedStats() {
		if st.CategoryStats[category].Solved > 0 {
			out = append(out, st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CategoryStats[category], out[j].CategoryStats[category]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Solved > b.Solved
	})
	return out, int64(len(out)), nil
}

func (f *fakeStore) StreakLeaderboard(ctx context.Context, page, limit int64) ([]model.UserStats, int64, error) {
	var out []model.UserStats
	for _, st := range f.orderedStats() {
		if st.CurrentStreak > 0 {
			out = append(out, st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CurrentStreak != out[j].CurrentStreak {
			return out[i].CurrentStreak > out[j].CurrentStreak
		}
		return out[i].LongestStreak > out[j].LongestStreak
	})
	return out, int64(len(out)), nil
}

func (f *fakeStore) AggregateTimeframeLeaderboard(ctx context.Context, since time.Time, page, limit int64) ([]repository.TimeframeScore, error) {
	totals := map[string]*repository.TimeframeScore{}
	for _, sub := range f.submissions {
		if !sub.IsCorrect || sub.SubmittedAt.Before(since) {
			continue
		}
		row, ok := totals[sub.UserID]
		if !ok {
			row = &repository.TimeframeScore{UserID: sub.UserID}
			totals[sub.UserID] = row
		}
		row.Score += int64(sub.Score)
		row.Solved++
	}
	out := make([]repository.TimeframeScore, 0, len(totals))
	for _, row := range totals {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	start := (page - 1) * limit
	if start >= int64(len(out)) {
		return []repository.TimeframeScore{}, nil
	}
	end := start + limit
	if end > int64(len(out)) {
		end = int64(len(out))
	}
	return out[start:end], nil
}

func (f *fakeStore) CountTimeframeSolvers(ctx context.Context, since time.Time) (int64, error) {
	solvers := map[string]bool{}
	for _, sub := range f.submissions {
		if sub.IsCorrect && !sub.SubmittedAt.Before(since) {
			solvers[sub.UserID] = true
		}
	}
	return int64(len(solvers)), nil
}

// fakeCache always misses and swallows writes.
type fakeCache struct{}

func (fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}
func (fakeCache) Get(ctx context.Context, key string) (string, bool, error) { return "", false, nil }
func (fakeCache) Delete(ctx context.Context, keys ...string) error          { return nil }
func (fakeCache) DeletePattern(ctx context.Context, pattern string) error   { return nil }

// fakeNotifier records rank signals; failPublish forces the inline fallback.
type fakeNotifier struct {
	published   int
	failPublish bool
}

func (f *fakeNotifier) Publish(subject string, data []byte) error {
	if f.failPublish {
		return errors.New("nats unavailable")
	}
	f.published++
	return nil
}

// fakeBoard records rebuilds.
type fakeBoard struct {
	rebuilds int
	members  []cache.BoardMember
}

func (f *fakeBoard) Rebuild(ctx context.Context, members []cache.BoardMember) error {
	f.rebuilds++
	f.members = members
	return nil
}

func (f *fakeBoard) TopK(ctx context.Context, k int64) ([]cache.BoardMember, error) {
	if int64(len(f.members)) < k {
		k = int64(len(f.members))
	}
	return f.members[:k], nil
}

// fixedRunner returns the same verdict for every test case.
type fixedRunner struct {
	passed bool
	memMB  float64
}

func (r fixedRunner) RunTestCase(ctx context.Context, code, language, input, expectedOutput string) (judge.Result, error) {
	out := expectedOutput
	if !r.passed {
		out = "unexpected output"
	}
	return judge.Result{
		Passed:       r.passed,
		Output:       out,
		ExecTimeMs:   42,
		MemoryUsedMB: r.memMB,
	}, nil
}
