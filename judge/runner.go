package judge

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Result is the outcome of running one test case.
type Result struct {
	Passed        bool    `json:"passed"`
	Output        string  `json:"output"`
	ExecTimeMs    float64 `json:"execTimeMs"`
	MemoryUsedMB  float64 `json:"memMB"`
	ErrorType     string  `json:"errorType,omitempty"`
	ErrorMessage  string  `json:"errorMessage,omitempty"`
	TestCaseIndex int     `json:"testCaseIndex"`
}

// Runner executes one test case of a challenge. The submission pipeline only
// depends on this interface so a sandboxed execution service can replace the
// simulation without touching scoring, streak, or leaderboard logic.
type Runner interface {
	RunTestCase(ctx context.Context, code, language, input, expectedOutput string) (Result, error)
}

// SimulatedRunner produces pseudo-random pass/fail outcomes. It is NOT a
// judge: correctness derived from it is noise, and it must be replaced by a
// real execution backend before the accepted/wrong-answer distinction means
// anything.
type SimulatedRunner struct {
	PassPercent int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedRunner seeds the simulation. passPercent is the per-test-case
// probability of a pass, clamped to [0,100].
func NewSimulatedRunner(passPercent int, seed int64) *SimulatedRunner {
	if passPercent < 0 {
		passPercent = 0
	}
	if passPercent > 100 {
		passPercent = 100
	}
	return &SimulatedRunner{
		PassPercent: passPercent,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (r *SimulatedRunner) RunTestCase(ctx context.Context, code, language, input, expectedOutput string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	r.mu.Lock()
	passed := r.rng.Intn(100) < r.PassPercent
	execMs := 10 + r.rng.Float64()*190
	memMB := 5 + r.rng.Float64()*45
	r.mu.Unlock()

	res := Result{
		Passed:       passed,
		ExecTimeMs:   execMs,
		MemoryUsedMB: memMB,
	}
	if passed {
		res.Output = expectedOutput
	} else {
		res.Output = fmt.Sprintf("simulated failure for input %q", input)
	}
	// keep the simulated wall clock visible in timeTaken without stalling
	// the request for long
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-time.After(time.Millisecond):
	}
	return res, nil
}
