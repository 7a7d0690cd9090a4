package judge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedRunnerAlwaysPass(t *testing.T) {
	r := NewSimulatedRunner(100, 1)
	for i := 0; i < 20; i++ {
		res, err := r.RunTestCase(context.Background(), "code", "go", "in", "out")
		require.NoError(t, err)
		assert.True(t, res.Passed)
		assert.Equal(t, "out", res.Output)
		assert.GreaterOrEqual(t, res.ExecTimeMs, 10.0)
		assert.LessOrEqual(t, res.ExecTimeMs, 200.0)
		assert.GreaterOrEqual(t, res.MemoryUsedMB, 5.0)
		assert.LessOrEqual(t, res.MemoryUsedMB, 50.0)
	}
}

func TestSimulatedRunnerAlwaysFail(t *testing.T) {
	r := NewSimulatedRunner(0, 1)
	for i := 0; i < 20; i++ {
		res, err := r.RunTestCase(context.Background(), "code", "go", "in", "out")
		require.NoError(t, err)
		assert.False(t, res.Passed)
		assert.NotEqual(t, "out", res.Output)
	}
}

func TestSimulatedRunnerClampsPassPercent(t *testing.T) {
	assert.Equal(t, 0, NewSimulatedRunner(-5, 1).PassPercent)
	assert.Equal(t, 100, NewSimulatedRunner(140, 1).PassPercent)
}

func TestSimulatedRunnerHonorsCancelledContext(t *testing.T) {
	r := NewSimulatedRunner(100, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.RunTestCase(ctx, "code", "go", "in", "out")
	assert.ErrorIs(t, err, context.Canceled)
}
