package systems

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/spaghettifunk/quadbench/engine/renderer/gfx/gfxtest"
	"github.com/spaghettifunk/quadbench/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobSystemValidates(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestJobSystemRunsEveryJob(t *testing.T) {
	js, err := NewJobSystem(4, 2)
	require.NoError(t, err)

	var started, completed, failed atomic.Int32
	results := make([]int, 50)
	for i := range results {
		err := js.Submit(metadata.JobTask{
			Name: "square",
			OnStart: func() error {
				started.Add(1)
				if i == 7 {
					return errors.New("boom")
				}
				results[i] = i * i
				return nil
			},
			OnComplete: func() { completed.Add(1) },
			OnFailure:  func(error) { failed.Add(1) },
		})
		require.NoError(t, err)
	}
	js.Wait()

	assert.Equal(t, int32(50), started.Load())
	assert.Equal(t, int32(49), completed.Load())
	assert.Equal(t, int32(1), failed.Load())
	assert.Equal(t, 81, results[9])
	assert.Zero(t, results[7])

	require.NoError(t, js.Shutdown())
	require.NoError(t, js.Shutdown())
}

func TestSubmitAfterShutdown(t *testing.T) {
	js, err := NewJobSystem(2, 0)
	require.NoError(t, err)
	require.NoError(t, js.Shutdown())

	ran := false
	err = js.Submit(metadata.JobTask{
		Name:    "late",
		OnStart: func() error { ran = true; return nil },
	})
	assert.ErrorIs(t, err, ErrJobSystemClosed)
	assert.False(t, ran)
	// nothing was left pending
	js.Wait()
}

func TestSystemManager(t *testing.T) {
	sm, err := NewSystemManager(testSources)
	require.NoError(t, err)

	ctx := gfxtest.New()
	_, err = sm.ShaderSystem.CreateProgram(ctx, "quad_vs.glsl", "quad_fs.glsl", nil)
	require.NoError(t, err)

	require.NoError(t, sm.Shutdown(ctx))
	assert.Equal(t, 0, ctx.LiveObjects())

	_, err = NewSystemManager(nil)
	assert.Error(t, err)
}
