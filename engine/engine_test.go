package engine

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/quadbench/engine/core"
	"github.com/spaghettifunk/quadbench/engine/renderer/gfx/gfxtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	width, height uint32
	resized       bool
	closeAfter    int
	pumps         int
	swaps         int
	onPump        func(n int)
}

func (w *fakeWindow) PumpMessages() bool {
	w.pumps++
	if w.onPump != nil {
		w.onPump(w.pumps)
	}
	return w.closeAfter == 0 || w.pumps <= w.closeAfter
}

func (w *fakeWindow) SwapBuffers() { w.swaps++ }

func (w *fakeWindow) FramebufferSize() (uint32, uint32, bool) {
	resized := w.resized
	w.resized = false
	return w.width, w.height, resized
}

func testConfig(t *testing.T) *core.Config {
	t.Helper()
	dir := t.TempDir()
	shaders := filepath.Join(dir, "shaders")
	require.NoError(t, os.MkdirAll(shaders, 0o755))
	for _, name := range []string{
		"textures_gl_sparse_bindless_texture_array_vs.glsl",
		"textures_gl_sparse_bindless_texture_array_fs.glsl",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(shaders, name), []byte("#version 450\n"), 0o644))
	}

	cfg := core.DefaultConfig()
	cfg.Assets.Dir = dir
	cfg.Logging.Level = "error"
	cfg.Benchmark.GridWidth = 2
	cfg.Benchmark.GridHeight = 2
	cfg.Benchmark.TextureCount = 3
	cfg.Benchmark.TextureSize = 8
	cfg.Benchmark.Frames = 5
	return cfg
}

func TestEngineRunsConfiguredFrames(t *testing.T) {
	core.SetLogOutput(io.Discard)
	defer core.SetLogOutput(os.Stderr)

	e, err := New(testConfig(t))
	require.NoError(t, err)

	ctx := gfxtest.New()
	window := &fakeWindow{width: 640, height: 480}
	require.NoError(t, e.initialize(ctx, window))

	report, err := e.Run()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), report.Frames)
	assert.Equal(t, 4, report.Objects)
	assert.Equal(t, "GLSparseBindlessTextureArray", report.Solution)
	assert.Equal(t, e.RunID(), report.RunID)
	assert.Equal(t, 5, window.swaps)
	assert.Len(t, ctx.Draws, 20)

	require.NoError(t, e.Shutdown())
	assert.Equal(t, 0, ctx.LiveObjects())
}

func TestEngineStopsWhenWindowCloses(t *testing.T) {
	core.SetLogOutput(io.Discard)
	defer core.SetLogOutput(os.Stderr)

	cfg := testConfig(t)
	cfg.Benchmark.Frames = 0
	e, err := New(cfg)
	require.NoError(t, err)

	ctx := gfxtest.New()
	window := &fakeWindow{width: 640, height: 480, closeAfter: 3}
	require.NoError(t, e.initialize(ctx, window))

	window.width, window.height, window.resized = 800, 600, true
	report, err := e.Run()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), report.Frames)
	assert.Equal(t, uint32(800), e.width)

	require.NoError(t, e.Shutdown())
}

func TestEngineStopBeforeRun(t *testing.T) {
	core.SetLogOutput(io.Discard)
	defer core.SetLogOutput(os.Stderr)

	cfg := testConfig(t)
	cfg.Benchmark.Frames = 0
	e, err := New(cfg)
	require.NoError(t, err)

	ctx := gfxtest.New()
	window := &fakeWindow{width: 640, height: 480}
	require.NoError(t, e.initialize(ctx, window))

	// e.g. a signal delivered while the solution was initializing
	e.Stop()
	report, err := e.Run()
	require.NoError(t, err)
	assert.Zero(t, report.Frames)
	assert.Zero(t, window.swaps)
	assert.Empty(t, ctx.Draws)

	require.NoError(t, e.Shutdown())
}

func TestEngineStopDuringRun(t *testing.T) {
	core.SetLogOutput(io.Discard)
	defer core.SetLogOutput(os.Stderr)

	cfg := testConfig(t)
	cfg.Benchmark.Frames = 0
	e, err := New(cfg)
	require.NoError(t, err)

	ctx := gfxtest.New()
	window := &fakeWindow{width: 640, height: 480}
	window.onPump = func(n int) {
		if n == 2 {
			e.Stop()
		}
	}
	require.NoError(t, e.initialize(ctx, window))

	report, err := e.Run()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), report.Frames)
	assert.Equal(t, 2, window.swaps)

	require.NoError(t, e.Shutdown())
}

func TestEngineUnknownSolution(t *testing.T) {
	core.SetLogOutput(io.Discard)
	defer core.SetLogOutput(os.Stderr)

	cfg := testConfig(t)
	cfg.Benchmark.Solution = "GLNoSuchThing"
	e, err := New(cfg)
	require.NoError(t, err)

	ctx := gfxtest.New()
	assert.ErrorIs(t, e.initialize(ctx, &fakeWindow{width: 1, height: 1}), core.ErrUnknownSolution)
	require.NoError(t, e.Shutdown())
	assert.Equal(t, 0, ctx.LiveObjects())

	_, err = e.Run()
	assert.Error(t, err)
}

func TestEngineWithoutBindless(t *testing.T) {
	core.SetLogOutput(io.Discard)
	defer core.SetLogOutput(os.Stderr)

	e, err := New(testConfig(t))
	require.NoError(t, err)

	ctx := gfxtest.New()
	delete(ctx.Extensions, "GL_ARB_bindless_texture")
	assert.ErrorIs(t, e.initialize(ctx, &fakeWindow{width: 1, height: 1}), core.ErrBindlessUnsupported)
	require.NoError(t, e.Shutdown())
	assert.Equal(t, 0, ctx.LiveObjects())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Benchmark.GridWidth = 0
	_, err := New(cfg)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}
