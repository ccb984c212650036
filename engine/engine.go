package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spaghettifunk/quadbench/engine/assets"
	"github.com/spaghettifunk/quadbench/engine/core"
	"github.com/spaghettifunk/quadbench/engine/platform"
	"github.com/spaghettifunk/quadbench/engine/renderer/gfx"
	"github.com/spaghettifunk/quadbench/engine/renderer/opengl"
	"github.com/spaghettifunk/quadbench/engine/solutions"
	"github.com/spaghettifunk/quadbench/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// Window is the part of the platform the frame loop drives.
type Window interface {
	// PumpMessages returns false once the window should close.
	PumpMessages() bool
	SwapBuffers()
	// FramebufferSize returns the drawable size and whether it changed.
	FramebufferSize() (uint32, uint32, bool)
}

// Report summarises a finished run.
type Report struct {
	RunID         uuid.UUID
	Solution      string
	Objects       int
	Frames        uint64
	Elapsed       time.Duration
	MeanFrameTime float64
	P99FrameTime  float64
}

type Engine struct {
	currentStage Stage
	config       *core.Config
	runID        uuid.UUID

	platform     *platform.Platform
	window       Window
	ctx          gfx.Context
	assetManager *assets.AssetManager
	systems      *systems.SystemManager
	problem      *solutions.TexturedQuadsProblem
	solution     solutions.Solution

	clock    *core.Clock
	metrics  *core.Metrics
	lastTime float64

	// set by Stop, never cleared
	stopRequested atomic.Bool
	width         uint32
	height        uint32
}

func New(config *core.Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := core.SetLogLevel(config.Logging.Level); err != nil {
		return nil, err
	}

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       config,
		runID:        uuid.New(),
		assetManager: am,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		width:        config.Application.Width,
		height:       config.Application.Height,
	}, nil
}

// RunID identifies this run in logs and in the final report.
func (e *Engine) RunID() uuid.UUID {
	return e.runID
}

// Initialize opens the window, loads OpenGL and brings up the configured
// solution.
func (e *Engine) Initialize() error {
	app := e.config.Application
	p := platform.New()
	if err := p.Startup(app.Name, app.PosX, app.PosY, app.Width, app.Height, app.VSync); err != nil {
		return err
	}
	e.platform = p

	ctx, err := opengl.New()
	if err != nil {
		return err
	}
	return e.initialize(ctx, p)
}

func (e *Engine) initialize(ctx gfx.Context, window Window) error {
	e.currentStage = EngineStageInitializing
	e.ctx = ctx
	e.window = window

	core.LogInfo("run %s: solution '%s'", e.runID, e.config.Benchmark.Solution)

	if err := e.assetManager.Initialize(e.config.Assets.Dir); err != nil {
		return err
	}

	sm, err := systems.NewSystemManager(e.assetManager)
	if err != nil {
		return err
	}
	e.systems = sm

	bench := e.config.Benchmark
	problem, err := solutions.NewTexturedQuadsProblem(&solutions.TexturedQuadsProblemConfig{
		GridWidth:    bench.GridWidth,
		GridHeight:   bench.GridHeight,
		TextureCount: bench.TextureCount,
		TextureSize:  bench.TextureSize,
		Seed:         bench.Seed,
	}, e.assetManager, sm.JobSystem)
	if err != nil {
		return err
	}
	e.problem = problem

	solution, err := solutions.New(bench.Solution, sm.ShaderSystem)
	if err != nil {
		core.LogError(err.Error())
		return err
	}

	if w, h, _ := window.FramebufferSize(); w > 0 && h > 0 {
		e.width, e.height = w, h
	}
	solution.SetSize(e.width, e.height)
	ctx.Viewport(0, 0, int32(e.width), int32(e.height))

	if err := solution.Init(ctx, problem.Vertices(), problem.Indices(), problem.Textures(), problem.ObjectCount()); err != nil {
		core.LogError("solution '%s' failed to initialize: %s", solution.Name(), err)
		return err
	}
	e.solution = solution

	e.currentStage = EngineStageInitialized
	return nil
}

// Run renders frames until the window closes or the configured frame count
// is reached.
func (e *Engine) Run() (*Report, error) {
	if e.currentStage != EngineStageInitialized {
		return nil, fmt.Errorf("engine is not initialized")
	}
	e.currentStage = EngineStageRunning

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	frames := e.config.Benchmark.Frames
	for !e.stopRequested.Load() {
		if !e.window.PumpMessages() {
			break
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime

		e.frame(delta)

		if e.metrics.Update(delta) {
			fps, frameTime := e.metrics.Frame()
			core.LogInfo("%s: %.0f fps, %.3f ms/frame", e.solution.Name(), fps, frameTime)
		}

		e.lastTime = currentTime
		if frames > 0 && e.metrics.TotalFrames >= frames {
			break
		}
	}
	e.clock.Stop()

	report := &Report{
		RunID:         e.runID,
		Solution:      e.solution.Name(),
		Objects:       e.problem.ObjectCount(),
		Frames:        e.metrics.TotalFrames,
		Elapsed:       time.Duration(e.lastTime * float64(time.Second)),
		MeanFrameTime: e.metrics.MeanFrameTime(),
		P99FrameTime:  e.metrics.Percentile(99),
	}
	core.LogInfo("run %s: %s drew %d objects for %d frames, mean %.3f ms/frame, p99 %.3f ms/frame",
		report.RunID, report.Solution, report.Objects, report.Frames, report.MeanFrameTime, report.P99FrameTime)

	e.currentStage = EngineStageInitialized
	return report, nil
}

func (e *Engine) frame(delta float64) {
	if w, h, resized := e.window.FramebufferSize(); resized && w > 0 && h > 0 {
		core.LogDebug("Window resize: %d, %d", w, h)
		e.width, e.height = w, h
		e.solution.SetSize(w, h)
		e.ctx.Viewport(0, 0, int32(w), int32(h))
	}

	e.ctx.ClearColor(0, 0, 0, 1)
	// Depth writes must be on for the clear to reach the depth buffer.
	e.ctx.DepthMask(true)
	e.ctx.Clear(gfx.ColorBufferBit | gfx.DepthBufferBit)

	transforms := e.problem.Update(float32(delta))
	e.solution.Render(e.ctx, transforms)

	e.window.SwapBuffers()
}

// Stop asks the frame loop to return after the current frame. It is safe to
// call from any goroutine, and a Stop issued before Run makes Run return
// without rendering.
func (e *Engine) Stop() {
	e.stopRequested.Store(true)
}

// Shutdown releases the solution and every subsystem, in reverse order of
// creation.
func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown

	if e.solution != nil {
		e.solution.Shutdown(e.ctx)
		e.solution = nil
	}
	if e.systems != nil {
		if err := e.systems.Shutdown(e.ctx); err != nil {
			return err
		}
		e.systems = nil
	}
	if err := e.assetManager.Close(); err != nil {
		return err
	}
	if e.platform != nil {
		if err := e.platform.Shutdown(); err != nil {
			return err
		}
		e.platform = nil
	}

	e.currentStage = EngineStageUninitialized
	return nil
}
