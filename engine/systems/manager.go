package systems

import (
	"runtime"

	"github.com/spaghettifunk/quadbench/engine/renderer/gfx"
)

// SystemManager owns the systems shared by every solution. Texture systems
// are owned by the solutions themselves.
type SystemManager struct {
	JobSystem    *JobSystem
	ShaderSystem *ShaderSystem
}

func NewSystemManager(sources SourceProvider) (*SystemManager, error) {
	workers := runtime.NumCPU()
	js, err := NewJobSystem(workers, workers*4)
	if err != nil {
		return nil, err
	}
	ss, err := NewShaderSystem(sources)
	if err != nil {
		js.Shutdown()
		return nil, err
	}
	return &SystemManager{
		JobSystem:    js,
		ShaderSystem: ss,
	}, nil
}

func (sm *SystemManager) Shutdown(ctx gfx.Context) error {
	if err := sm.ShaderSystem.Shutdown(ctx); err != nil {
		return err
	}
	if err := sm.JobSystem.Shutdown(); err != nil {
		return err
	}
	return nil
}
