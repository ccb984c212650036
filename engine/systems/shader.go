package systems

import (
	"fmt"

	"github.com/spaghettifunk/quadbench/engine/core"
	"github.com/spaghettifunk/quadbench/engine/renderer/gfx"
)

// SourceProvider returns the GLSL source of a shader stage by file name.
type SourceProvider interface {
	ShaderSource(name string) (string, error)
}

/** @brief A uniform requested at link time and the location it resolved to. */
type Uniform struct {
	Name     string
	Location int32
}

/** @brief A linked program and its resolved uniforms, in request order. */
type Program struct {
	ID       uint32
	Name     string
	Uniforms []Uniform
}

// Location returns the location of the named uniform, or -1 when it was not
// requested.
func (p *Program) Location(name string) int32 {
	for _, u := range p.Uniforms {
		if u.Name == name {
			return u.Location
		}
	}
	return -1
}

type ShaderSystem struct {
	sources SourceProvider
	// Live programs by ID.
	programs map[uint32]*Program
}

func NewShaderSystem(sources SourceProvider) (*ShaderSystem, error) {
	if sources == nil {
		err := fmt.Errorf("func NewShaderSystem - a source provider is required")
		core.LogError(err.Error())
		return nil, err
	}
	return &ShaderSystem{
		sources:  sources,
		programs: make(map[uint32]*Program),
	}, nil
}

// CreateProgram compiles and links a vertex/fragment pair and resolves every
// requested uniform. Nothing it created survives a failure.
func (ss *ShaderSystem) CreateProgram(ctx gfx.Context, vsName, fsName string, uniforms []string) (*Program, error) {
	name := fmt.Sprintf("%s+%s", vsName, fsName)

	vs, err := ss.compile(ctx, gfx.VertexShader, vsName)
	if err != nil {
		return nil, err
	}
	defer ctx.DeleteShader(vs)

	fs, err := ss.compile(ctx, gfx.FragmentShader, fsName)
	if err != nil {
		return nil, err
	}
	defer ctx.DeleteShader(fs)

	id := ctx.CreateProgram()
	ctx.AttachShader(id, vs)
	ctx.AttachShader(id, fs)
	ctx.LinkProgram(id)
	ctx.DetachShader(id, vs)
	ctx.DetachShader(id, fs)

	if ok, log := ctx.ProgramLinked(id); !ok {
		core.LogError("failed to link program '%s':\n%s", name, log)
		ctx.DeleteProgram(id)
		return nil, fmt.Errorf("%w: %s", core.ErrShaderLink, name)
	}

	program := &Program{
		ID:       id,
		Name:     name,
		Uniforms: make([]Uniform, 0, len(uniforms)),
	}
	for _, u := range uniforms {
		loc := ctx.GetUniformLocation(id, u)
		if loc < 0 {
			core.LogError("program '%s' has no active uniform '%s'", name, u)
			ctx.DeleteProgram(id)
			return nil, fmt.Errorf("%w: %s in %s", core.ErrUniformNotFound, u, name)
		}
		program.Uniforms = append(program.Uniforms, Uniform{Name: u, Location: loc})
	}

	ss.programs[id] = program
	core.LogDebug("program '%s' linked as %d", name, id)
	return program, nil
}

func (ss *ShaderSystem) compile(ctx gfx.Context, stage uint32, fileName string) (uint32, error) {
	source, err := ss.sources.ShaderSource(fileName)
	if err != nil {
		core.LogError("unable to read shader '%s': %s", fileName, err)
		return 0, fmt.Errorf("%w: %s: %w", core.ErrShaderCompile, fileName, err)
	}

	shader := ctx.CreateShader(stage)
	ctx.ShaderSource(shader, source)
	ctx.CompileShader(shader)
	if ok, log := ctx.ShaderCompiled(shader); !ok {
		core.LogError("failed to compile shader '%s':\n%s", fileName, log)
		ctx.DeleteShader(shader)
		return 0, fmt.Errorf("%w: %s", core.ErrShaderCompile, fileName)
	}
	return shader, nil
}

// DestroyProgram deletes a program created by this system.
func (ss *ShaderSystem) DestroyProgram(ctx gfx.Context, program *Program) {
	if program == nil {
		return
	}
	if _, ok := ss.programs[program.ID]; !ok {
		return
	}
	ctx.DeleteProgram(program.ID)
	delete(ss.programs, program.ID)
}

// Shutdown deletes any program still alive.
func (ss *ShaderSystem) Shutdown(ctx gfx.Context) error {
	for id, p := range ss.programs {
		core.LogWarn("program '%s' was not destroyed before shutdown", p.Name)
		ctx.DeleteProgram(id)
		delete(ss.programs, id)
	}
	return nil
}
