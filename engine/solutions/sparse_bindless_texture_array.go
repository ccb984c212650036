package solutions

import (
	"fmt"

	"github.com/spaghettifunk/quadbench/engine/core"
	"github.com/spaghettifunk/quadbench/engine/math"
	"github.com/spaghettifunk/quadbench/engine/renderer/components"
	"github.com/spaghettifunk/quadbench/engine/renderer/gfx"
	"github.com/spaghettifunk/quadbench/engine/renderer/metadata"
	"github.com/spaghettifunk/quadbench/engine/systems"
)

const (
	SparseBindlessTextureArrayName = "GLSparseBindlessTextureArray"

	sparseBindlessVertexShader   = "textures_gl_sparse_bindless_texture_array_vs.glsl"
	sparseBindlessFragmentShader = "textures_gl_sparse_bindless_texture_array_fs.glsl"

	uniformViewProjection = "ViewProjection"
	uniformDrawID         = "DrawID"

	// Shader storage binding points.
	transformSlot  = 0
	texAddressSlot = 1

	cameraDistance = 250
)

// Addressable is anything that can be sampled through a TexAddress.
type Addressable interface {
	Address() metadata.TexAddress
}

// BuildTexAddressTable gives each of objectCount slots the address of one
// texture, cycling through textures in order: slot i gets textures[i%len].
// It returns nil when there are no textures.
func BuildTexAddressTable[T Addressable](textures []T, objectCount int) []metadata.TexAddress {
	if len(textures) == 0 || objectCount <= 0 {
		return nil
	}
	table := make([]metadata.TexAddress, objectCount)
	for i := range table {
		table[i] = textures[i%len(textures)].Address()
	}
	return table
}

/**
 * @brief Draws every quad with its own DrawElements call. The shader uses the
 * DrawID uniform to fetch both the object transform (storage slot 0) and the
 * bindless address of its texture array slice (storage slot 1).
 */
type SparseBindlessTextureArray struct {
	Base

	shaders    *systems.ShaderSystem
	camera     *components.Camera
	texManager *systems.TextureSystem
	program    *systems.Program

	viewProjection int32
	drawID         int32

	textures []*systems.Texture

	vertexBuffer     uint32
	indexBuffer      uint32
	transformBuffer  uint32
	texAddressBuffer uint32
	vao              uint32

	initialized bool
}

func NewSparseBindlessTextureArray(shaders *systems.ShaderSystem) *SparseBindlessTextureArray {
	camera := components.NewCamera()
	camera.Orbit(math.NewVec3Zero(), math.NewVec3(0, 0, 1), cameraDistance)
	return &SparseBindlessTextureArray{shaders: shaders, camera: camera}
}

func (s *SparseBindlessTextureArray) Name() string {
	return SparseBindlessTextureArrayName
}

// Textures returns the textures owned by the solution, in input order.
func (s *SparseBindlessTextureArray) Textures() []*systems.Texture {
	return s.textures
}

func (s *SparseBindlessTextureArray) Init(ctx gfx.Context, vertices []metadata.Vertex, indices []metadata.Index, textures []*metadata.TextureDetails, objectCount int) error {
	if s.initialized {
		return fmt.Errorf("solution '%s' is already initialized", s.Name())
	}
	if err := s.Base.Init(vertices, indices, textures, objectCount); err != nil {
		return err
	}
	if err := s.init(ctx, vertices, indices, textures, objectCount); err != nil {
		s.release(ctx)
		return err
	}
	s.initialized = true
	return nil
}

func (s *SparseBindlessTextureArray) init(ctx gfx.Context, vertices []metadata.Vertex, indices []metadata.Index, textures []*metadata.TextureDetails, objectCount int) error {
	// Prerequisites
	texManager, err := systems.NewTextureSystem(systems.DefaultTextureSystemConfig())
	if err != nil {
		return err
	}
	if err := texManager.Initialize(ctx); err != nil {
		return err
	}
	s.texManager = texManager

	if !texManager.SupportsBindless() {
		core.LogWarn("Unable to initialize solution '%s', requires support for bindless textures (not present).", s.Name())
		return fmt.Errorf("%s: %w", s.Name(), core.ErrBindlessUnsupported)
	}

	// Program
	program, err := s.shaders.CreateProgram(ctx, sparseBindlessVertexShader, sparseBindlessFragmentShader,
		[]string{uniformViewProjection, uniformDrawID})
	if err != nil {
		core.LogWarn("Unable to initialize solution '%s', shader compilation/linking failed.", s.Name())
		return fmt.Errorf("%s: %w", s.Name(), err)
	}
	s.program = program
	s.viewProjection = program.Location(uniformViewProjection)
	s.drawID = program.Location(uniformDrawID)

	// Textures
	s.textures = make([]*systems.Texture, 0, len(textures))
	for _, details := range textures {
		tex, err := texManager.NewTexture2DFromDetails(ctx, details)
		if err != nil {
			return fmt.Errorf("%s: texture '%s': %w", s.Name(), details.Name, err)
		}
		s.textures = append(s.textures, tex)
	}

	// Buffers
	s.vertexBuffer = gfx.NewBufferFromSlice(ctx, gfx.ArrayBuffer, vertices, gfx.StaticDraw)
	s.indexBuffer = gfx.NewBufferFromSlice(ctx, gfx.ElementArrayBuffer, indices, gfx.StaticDraw)

	s.transformBuffer = ctx.GenBuffer()
	ctx.BindBufferBase(gfx.ShaderStorageBuffer, transformSlot, s.transformBuffer)

	table := BuildTexAddressTable(s.textures, objectCount)
	s.texAddressBuffer = gfx.NewBufferFromSlice(ctx, gfx.ShaderStorageBuffer, table, gfx.DynamicDraw)
	ctx.BindBufferBase(gfx.ShaderStorageBuffer, texAddressSlot, s.texAddressBuffer)

	s.vao = ctx.GenVertexArray()
	ctx.BindVertexArray(s.vao)

	if code := ctx.GetError(); code != gfx.NoError {
		core.LogWarn("Unable to initialize solution '%s', graphics api error %s.", s.Name(), gfx.ErrorString(code))
		return fmt.Errorf("%s: %w: %s", s.Name(), core.ErrGraphicsAPI, gfx.ErrorString(code))
	}

	core.LogDebug("solution '%s' initialized: %d objects, %d textures in %d containers, sparse=%t",
		s.Name(), objectCount, len(s.textures), texManager.ContainerCount(), texManager.SupportsSparse())
	return nil
}

func (s *SparseBindlessTextureArray) Render(ctx gfx.Context, transforms []math.Mat4) {
	if !s.initialized {
		panic(fmt.Sprintf("solution '%s' rendered before a successful Init", s.Name()))
	}
	xformCount := len(transforms)
	if xformCount > s.ObjectCount {
		panic(fmt.Sprintf("solution '%s': %d transforms for %d objects", s.Name(), xformCount, s.ObjectCount))
	}

	// Program
	viewProj := s.camera.ViewProjection(s.Proj)

	ctx.UseProgram(s.program.ID)
	ctx.UniformMatrix4fv(s.viewProjection, false, &viewProj.Data)

	// Input layout. First the IB, then the VB.
	ctx.BindBuffer(gfx.ElementArrayBuffer, s.indexBuffer)
	ctx.BindBuffer(gfx.ArrayBuffer, s.vertexBuffer)
	ctx.VertexAttribPointer(0, 3, gfx.Float, false, metadata.VertexStride, metadata.VertexPosOffset)
	ctx.VertexAttribPointer(1, 2, gfx.Float, false, metadata.VertexStride, metadata.VertexTexOffset)
	ctx.EnableVertexAttribArray(0)
	ctx.EnableVertexAttribArray(1)

	// Rasterizer state
	ctx.Enable(gfx.CullFace)
	// Quads wind CCW seen from +Z and the camera sits on -Z, so the side
	// facing it is the back face. Culling front is intended.
	ctx.CullFace(gfx.Front)
	ctx.FrontFace(gfx.CCW)
	ctx.Disable(gfx.ScissorTest)

	// Blend state
	ctx.Disable(gfx.Blend)
	ctx.ColorMask(true, true, true, true)

	// Depth stencil state
	ctx.Enable(gfx.DepthTest)
	ctx.DepthMask(true)

	ctx.BindBuffer(gfx.ShaderStorageBuffer, s.transformBuffer)
	gfx.BufferDataSlice(ctx, gfx.ShaderStorageBuffer, transforms, gfx.DynamicDraw)

	for u := 0; u < xformCount; u++ {
		// No multi-draw here, so the draw index goes through a uniform.
		ctx.Uniform1i(s.drawID, int32(u))
		ctx.DrawElements(gfx.Triangles, s.IndexCount, gfx.UnsignedShort, 0)
	}
}

// Shutdown releases every GPU resource. It does nothing unless Init succeeded
// and Shutdown has not run since.
func (s *SparseBindlessTextureArray) Shutdown(ctx gfx.Context) {
	if !s.initialized {
		return
	}
	s.release(ctx)
	s.initialized = false
}

// release frees whatever has been created so far.
func (s *SparseBindlessTextureArray) release(ctx gfx.Context) {
	if s.vao != 0 {
		ctx.DisableVertexAttribArray(1)
		ctx.DisableVertexAttribArray(0)
	}

	for _, tex := range s.textures {
		tex.Release(ctx)
	}
	s.textures = nil

	if s.vao != 0 {
		ctx.DeleteVertexArray(s.vao)
	}
	for _, buffer := range []*uint32{&s.indexBuffer, &s.vertexBuffer, &s.transformBuffer, &s.texAddressBuffer} {
		if *buffer != 0 {
			ctx.DeleteBuffer(*buffer)
			*buffer = 0
		}
	}
	s.vao = 0

	if s.program != nil {
		s.shaders.DestroyProgram(ctx, s.program)
		s.program = nil
	}

	if s.texManager != nil {
		if err := s.texManager.Shutdown(ctx); err != nil {
			core.LogError("solution '%s': texture system shutdown: %s", s.Name(), err)
		}
		s.texManager = nil
	}
}

var _ Solution = (*SparseBindlessTextureArray)(nil)
