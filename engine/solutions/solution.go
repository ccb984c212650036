// Package solutions holds the interchangeable techniques that draw the
// textured quads problem, and the problem itself.
package solutions

import (
	"fmt"

	"github.com/spaghettifunk/quadbench/engine/core"
	"github.com/spaghettifunk/quadbench/engine/math"
	"github.com/spaghettifunk/quadbench/engine/renderer/gfx"
	"github.com/spaghettifunk/quadbench/engine/renderer/metadata"
)

const (
	fieldOfView = 45.0
	nearClip    = 0.1
	farClip     = 10000.0
)

// Solution is one technique for drawing every object of the problem. Init,
// Render and Shutdown must run on the thread owning ctx.
type Solution interface {
	Name() string
	// Init creates every GPU resource the technique needs. On error nothing
	// created is left alive and the solution must not be rendered.
	Init(ctx gfx.Context, vertices []metadata.Vertex, indices []metadata.Index, textures []*metadata.TextureDetails, objectCount int) error
	// Render draws one object per transform. Passing more transforms than the
	// object count given to Init panics.
	Render(ctx gfx.Context, transforms []math.Mat4)
	Shutdown(ctx gfx.Context)
	// SetSize updates the projection for a new framebuffer size.
	SetSize(width, height uint32)
}

/**
 * @brief State shared by every solution: the problem geometry, the number of
 * objects and the projection matrix.
 */
type Base struct {
	Vertices    []metadata.Vertex
	Indices     []metadata.Index
	IndexCount  int32
	ObjectCount int
	Proj        math.Mat4

	width  uint32
	height uint32
}

func (b *Base) SetSize(width, height uint32) {
	b.width, b.height = width, height
	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}
	b.Proj = math.NewMat4Perspective(math.DegToRad(fieldOfView), aspect, nearClip, farClip)
}

// Init records the geometry and object count.
func (b *Base) Init(vertices []metadata.Vertex, indices []metadata.Index, textures []*metadata.TextureDetails, objectCount int) error {
	switch {
	case len(vertices) == 0:
		return fmt.Errorf("%w: no vertices", core.ErrInvalidConfig)
	case len(indices) == 0:
		return fmt.Errorf("%w: no indices", core.ErrInvalidConfig)
	case len(textures) == 0:
		return fmt.Errorf("%w: no textures", core.ErrInvalidConfig)
	case objectCount <= 0:
		return fmt.Errorf("%w: object count %d", core.ErrInvalidConfig, objectCount)
	}

	b.Vertices = vertices
	b.Indices = indices
	b.IndexCount = int32(len(indices))
	b.ObjectCount = objectCount
	if b.width == 0 || b.height == 0 {
		b.SetSize(b.width, b.height)
	}
	return nil
}
