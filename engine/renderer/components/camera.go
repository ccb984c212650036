package components

import (
	"github.com/spaghettifunk/quadbench/engine/math"
)

/**
 * @brief A camera looking from Position towards Target. The view matrix is
 * rebuilt lazily after either point moves.
 */
type Camera struct {
	Position math.Vec3
	Target   math.Vec3
	Up       math.Vec3
	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty bool
	// ViewMatrix is stale while IsDirty is set, use View().
	ViewMatrix math.Mat4
}

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

// Reset places the camera at one unit down -Z looking at the origin.
func (c *Camera) Reset() {
	c.Position = math.NewVec3(0, 0, -1)
	c.Target = math.NewVec3Zero()
	c.Up = math.NewVec3Up()
	c.IsDirty = true
}

func (c *Camera) SetPosition(position math.Vec3) {
	c.Position = position
	c.IsDirty = true
}

func (c *Camera) SetTarget(target math.Vec3) {
	c.Target = target
	c.IsDirty = true
}

// Orbit puts the camera distance units behind target along dir, looking at target.
func (c *Camera) Orbit(target, dir math.Vec3, distance float32) {
	c.Target = target
	c.Position = target.Sub(dir.Normalize().MulScalar(distance))
	c.IsDirty = true
}

func (c *Camera) View() math.Mat4 {
	if c.IsDirty {
		c.ViewMatrix = math.NewMat4LookAt(c.Position, c.Target, c.Up)
		c.IsDirty = false
	}
	return c.ViewMatrix
}

// ViewProjection returns View() * proj in the row-vector convention.
func (c *Camera) ViewProjection(proj math.Mat4) math.Mat4 {
	return c.View().Mul(proj)
}
