package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a right-handed perspective camera looking from Position at Target.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	FovY     float32 // radians
	Near     float32
	Far      float32
}

func NewCamera() *Camera {
	return &Camera{
		Position: mgl32.Vec3{-3.66, 1.86, 1.75},
		Target:   mgl32.Vec3{0.6, 2.5, 0},
		Up:       mgl32.Vec3{0, 1, 0},
		FovY:     math32.Pi * 0.3,
		Near:     0.1,
		Far:      50,
	}
}

func (c *Camera) up() mgl32.Vec3 {
	if c.Up.Len() == 0 {
		return mgl32.Vec3{0, 1, 0}
	}
	return c.Up
}

func (c *Camera) Forward() mgl32.Vec3 {
	f := c.Target.Sub(c.Position)
	if f.Len() == 0 {
		return mgl32.Vec3{0, 0, -1}
	}
	return f.Normalize()
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.up())
}

func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(c.FovY, aspect, c.Near, c.Far)
}

// Transform is the combined world-to-clip matrix.
func (c *Camera) Transform(aspect float32) mgl32.Mat4 {
	return c.Projection(aspect).Mul4(c.View())
}

func (c *Camera) TanHalfFov() float32 {
	return math32.Tan(c.FovY * 0.5)
}

// Orbit rotates the camera position around its target by yaw (about Up) and pitch (about the right axis).
func (c *Camera) Orbit(yaw, pitch float32) {
	offset := c.Position.Sub(c.Target)
	up := c.up().Normalize()
	right := up.Cross(offset)
	if right.Len() == 0 {
		right = mgl32.Vec3{1, 0, 0}
	}
	q := mgl32.QuatRotate(yaw, up).Mul(mgl32.QuatRotate(pitch, right.Normalize()))
	rotated := q.Rotate(offset)

	// Keep away from the poles so LookAt stays well defined.
	if d := rotated.Normalize().Dot(up); d > 0.99 || d < -0.99 {
		rotated = mgl32.QuatRotate(yaw, up).Rotate(offset)
	}
	c.Position = c.Target.Add(rotated)
}
