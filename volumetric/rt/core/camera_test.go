package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestCamera_ViewLooksDownNegativeZ(t *testing.T) {
	cam := NewCamera()
	target := cam.View().Mul4x1(cam.Target.Vec4(1))

	assert.InDelta(t, 0, target.X(), 1e-4)
	assert.InDelta(t, 0, target.Y(), 1e-4)
	assert.Less(t, target.Z(), float32(0))
	assert.InDelta(t, cam.Target.Sub(cam.Position).Len(), -target.Z(), 1e-4)
}

func TestCamera_TransformMapsTargetToClipCenter(t *testing.T) {
	cam := NewCamera()
	clip := cam.Transform(16.0 / 9.0).Mul4x1(cam.Target.Vec4(1))
	ndc := clip.Vec3().Mul(1 / clip.W())

	assert.InDelta(t, 0, ndc.X(), 1e-4)
	assert.InDelta(t, 0, ndc.Y(), 1e-4)
	assert.True(t, ndc.Z() > -1 && ndc.Z() < 1)
}

func TestCamera_OrbitKeepsDistance(t *testing.T) {
	cam := NewCamera()
	before := cam.Position.Sub(cam.Target).Len()

	cam.Orbit(0.4, 0.1)

	assert.InDelta(t, before, cam.Position.Sub(cam.Target).Len(), 1e-4)
	assert.False(t, cam.Position.ApproxEqual(NewCamera().Position))
}

func TestCamera_ForwardFallback(t *testing.T) {
	cam := &Camera{Position: mgl32.Vec3{1, 1, 1}, Target: mgl32.Vec3{1, 1, 1}}
	assert.Equal(t, mgl32.Vec3{0, 0, -1}, cam.Forward())
}
