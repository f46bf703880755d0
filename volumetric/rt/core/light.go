package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Sun is a directional light shining from Position towards Target.
// Shadows are cast within [ShadowNear, ShadowFar] along its axis and
// ShadowExtent on either side of it.
type Sun struct {
	Position     mgl32.Vec3
	Target       mgl32.Vec3
	Color        mgl32.Vec3
	Intensity    float32
	ShadowNear   float32
	ShadowFar    float32
	ShadowExtent float32
}

func NewSun() *Sun {
	return &Sun{
		Position:     mgl32.Vec3{5, 5, -15},
		Target:       mgl32.Vec3{0, 0, 0},
		Color:        mgl32.Vec3{1, 1, 0.9},
		Intensity:    0.9,
		ShadowNear:   0,
		ShadowFar:    50,
		ShadowExtent: 20,
	}
}

func (s *Sun) SetPosition(p mgl32.Vec3) { s.Position = p }
func (s *Sun) SetTarget(p mgl32.Vec3)   { s.Target = p }
func (s *Sun) SetColor(c mgl32.Vec3)    { s.Color = c }
func (s *Sun) SetIntensity(i float32)   { s.Intensity = i }

// Direction is the unnormalized direction the sun is shining.
func (s *Sun) Direction() mgl32.Vec3 {
	return s.Target.Sub(s.Position)
}

func (s *Sun) up() mgl32.Vec3 {
	dir := s.Direction()
	if dir.Len() == 0 {
		return mgl32.Vec3{0, 1, 0}
	}
	if d := math32.Abs(dir.Normalize().Y()); d > 0.999 {
		return mgl32.Vec3{0, 0, 1}
	}
	return mgl32.Vec3{0, 1, 0}
}

func (s *Sun) View() mgl32.Mat4 {
	target := s.Target
	if s.Direction().Len() == 0 {
		target = s.Position.Add(mgl32.Vec3{0, -1, 0})
	}
	return mgl32.LookAtV(s.Position, target, s.up())
}

func (s *Sun) Projection() mgl32.Mat4 {
	e := s.ShadowExtent
	return mgl32.Ortho(-e, e, -e, e, s.ShadowNear, s.ShadowFar)
}

// ShadowMatrix maps world space to the light's clip space.
func (s *Sun) ShadowMatrix() mgl32.Mat4 {
	return s.Projection().Mul4(s.View())
}

// LightAxisDistance is the distance of p from a light at lightPos, measured along
// the axis from the light towards the origin.
func LightAxisDistance(lightPos, p mgl32.Vec3) float32 {
	l := lightPos.Len()
	if l == 0 {
		return 0
	}
	return l - p.Dot(lightPos)/l
}
