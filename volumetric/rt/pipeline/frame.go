// Package pipeline orders the scattering passes of a frame and produces their
// upstream inputs.
package pipeline

import (
	"github.com/gekko3d/godrays/volumetric/rt/binder"
	"github.com/gekko3d/godrays/volumetric/rt/core"
)

// Frame is the explicit per-frame context passed through every stage.
// Textures are produced before the binder runs and are read-only afterwards.
type Frame struct {
	Index  uint64
	Time   float32 // seconds since start, animates the noise field
	Camera *core.Camera
	Sun    *core.Sun
	Width  int
	Height int

	Depth  *core.Texture
	Shadow *core.Texture
	Noise  *core.Texture
	Base   *core.Image
}

func (f *Frame) bindInputs() binder.Inputs {
	return binder.Inputs{
		Camera: f.Camera,
		Sun:    f.Sun,
		Width:  f.Width,
		Height: f.Height,
		Depth:  f.Depth,
		Shadow: f.Shadow,
		Noise:  f.Noise,
	}
}
