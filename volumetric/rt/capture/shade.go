package capture

import (
	"context"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gekko3d/godrays/volumetric/rt/core"
	"github.com/gekko3d/godrays/volumetric/rt/worker"

	"github.com/go-gl/mathgl/mgl32"
)

const shadeBias = 0.08

var (
	SkyColor     = mgl32.Vec4{1, 1, 1, 1}
	AmbientColor = mgl32.Vec3{0.2, 0.22, 0.2}
)

// Shade renders the base frame: diffuse sun lighting with shadows plus a flat
// ambient term. Rays that miss show the sky. A sun with no direction
// contributes nothing, leaving the ambient term alone.
func Shade(ctx context.Context, scene *core.Scene, cam *core.Camera, sun *core.Sun, shadow *core.Texture, w, h int, workers int) (*core.Image, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("shade %dx%d: %w", w, h, ErrEmptyTarget)
	}
	rays := newCameraRays(cam, w, h)
	dir := sun.Direction()
	lit := dir.Len() > 0
	var shadowM mgl32.Mat4
	if lit {
		dir = dir.Normalize()
		shadowM = sun.ShadowMatrix()
	}
	toLight := dir.Mul(-1)
	sunColor := sun.Color.Mul(sun.Intensity)

	out := core.NewImage(w, h)
	err := worker.Rows(ctx, workers, h, func(y int) error {
		for x := 0; x < w; x++ {
			ray := rays.at(x, y)
			hit, ok := scene.Raycast(ray, cam.Far)
			if !ok {
				out.Set(x, y, SkyColor)
				continue
			}
			p := ray.At(hit.T)
			albedo := scene.Boxes[hit.Box].Albedo

			light := AmbientColor
			if ndl := hit.Normal.Dot(toLight); lit && ndl > 0 && inSunlight(p, sun, dir, shadowM, shadow) {
				light = light.Add(sunColor.Mul(ndl))
			}
			c := mgl32.Vec3{albedo[0] * light[0], albedo[1] * light[1], albedo[2] * light[2]}
			out.Set(x, y, c.Vec4(1))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("shade: %w", err)
	}
	return out, nil
}

func inSunlight(p mgl32.Vec3, sun *core.Sun, dir mgl32.Vec3, shadowM mgl32.Mat4, shadow *core.Texture) bool {
	if !shadow.Ready() {
		return true
	}
	c := shadowM.Mul4x1(p.Vec4(1))
	u := c.X()*0.5 + 0.5
	v := c.Y()*0.5 + 0.5
	if u < 0 || u > 1 || v < 0 || v > 1 {
		return true
	}
	stored := sun.ShadowNear + shadow.Sample(u, v)*(sun.ShadowFar-sun.ShadowNear)
	axial := p.Sub(sun.Position).Dot(dir)
	return stored > axial-shadeBias || math32.IsNaN(stored)
}
