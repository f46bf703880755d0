// Package kernel implements the per-pixel volumetric scattering ray march.
package kernel

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/chewxy/math32"
	"github.com/gekko3d/godrays/volumetric/rt/binder"
	"github.com/gekko3d/godrays/volumetric/rt/core"
	"github.com/gekko3d/godrays/volumetric/rt/worker"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	OcclusionBias   = 0.01
	Density         = 50.0
	ShadowTexScale  = 0.5
	ShadowTexOffset = 0.5
	IntensityScale  = 0.25
	IntensityBias   = 0.8
)

// Linearize maps a depth fraction to camera-space distance. d is clamped to [0,1].
func Linearize(d, near, far float32) float32 {
	return near + core.Saturate(d)*(far-near)
}

// CameraSpace un-projects uv at depth fraction d into right-handed camera space.
func CameraSpace(uv mgl32.Vec2, d float32, c *binder.CameraFrame) mgl32.Vec3 {
	z := Linearize(d, c.Near, c.Far)
	ndcX := uv.X()*2 - 1
	ndcY := uv.Y()*2 - 1
	return mgl32.Vec3{z * ndcX * c.Aspect * c.TanFov, z * ndcY * c.TanFov, -z}
}

func WorldPoint(uv mgl32.Vec2, d float32, c *binder.CameraFrame) mgl32.Vec3 {
	return c.InvView.Mul4x1(CameraSpace(uv, d, c).Vec4(1)).Vec3()
}

// ShadowCoord projects a world point into shadow texture space.
func ShadowCoord(p mgl32.Vec3, l *binder.LightFrame) mgl32.Vec2 {
	c := l.ShadowMatrix.Mul4x1(p.Vec4(1))
	return mgl32.Vec2{c.X()*ShadowTexScale + ShadowTexOffset, c.Y()*ShadowTexScale + ShadowTexOffset}
}

// RealShadowDepth converts a stored shadow depth fraction, clamped to [0,1],
// to light-space distance.
func RealShadowDepth(s float32, l *binder.LightFrame) float32 {
	return l.ShadowNear + core.Saturate(s)*(l.ShadowFar-l.ShadowNear)
}

func IsLit(shadowDepth, pointDepth, bias float32) bool {
	return shadowDepth > pointDepth-bias
}

func Transmittance(optical, density float32) float32 {
	return math32.Exp(-optical * density)
}

func ScaledIntensity(weight float32) float32 {
	return IntensityScale*weight + IntensityBias
}

// Sample is the result of marching one pixel.
type Sample struct {
	Optical float32 // lit path length
	Weight  float32 // accumulated noise intensity
	Steps   int
	Lit     int
	Phase   float32
	Color   mgl32.Vec4
}

// Stats are totals over one Run.
type Stats struct {
	Steps int64
	Lit   int64
}

// Kernel marches every pixel of the render target against read-only inputs.
type Kernel struct {
	U      *binder.Uniforms
	Depth  *core.Texture
	Shadow *core.Texture
	Noise  *core.Texture
}

func (k *Kernel) Pixel(x, y int) Sample {
	u := k.U
	cam := &u.Camera
	light := &u.Light
	uv := mgl32.Vec2{
		(float32(x) + 0.5) / float32(cam.Width),
		(float32(y) + 0.5) / float32(cam.Height),
	}

	var s Sample
	camDepth := core.Saturate(k.Depth.Sample(uv.X(), uv.Y()))
	if step := u.Step; step > 0 {
		t0 := DitherOffset(x, y, step)
		for i := 0; ; i++ {
			t := t0 + float32(i)*step
			if t >= camDepth {
				break
			}
			p := WorldPoint(uv, t, cam)
			sc := ShadowCoord(p, light)
			shadow := RealShadowDepth(k.Shadow.Sample(sc.X(), sc.Y()), light)
			if IsLit(shadow, core.LightAxisDistance(light.Position, p), u.Bias) {
				s.Optical += step
				s.Weight += k.Noise.Sample(sc.X(), sc.Y())
				s.Lit++
			}
			s.Steps++
		}
	}

	ray := WorldPoint(uv, 1, cam).Sub(cam.Position)
	s.Phase = Phase(u.G, LightDotView(light.Direction, ray)) * PhaseScale
	rgb := light.Color.Mul(s.Phase * ScaledIntensity(s.Weight))
	s.Color = rgb.Vec4(1 - Transmittance(s.Optical, u.Density))
	return s
}

// Run fills out with the scattering image. Pixels are independent and are
// processed in parallel rows.
func (k *Kernel) Run(ctx context.Context, workers int, out *core.Image) (Stats, error) {
	w, h := k.U.Camera.Width, k.U.Camera.Height
	if out == nil || out.Width != w || out.Height != h {
		return Stats{}, fmt.Errorf("kernel: output does not match %dx%d target", w, h)
	}

	var steps, lit atomic.Int64
	err := worker.Rows(ctx, workers, h, func(y int) error {
		var rowSteps, rowLit int64
		for x := 0; x < w; x++ {
			s := k.Pixel(x, y)
			out.Set(x, y, s.Color)
			rowSteps += int64(s.Steps)
			rowLit += int64(s.Lit)
		}
		steps.Add(rowSteps)
		lit.Add(rowLit)
		return nil
	})
	stats := Stats{Steps: steps.Load(), Lit: lit.Load()}
	if err != nil {
		return stats, fmt.Errorf("kernel: %w", err)
	}
	return stats, nil
}
