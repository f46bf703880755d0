// Package capture produces the upstream inputs of the scattering pass by
// raycasting a box scene: linear camera depth, the sun's shadow map and a
// lit base frame.
package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/gekko3d/godrays/volumetric/rt/core"
	"github.com/gekko3d/godrays/volumetric/rt/worker"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrEmptyTarget     = errors.New("capture: empty target")
	ErrDegenerateLight = errors.New("capture: degenerate light")
)

// DefaultClearDepth is written where a camera ray hits nothing.
const DefaultClearDepth = 1.0

// cameraRays generates one ray per pixel centre. The camera-space direction has
// z = -1, so the ray parameter of a hit equals its view-space depth.
type cameraRays struct {
	origin  mgl32.Vec3
	invView mgl32.Mat4
	aspect  float32
	tanFov  float32
	width   int
	height  int
}

func newCameraRays(cam *core.Camera, w, h int) cameraRays {
	return cameraRays{
		origin:  cam.Position,
		invView: cam.View().Inv(),
		aspect:  float32(w) / float32(h),
		tanFov:  cam.TanHalfFov(),
		width:   w,
		height:  h,
	}
}

func (c cameraRays) at(x, y int) core.Ray {
	ndcX := (float32(x)+0.5)/float32(c.width)*2 - 1
	ndcY := (float32(y)+0.5)/float32(c.height)*2 - 1
	dir := mgl32.Vec4{ndcX * c.aspect * c.tanFov, ndcY * c.tanFov, -1, 0}
	return core.Ray{Origin: c.origin, Direction: c.invView.Mul4x1(dir).Vec3()}
}

// Depth renders the linear depth fraction (t - near) / (far - near) of the first
// hit per pixel. Pixels without a hit get clearDepth.
func Depth(ctx context.Context, scene *core.Scene, cam *core.Camera, w, h int, clearDepth float32, workers int) (*core.Texture, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("depth %dx%d: %w", w, h, ErrEmptyTarget)
	}
	rays := newCameraRays(cam, w, h)
	span := cam.Far - cam.Near
	clearDepth = core.Saturate(clearDepth)

	out := core.NewTexture(w, h)
	err := worker.Rows(ctx, workers, h, func(y int) error {
		for x := 0; x < w; x++ {
			d := clearDepth
			if hit, ok := scene.Raycast(rays.at(x, y), cam.Far); ok {
				d = core.Saturate((hit.T - cam.Near) / span)
			}
			out.Set(x, y, d)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("depth: %w", err)
	}
	return out, nil
}

// ShadowMap renders the sun's depth map. Rays start on the light's near plane
// and travel along its direction; texels store the normalized distance along
// that axis, or 1 when nothing is hit within the shadow range.
func ShadowMap(ctx context.Context, scene *core.Scene, sun *core.Sun, size int, workers int) (*core.Texture, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shadow map %d: %w", size, ErrEmptyTarget)
	}
	dir := sun.Direction()
	span := sun.ShadowFar - sun.ShadowNear
	if dir.Len() == 0 || span <= 0 {
		return nil, ErrDegenerateLight
	}
	dir = dir.Normalize()
	inv := sun.ShadowMatrix().Inv()

	out := core.NewTexture(size, size)
	err := worker.Rows(ctx, workers, size, func(j int) error {
		ndcY := (float32(j)+0.5)/float32(size)*2 - 1
		for i := 0; i < size; i++ {
			ndcX := (float32(i)+0.5)/float32(size)*2 - 1
			o := inv.Mul4x1(mgl32.Vec4{ndcX, ndcY, -1, 1})
			origin := o.Vec3().Mul(1 / o.W())

			d := float32(1)
			if hit, ok := scene.Raycast(core.Ray{Origin: origin, Direction: dir}, span); ok {
				d = core.Saturate(hit.T / span)
			}
			out.Set(i, j, d)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("shadow map: %w", err)
	}
	return out, nil
}
