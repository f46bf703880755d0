// Package binder computes the per-frame uniform snapshot consumed by the
// scattering kernel.
package binder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"github.com/gekko3d/godrays"
	"github.com/gekko3d/godrays/volumetric/rt/config"
	"github.com/gekko3d/godrays/volumetric/rt/core"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrResourceNotReady = errors.New("binder: resource not ready")

// CameraFrame holds the inverse camera matrices and projection terms.
type CameraFrame struct {
	InvView       mgl32.Mat4
	InvTransform  mgl32.Mat4
	InvProjection mgl32.Mat4
	Position      mgl32.Vec3
	Near          float32
	Far           float32
	Aspect        float32
	TanFov        float32
	Width         int
	Height        int
}

// LightFrame holds the sun parameters. Direction is normalized.
type LightFrame struct {
	Position      mgl32.Vec3
	Direction     mgl32.Vec3
	ShadowNear    float32
	ShadowFar     float32
	Color         mgl32.Vec3
	ShadowMatrix  mgl32.Mat4
	ShadowMapSize int
}

// Uniforms is the immutable snapshot bound to one kernel invocation.
type Uniforms struct {
	Camera  CameraFrame
	Light   LightFrame
	G       float32
	Step    float32
	Bias    float32
	Density float32
}

// Inputs are the live frame resources the snapshot is derived from.
type Inputs struct {
	Camera *core.Camera
	Sun    *core.Sun
	Width  int
	Height int
	Depth  *core.Texture
	Shadow *core.Texture
	Noise  *core.Texture
}

type Binder struct {
	Scattering config.Scattering
	Logger     godrays.Logger
}

func New(cfg config.Scattering, logger godrays.Logger) *Binder {
	return &Binder{Scattering: cfg, Logger: godrays.OrNop(logger)}
}

// Bind computes the uniform snapshot for one frame. It fails with
// ErrResourceNotReady when any upstream resource is missing, in which case the
// kernel must not run this frame. Camera and sun are only read.
func (b *Binder) Bind(in Inputs) (*Uniforms, error) {
	if err := ready(in); err != nil {
		return nil, err
	}
	log := godrays.OrNop(b.Logger)

	aspect := float32(in.Width) / float32(in.Height)
	view := in.Camera.View()
	proj := in.Camera.Projection(aspect)

	dir := in.Sun.Direction()
	if dir.Len() == 0 {
		log.Warnf("sun direction is zero, pointing straight down")
		dir = mgl32.Vec3{0, -1, 0}
	}
	if g := b.Scattering.G; g <= -1 || g >= 1 || math32.IsNaN(g) {
		log.Warnf("scattering asymmetry %v outside (-1,1), it will be clamped", g)
	}

	return &Uniforms{
		Camera: CameraFrame{
			InvView:       inverse(view, "view", log),
			InvTransform:  inverse(proj.Mul4(view), "transform", log),
			InvProjection: inverse(proj, "projection", log),
			Position:      in.Camera.Position,
			Near:          in.Camera.Near,
			Far:           in.Camera.Far,
			Aspect:        aspect,
			TanFov:        in.Camera.TanHalfFov(),
			Width:         in.Width,
			Height:        in.Height,
		},
		Light: LightFrame{
			Position:      in.Sun.Position,
			Direction:     dir.Normalize(),
			ShadowNear:    in.Sun.ShadowNear,
			ShadowFar:     in.Sun.ShadowFar,
			Color:         in.Sun.Color,
			ShadowMatrix:  in.Sun.ShadowMatrix(),
			ShadowMapSize: in.Shadow.Width,
		},
		G:       b.Scattering.G,
		Step:    b.Scattering.Step,
		Bias:    b.Scattering.Bias,
		Density: b.Scattering.Density,
	}, nil
}

func ready(in Inputs) error {
	var missing []string
	if in.Camera == nil {
		missing = append(missing, "camera")
	}
	if in.Sun == nil {
		missing = append(missing, "sun")
	}
	if in.Width <= 0 || in.Height <= 0 {
		missing = append(missing, fmt.Sprintf("render target %dx%d", in.Width, in.Height))
	}
	if !in.Depth.Ready() {
		missing = append(missing, "camera depth")
	}
	if !in.Shadow.Ready() {
		missing = append(missing, "shadow map")
	}
	if !in.Noise.Ready() {
		missing = append(missing, "noise field")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrResourceNotReady, strings.Join(missing, ", "))
	}
	return nil
}

// inverse falls back to identity when m cannot be inverted.
func inverse(m mgl32.Mat4, name string, log godrays.Logger) mgl32.Mat4 {
	det := m.Det()
	if det == 0 || math32.IsNaN(det) || math32.IsInf(det, 0) {
		log.Warnf("%s matrix is singular, using identity", name)
		return mgl32.Ident4()
	}
	return m.Inv()
}
