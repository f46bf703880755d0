package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gekko3d/godrays/volumetric/rt/binder"
	"github.com/gekko3d/godrays/volumetric/rt/config"
	"github.com/gekko3d/godrays/volumetric/rt/kernel"
	"github.com/gekko3d/godrays/volumetric/rt/post"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	UniformSize         = 416
	BlurParamsSize      = 80
	CompositeParamsSize = 16
	WorkgroupSize       = 8
)

// WorkgroupCount is the number of 8-wide workgroups covering n pixels.
func WorkgroupCount(n int) uint32 {
	if n <= 0 {
		return 0
	}
	return uint32((n + WorkgroupSize - 1) / WorkgroupSize)
}

func putF32(buf []byte, offset int, v float32) {
	binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
}

func putMat4(buf []byte, offset int, m mgl32.Mat4) {
	for i, v := range m {
		putF32(buf, offset+i*4, v)
	}
}

func putVec3(buf []byte, offset int, v mgl32.Vec3, w float32) {
	putF32(buf, offset, v[0])
	putF32(buf, offset+4, v[1])
	putF32(buf, offset+8, v[2])
	putF32(buf, offset+12, w)
}

// PackUniforms lays out u as the Uniforms struct of scattering.wgsl.
func PackUniforms(u *binder.Uniforms) []byte {
	// struct Uniforms {
	//   inv_view, inv_transform, inv_project, shadow_matrix: mat4x4  -- 0..256
	//   light_position: vec3, shadow_near                            -- 256
	//   light_direction: vec3, shadow_far                            -- 272
	//   light_color: vec3, g                                         -- 288
	//   camera_position: vec3, step_size                             -- 304
	//   screen_size: vec2, near, far                                 -- 320
	//   aspect, tan_fov, bias, density                               -- 336
	//   dither: mat4x4                                               -- 352
	// } -> 416 bytes
	buf := make([]byte, UniformSize)
	c, l := &u.Camera, &u.Light

	putMat4(buf, 0, c.InvView)
	putMat4(buf, 64, c.InvTransform)
	putMat4(buf, 128, c.InvProjection)
	putMat4(buf, 192, l.ShadowMatrix)

	putVec3(buf, 256, l.Position, l.ShadowNear)
	putVec3(buf, 272, l.Direction, l.ShadowFar)
	putVec3(buf, 288, l.Color, u.G)
	putVec3(buf, 304, c.Position, u.Step)

	putF32(buf, 320, float32(c.Width))
	putF32(buf, 324, float32(c.Height))
	putF32(buf, 328, c.Near)
	putF32(buf, 332, c.Far)

	putF32(buf, 336, c.Aspect)
	putF32(buf, 340, c.TanFov)
	putF32(buf, 344, u.Bias)
	putF32(buf, 348, u.Density)

	// Column i of the shader matrix is row i of the dither pattern, so
	// dither[x % 4][y % 4] matches the CPU kernel.
	for i, v := range kernel.DitherValues {
		putF32(buf, 352+i*4, v)
	}
	return buf
}

// PackBlurParams lays out the BlurParams struct of blur.wgsl. radius is
// clamped to [0, config.MaxBlurRadius].
func PackBlurParams(axis post.Axis, radius int) []byte {
	radius = max(0, min(radius, config.MaxBlurRadius))
	buf := make([]byte, BlurParamsSize)
	dx, dy := int32(1), int32(0)
	if axis == post.Vertical {
		dx, dy = 0, 1
	}
	binary.LittleEndian.PutUint32(buf[0:], uint32(dx))
	binary.LittleEndian.PutUint32(buf[4:], uint32(dy))
	binary.LittleEndian.PutUint32(buf[8:], uint32(int32(radius)))
	for i, w := range post.GaussianWeights(radius) {
		putF32(buf, 16+i*4, w)
	}
	return buf
}

func PackCompositeParams(overlay bool) []byte {
	buf := make([]byte, CompositeParamsSize)
	if overlay {
		putF32(buf, 0, 1)
	}
	return buf
}
