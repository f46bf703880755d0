package binder

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/gekko3d/godrays"
	"github.com/gekko3d/godrays/volumetric/rt/config"
	"github.com/gekko3d/godrays/volumetric/rt/core"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func readyInputs() Inputs {
	depth := core.NewTexture(4, 4)
	shadow := core.NewTexture(8, 8)
	noise := core.NewTexture(2, 2)
	return Inputs{
		Camera: core.NewCamera(),
		Sun:    core.NewSun(),
		Width:  160,
		Height: 90,
		Depth:  depth,
		Shadow: shadow,
		Noise:  noise,
	}
}

func TestBind_Snapshot(t *testing.T) {
	in := readyInputs()
	cam := *in.Camera
	sun := *in.Sun

	u, err := New(config.Default().Scattering, nil).Bind(in)
	require.NoError(t, err)

	assert.InDelta(t, 160.0/90.0, u.Camera.Aspect, 1e-6)
	assert.InDelta(t, math32.Tan(in.Camera.FovY/2), u.Camera.TanFov, 1e-6)
	assertIdentity(t, u.Camera.InvView.Mul4(in.Camera.View()), 1e-4)
	assertIdentity(t, u.Camera.InvProjection.Mul4(in.Camera.Projection(u.Camera.Aspect)), 1e-3)
	assert.InDelta(t, 1, u.Light.Direction.Len(), 1e-6)
	assert.Equal(t, in.Sun.ShadowMatrix(), u.Light.ShadowMatrix)
	assert.Equal(t, 8, u.Light.ShadowMapSize)
	assert.Equal(t, float32(0.2), u.G)
	assert.Equal(t, float32(0.01), u.Step)
	assert.Equal(t, float32(0.01), u.Bias)
	assert.Equal(t, float32(50), u.Density)

	// Binding never mutates the camera or the light.
	assert.Equal(t, cam, *in.Camera)
	assert.Equal(t, sun, *in.Sun)
}

func TestBind_CameraPositionRecoveredFromInverseView(t *testing.T) {
	in := readyInputs()
	u, err := New(config.Default().Scattering, nil).Bind(in)
	require.NoError(t, err)

	eye := u.Camera.InvView.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, in.Camera.Position[i], eye[i], 1e-4)
	}
}

func TestBind_ResourceNotReady(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *Inputs)
		want   string
	}{
		{"no depth", func(in *Inputs) { in.Depth = nil }, "camera depth"},
		{"empty shadow", func(in *Inputs) { in.Shadow = &core.Texture{} }, "shadow map"},
		{"no noise", func(in *Inputs) { in.Noise = nil }, "noise field"},
		{"no camera", func(in *Inputs) { in.Camera = nil }, "camera"},
		{"zero size", func(in *Inputs) { in.Height = 0 }, "render target"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := readyInputs()
			tt.mutate(&in)
			u, err := New(config.Default().Scattering, nil).Bind(in)
			assert.Nil(t, u)
			require.ErrorIs(t, err, ErrResourceNotReady)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBind_SingularFallsBackToIdentity(t *testing.T) {
	obs, logs := observer.New(zapcore.WarnLevel)
	logger := godrays.NewLoggerWithCore(obs, "binder", false)

	in := readyInputs()
	// Zero field of view collapses the projection.
	in.Camera.FovY = 0
	u, err := New(config.Default().Scattering, logger).Bind(in)
	require.NoError(t, err)

	assert.Equal(t, mgl32.Ident4(), u.Camera.InvProjection)
	assert.Equal(t, mgl32.Ident4(), u.Camera.InvTransform)
	assert.GreaterOrEqual(t, logs.Len(), 2)
}

func TestBind_DegenerateSunAndAsymmetry(t *testing.T) {
	obs, logs := observer.New(zapcore.WarnLevel)
	logger := godrays.NewLoggerWithCore(obs, "", false)

	cfg := config.Default().Scattering
	cfg.G = 1
	in := readyInputs()
	in.Sun.SetTarget(in.Sun.Position)

	u, err := New(cfg, logger).Bind(in)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{0, -1, 0}, u.Light.Direction)
	assert.Equal(t, 2, logs.Len())
}

func TestInverse(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3)
	assertIdentity(t, inverse(m, "t", godrays.NewNopLogger()).Mul4(m), 1e-6)
	assert.Equal(t, mgl32.Ident4(), inverse(mgl32.Mat4{}, "zero", godrays.NewNopLogger()))
}

func assertIdentity(t *testing.T, m mgl32.Mat4, delta float64) {
	t.Helper()
	id := mgl32.Ident4()
	for i := range m {
		assert.InDelta(t, id[i], m[i], delta, "element %d of %v", i, m)
	}
}
