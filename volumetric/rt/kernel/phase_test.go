package kernel

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestPhase_IsotropicIsSymmetric(t *testing.T) {
	for _, c := range []float32{-1, -0.5, 0, 0.3, 1} {
		assert.InDelta(t, 1/(4*math32.Pi), Phase(0, c), 1e-7)
		assert.InDelta(t, Phase(0, c), Phase(0, -c), 1e-7)
	}
}

func TestPhase_ForwardScatteringDominates(t *testing.T) {
	for _, g := range []float32{0.05, 0.2, 0.6, 0.95} {
		assert.Greater(t, Phase(g, 1), Phase(g, -1), "g=%v", g)
		assert.Greater(t, Phase(g, 0.9), Phase(g, 0.1), "g=%v", g)
		assert.Less(t, Phase(-g, 1), Phase(-g, -1), "g=%v", -g)
	}
}

func TestPhase_ClampsAsymmetry(t *testing.T) {
	for _, g := range []float32{1, -1, 5, float32(math32.NaN())} {
		p := Phase(g, 1)
		assert.False(t, math32.IsInf(p, 0) || math32.IsNaN(p), "g=%v", g)
	}
	assert.Equal(t, float32(MaxAsymmetry), ClampAsymmetry(1))
	assert.Equal(t, float32(-MaxAsymmetry), ClampAsymmetry(-3))
	assert.Equal(t, float32(0.2), ClampAsymmetry(0.2))
	assert.Equal(t, Phase(MaxAsymmetry, 0.5), Phase(1, 0.5))
}

func TestLightDotView(t *testing.T) {
	light := mgl32.Vec3{-5, -5, 15}
	toSun := mgl32.Vec3{5, 5, -15}
	assert.InDelta(t, 1, LightDotView(light, toSun), 1e-6)
	assert.InDelta(t, -1, LightDotView(light, light), 1e-6)
	assert.Equal(t, float32(0), LightDotView(mgl32.Vec3{}, toSun))
}
