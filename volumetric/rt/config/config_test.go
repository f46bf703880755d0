package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	for _, name := range []string{"default", "high", "performance"} {
		cfg, err := Preset(name)
		require.NoError(t, err)
		assert.NoError(t, cfg.Validate(), name)
		assert.Equal(t, 9, cfg.Blur.Radius, name)
		assert.Equal(t, float32(0.01), cfg.Scattering.Bias, name)
		assert.Equal(t, float32(50), cfg.Scattering.Density, name)
	}

	_, err := Preset("ultra")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad_TOMLKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[render]
width = 320
height = 200

[scattering]
g = 0.5
`), 0o644))

	cfg, err := Load(path, Default())
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Render.Width)
	assert.Equal(t, 200, cfg.Render.Height)
	assert.Equal(t, float32(0.5), cfg.Scattering.G)
	assert.Equal(t, float32(0.01), cfg.Scattering.Step)
	assert.Equal(t, 1024, cfg.Sun.ShadowMapSize)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sun:\n  position: [1, 8, 2]\n  shadow_map_size: 256\nrender:\n  frame_budget_ms: 20\n"), 0o644))

	cfg, err := Load(path, Default())
	require.NoError(t, err)
	assert.Equal(t, [3]float32{1, 8, 2}, cfg.Sun.Position)
	assert.Equal(t, 256, cfg.Sun.ShadowMapSize)
	assert.Equal(t, 20*time.Millisecond, cfg.Render.FrameBudget())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.toml"), Default())
	assert.Error(t, err)

	ini := filepath.Join(dir, "scene.ini")
	require.NoError(t, os.WriteFile(ini, []byte("x=1"), 0o644))
	_, err = Load(ini, Default())
	assert.ErrorIs(t, err, ErrInvalid)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[camera]\nnear = 10\nfar = 5\n"), 0o644))
	_, err = Load(bad, Default())
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.toml")
	want := Performance()
	require.NoError(t, Save(path, want))

	got, err := Load(path, Default())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestValidate_CollectsProblems(t *testing.T) {
	cfg := Default()
	cfg.Render.Width = 0
	cfg.Scattering.Step = 0
	cfg.Blur.Radius = 40

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "render size")
	assert.Contains(t, err.Error(), "scattering step")
	assert.Contains(t, err.Error(), "blur radius")
}

func TestBuild(t *testing.T) {
	cfg := Default()
	cam := cfg.Camera.Build()
	assert.InDelta(t, math32.Pi*0.3, cam.FovY, 1e-5)
	assert.Equal(t, mgl32.Vec3{-3.66, 1.86, 1.75}, cam.Position)

	sun := cfg.Sun.Build()
	assert.Equal(t, mgl32.Vec3{-5, -5, 15}, sun.Direction())
	assert.Equal(t, float32(20), sun.ShadowExtent)
}
