// Package config holds the tunables of the scattering renderer and loads them
// from TOML or YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gekko3d/godrays/volumetric/rt/core"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Render     Render     `toml:"render" yaml:"render"`
	Camera     Camera     `toml:"camera" yaml:"camera"`
	Sun        Sun        `toml:"sun" yaml:"sun"`
	Scattering Scattering `toml:"scattering" yaml:"scattering"`
	Noise      Noise      `toml:"noise" yaml:"noise"`
	Blur       Blur       `toml:"blur" yaml:"blur"`
	Output     Output     `toml:"output" yaml:"output"`
}

type Render struct {
	Width         int     `toml:"width" yaml:"width"`
	Height        int     `toml:"height" yaml:"height"`
	Workers       int     `toml:"workers" yaml:"workers"`               // 0 = one per CPU
	FrameBudgetMs int     `toml:"frame_budget_ms" yaml:"frame_budget_ms"` // 0 = no deadline
	ClearDepth    float32 `toml:"clear_depth" yaml:"clear_depth"`
}

type Camera struct {
	Position   [3]float32 `toml:"position" yaml:"position"`
	Target     [3]float32 `toml:"target" yaml:"target"`
	FovDegrees float32    `toml:"fov_degrees" yaml:"fov_degrees"`
	Near       float32    `toml:"near" yaml:"near"`
	Far        float32    `toml:"far" yaml:"far"`
}

type Sun struct {
	Position      [3]float32 `toml:"position" yaml:"position"`
	Target        [3]float32 `toml:"target" yaml:"target"`
	Color         [3]float32 `toml:"color" yaml:"color"`
	Intensity     float32    `toml:"intensity" yaml:"intensity"`
	ShadowNear    float32    `toml:"shadow_near" yaml:"shadow_near"`
	ShadowFar     float32    `toml:"shadow_far" yaml:"shadow_far"`
	ShadowExtent  float32    `toml:"shadow_extent" yaml:"shadow_extent"`
	ShadowMapSize int        `toml:"shadow_map_size" yaml:"shadow_map_size"`
}

type Scattering struct {
	Enabled bool    `toml:"enabled" yaml:"enabled"`
	G       float32 `toml:"g" yaml:"g"`
	Step    float32 `toml:"step" yaml:"step"` // march step in depth fraction units
	Bias    float32 `toml:"bias" yaml:"bias"`
	Density float32 `toml:"density" yaml:"density"`
}

type Noise struct {
	Size        int     `toml:"size" yaml:"size"`
	Octaves     int     `toml:"octaves" yaml:"octaves"`
	Persistence float64 `toml:"persistence" yaml:"persistence"`
	Beta        float64 `toml:"beta" yaml:"beta"`
	Scale       float64 `toml:"scale" yaml:"scale"`
	Speed       float64 `toml:"speed" yaml:"speed"`
	Seed        int64   `toml:"seed" yaml:"seed"`
}

type Blur struct {
	Radius int `toml:"radius" yaml:"radius"`
}

type Output struct {
	Path         string `toml:"path" yaml:"path"`
	Frames       int    `toml:"frames" yaml:"frames"`
	FrameStepMs  int    `toml:"frame_step_ms" yaml:"frame_step_ms"`
	DepthPreview bool   `toml:"depth_preview" yaml:"depth_preview"`
	Stats        bool   `toml:"stats" yaml:"stats"`
}

// MaxBlurRadius is the largest radius the GPU blur can hold in its uniform block.
const MaxBlurRadius = 15

func Default() Config {
	return Config{
		Render: Render{
			Width:      1280,
			Height:     720,
			ClearDepth: 1,
		},
		Camera: Camera{
			Position:   [3]float32{-3.66, 1.86, 1.75},
			Target:     [3]float32{0.6, 2.5, 0},
			FovDegrees: 54,
			Near:       0.1,
			Far:        50,
		},
		Sun: Sun{
			Position:      [3]float32{5, 5, -15},
			Target:        [3]float32{0, 0, 0},
			Color:         [3]float32{1, 1, 0.9},
			Intensity:     0.9,
			ShadowNear:    0,
			ShadowFar:     50,
			ShadowExtent:  20,
			ShadowMapSize: 1024,
		},
		Scattering: Scattering{
			Enabled: true,
			G:       0.2,
			Step:    0.01,
			Bias:    0.01,
			Density: 50,
		},
		Noise: Noise{
			Size:        256,
			Octaves:     6,
			Persistence: 1.75,
			Beta:        2,
			Scale:       4,
			Speed:       0.5,
			Seed:        1,
		},
		Blur: Blur{Radius: 9},
		Output: Output{
			Path:        "godrays.png",
			Frames:      1,
			FrameStepMs: 16,
		},
	}
}

func HighQuality() Config {
	c := Default()
	c.Render.Width, c.Render.Height = 1920, 1080
	c.Sun.ShadowMapSize = 2048
	c.Scattering.Step = 0.005
	return c
}

func Performance() Config {
	c := Default()
	c.Render.Width, c.Render.Height = 640, 360
	c.Render.FrameBudgetMs = 33
	c.Sun.ShadowMapSize = 512
	c.Scattering.Step = 0.02
	c.Noise.Size = 128
	c.Noise.Octaves = 4
	return c
}

// Preset returns a named preset: "default", "high" or "performance".
func Preset(name string) (Config, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return Default(), nil
	case "high", "quality":
		return HighQuality(), nil
	case "performance", "fast":
		return Performance(), nil
	}
	return Config{}, fmt.Errorf("%w: unknown preset %q", ErrInvalid, name)
}

// Load decodes path on top of base, so keys missing from the file keep the
// base values. The format is chosen by extension.
func Load(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := base
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("%w: unsupported config format %q", ErrInvalid, ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg as TOML.
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		bad("render size %dx%d", c.Render.Width, c.Render.Height)
	}
	if c.Render.ClearDepth < 0 || c.Render.ClearDepth > 1 {
		bad("clear depth %v outside [0,1]", c.Render.ClearDepth)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		bad("camera clip [%v,%v]", c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.FovDegrees <= 0 || c.Camera.FovDegrees >= 180 {
		bad("camera fov %v", c.Camera.FovDegrees)
	}
	if c.Sun.ShadowFar <= c.Sun.ShadowNear {
		bad("shadow clip [%v,%v]", c.Sun.ShadowNear, c.Sun.ShadowFar)
	}
	if c.Sun.ShadowMapSize <= 0 || c.Sun.ShadowExtent <= 0 {
		bad("shadow map size %d extent %v", c.Sun.ShadowMapSize, c.Sun.ShadowExtent)
	}
	if c.Sun.Position == c.Sun.Target {
		bad("sun position equals target")
	}
	if c.Scattering.Step <= 0 || c.Scattering.Step > 1 {
		bad("scattering step %v outside (0,1]", c.Scattering.Step)
	}
	if c.Scattering.Density < 0 {
		bad("density %v", c.Scattering.Density)
	}
	if c.Noise.Size <= 0 || c.Noise.Octaves <= 0 {
		bad("noise size %d octaves %d", c.Noise.Size, c.Noise.Octaves)
	}
	if c.Blur.Radius < 0 || c.Blur.Radius > MaxBlurRadius {
		bad("blur radius %d outside [0,%d]", c.Blur.Radius, MaxBlurRadius)
	}
	return errors.Join(errs...)
}

func (c Render) FrameBudget() time.Duration {
	return time.Duration(c.FrameBudgetMs) * time.Millisecond
}

func (c Output) FrameStep() time.Duration {
	return time.Duration(c.FrameStepMs) * time.Millisecond
}

func (c Camera) Build() *core.Camera {
	return &core.Camera{
		Position: mgl32.Vec3(c.Position),
		Target:   mgl32.Vec3(c.Target),
		Up:       mgl32.Vec3{0, 1, 0},
		FovY:     mgl32.DegToRad(c.FovDegrees),
		Near:     c.Near,
		Far:      c.Far,
	}
}

func (s Sun) Build() *core.Sun {
	return &core.Sun{
		Position:     mgl32.Vec3(s.Position),
		Target:       mgl32.Vec3(s.Target),
		Color:        mgl32.Vec3(s.Color),
		Intensity:    s.Intensity,
		ShadowNear:   s.ShadowNear,
		ShadowFar:    s.ShadowFar,
		ShadowExtent: s.ShadowExtent,
	}
}
