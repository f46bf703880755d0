// Package noise animates the perlin field that modulates scattering intensity.
package noise

import (
	"context"
	"fmt"

	"github.com/gekko3d/godrays/volumetric/rt/config"
	"github.com/gekko3d/godrays/volumetric/rt/core"
	"github.com/gekko3d/godrays/volumetric/rt/worker"

	perlin "github.com/aquilax/go-perlin"
)

// Field is a square scalar texture of fractal perlin noise, animated along a
// third axis by time.
type Field struct {
	cfg config.Noise
	p   *perlin.Perlin
}

func NewField(cfg config.Noise) *Field {
	return &Field{
		cfg: cfg,
		p:   perlin.NewPerlin(cfg.Persistence, cfg.Beta, int32(cfg.Octaves), cfg.Seed),
	}
}

func (f *Field) Size() int { return f.cfg.Size }

// Value evaluates the field at texture coordinate (u, v) and time t in seconds.
// The result lies in [0,1].
func (f *Field) Value(u, v, t float64) float32 {
	n := f.p.Noise3D(u*f.cfg.Scale, v*f.cfg.Scale, t*f.cfg.Speed)
	return core.Saturate(float32(0.5 + 0.5*n))
}

// Generate renders the field at time t into a new texture.
func (f *Field) Generate(ctx context.Context, t float32, workers int) (*core.Texture, error) {
	if f.cfg.Size <= 0 {
		return nil, fmt.Errorf("noise: size %d", f.cfg.Size)
	}
	tex := core.NewTexture(f.cfg.Size, f.cfg.Size)
	if err := f.Fill(ctx, tex, t, workers); err != nil {
		return nil, err
	}
	return tex, nil
}

// Fill renders the field at time t into tex, reusing its storage.
func (f *Field) Fill(ctx context.Context, tex *core.Texture, t float32, workers int) error {
	w, h := tex.Width, tex.Height
	err := worker.Rows(ctx, workers, h, func(y int) error {
		v := (float64(y) + 0.5) / float64(h)
		for x := 0; x < w; x++ {
			u := (float64(x) + 0.5) / float64(w)
			tex.Set(x, y, f.Value(u, v, float64(t)))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("noise: %w", err)
	}
	return nil
}
