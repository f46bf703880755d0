package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/gekko3d/godrays/volumetric/rt/capture"
	"github.com/gekko3d/godrays/volumetric/rt/config"
	"github.com/gekko3d/godrays/volumetric/rt/core"
	"github.com/gekko3d/godrays/volumetric/rt/noise"

	"golang.org/x/sync/errgroup"
)

// Producer renders the upstream inputs of a frame from a box scene: camera
// depth, the shadow map with the lit base frame, and the noise field. The
// three run concurrently and all finish before the frame is handed on. A sun
// whose position equals its target leaves the shadow map unset, so the base
// frame is still built and only the overlay is dropped.
type Producer struct {
	Scene    *core.Scene
	Noise    *noise.Field
	Config   config.Config
	Profiler *Profiler
}

func NewProducer(scene *core.Scene, cfg config.Config) *Producer {
	return &Producer{
		Scene:  scene,
		Noise:  noise.NewField(cfg.Noise),
		Config: cfg,
	}
}

func (p *Producer) Produce(ctx context.Context, f *Frame) error {
	workers := p.Config.Render.Workers
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer p.scope("depth")()
		d, err := capture.Depth(gctx, p.Scene, f.Camera, f.Width, f.Height, p.Config.Render.ClearDepth, workers)
		f.Depth = d
		return err
	})
	g.Go(func() error {
		end := p.scope("shadow")
		s, err := capture.ShadowMap(gctx, p.Scene, f.Sun, p.Config.Sun.ShadowMapSize, workers)
		end()
		switch {
		case errors.Is(err, capture.ErrDegenerateLight):
			s = nil
		case err != nil:
			return err
		}
		f.Shadow = s

		defer p.scope("shade")()
		b, err := capture.Shade(gctx, p.Scene, f.Camera, f.Sun, s, f.Width, f.Height, workers)
		f.Base = b
		return err
	})
	g.Go(func() error {
		defer p.scope("noise")()
		n, err := p.Noise.Generate(gctx, f.Time, workers)
		f.Noise = n
		return err
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("produce frame %d: %w", f.Index, err)
	}
	return nil
}

func (p *Producer) scope(name string) func() {
	if p.Profiler == nil {
		return func() {}
	}
	return p.Profiler.Scope(name)
}
