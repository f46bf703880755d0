package pipeline

import (
	"context"
	"fmt"

	"github.com/gekko3d/godrays/volumetric/rt/binder"
	"github.com/gekko3d/godrays/volumetric/rt/core"
	"github.com/gekko3d/godrays/volumetric/rt/kernel"
	"github.com/gekko3d/godrays/volumetric/rt/post"
)

// Stages executes the passes of one frame. The Runner calls them in order and
// never concurrently.
type Stages interface {
	Scatter(ctx context.Context, u *binder.Uniforms, f *Frame) error
	Blur(ctx context.Context, axis post.Axis) error
	Composite(ctx context.Context, f *Frame) error
	// Present shows the composited frame, or the base frame when overlay is false.
	Present(ctx context.Context, f *Frame, overlay bool) error
}

// CPUStages runs the passes on the CPU with a parallel loop over rows.
type CPUStages struct {
	Workers int
	Radius  int
	// Sink receives every presented image. Optional.
	Sink func(f *Frame, img *core.Image) error

	scatter   *core.Image
	blurTmp   *core.Image
	blurred   *core.Image
	composite *core.Image
	output    *core.Image
	stats     kernel.Stats
}

func NewCPUStages(workers, radius int) *CPUStages {
	return &CPUStages{Workers: workers, Radius: radius}
}

func (s *CPUStages) ensure(w, h int) {
	if s.scatter != nil && s.scatter.Width == w && s.scatter.Height == h {
		return
	}
	s.scatter = core.NewImage(w, h)
	s.blurTmp = core.NewImage(w, h)
	s.blurred = core.NewImage(w, h)
}

func (s *CPUStages) Scatter(ctx context.Context, u *binder.Uniforms, f *Frame) error {
	s.ensure(u.Camera.Width, u.Camera.Height)
	k := kernel.Kernel{U: u, Depth: f.Depth, Shadow: f.Shadow, Noise: f.Noise}
	stats, err := k.Run(ctx, s.Workers, s.scatter)
	s.stats = stats
	return err
}

func (s *CPUStages) Blur(ctx context.Context, axis post.Axis) error {
	if s.scatter == nil {
		return fmt.Errorf("blur %s before scatter", axis)
	}
	if axis == post.Horizontal {
		return post.BlurPass(ctx, s.scatter, s.blurTmp, post.Horizontal, s.Radius, s.Workers)
	}
	return post.BlurPass(ctx, s.blurTmp, s.blurred, post.Vertical, s.Radius, s.Workers)
}

func (s *CPUStages) Composite(ctx context.Context, f *Frame) error {
	// The overlay input is the last blur output, never the previous composite.
	img, err := post.Composite(ctx, f.Base, s.blurred, s.Workers)
	if err != nil {
		return err
	}
	s.composite = img
	return nil
}

func (s *CPUStages) Present(ctx context.Context, f *Frame, overlay bool) error {
	switch {
	case overlay && s.composite != nil:
		s.output = s.composite
	case f.Base.Ready():
		s.output = post.PassThrough(f.Base)
	default:
		return fmt.Errorf("present frame %d: no base frame", f.Index)
	}
	s.composite = nil
	if s.Sink != nil {
		return s.Sink(f, s.output)
	}
	return nil
}

// Output is the last presented image.
func (s *CPUStages) Output() *core.Image { return s.output }

// ScatterImage is the raw kernel output of the last frame.
func (s *CPUStages) ScatterImage() *core.Image { return s.scatter }

// Stats are the march totals of the last kernel run.
func (s *CPUStages) Stats() kernel.Stats { return s.stats }
