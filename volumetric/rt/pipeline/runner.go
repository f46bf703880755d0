package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/gekko3d/godrays"
	"github.com/gekko3d/godrays/volumetric/rt/binder"
	"github.com/gekko3d/godrays/volumetric/rt/config"
	"github.com/gekko3d/godrays/volumetric/rt/post"

	"github.com/google/uuid"
)

// SkipReason says why a frame was presented without the scattering overlay.
type SkipReason string

const (
	NotSkipped SkipReason = ""
	Disabled   SkipReason = "disabled"
	NotReady   SkipReason = "resources not ready"
	Deadline   SkipReason = "frame deadline exceeded"
	Failed     SkipReason = "pass failed"
)

// Report describes one rendered frame.
type Report struct {
	Frame   uint64
	Overlay bool
	Skipped SkipReason
	Err     error // cause of a skip, if any
}

// Runner drives the Stages of every frame in the fixed pass order.
type Runner struct {
	ID       uuid.UUID
	Config   config.Config
	Binder   *binder.Binder
	Stages   Stages
	Logger   godrays.Logger
	Profiler *Profiler

	tracker Tracker
}

func NewRunner(cfg config.Config, stages Stages, logger godrays.Logger) *Runner {
	logger = godrays.OrNop(logger)
	return &Runner{
		ID:       uuid.New(),
		Config:   cfg,
		Binder:   binder.New(cfg.Scattering, logger),
		Stages:   stages,
		Logger:   logger,
		Profiler: NewProfiler(),
	}
}

func (r *Runner) State() State { return r.tracker.State() }

// SetOverlay enables or disables the scattering overlay for later frames.
func (r *Runner) SetOverlay(enabled bool) {
	r.Config.Scattering.Enabled = enabled
}

// RenderFrame binds uniforms, runs the kernel, both blur passes and the
// composite, then presents. Missing inputs, an expired frame budget or a
// failing pass drop the overlay for this frame and present the base frame
// instead. An error is returned only when nothing could be presented or ctx
// itself is done. Profiler timings are overwritten, not reset; callers reset
// it once per frame before producing inputs.
func (r *Runner) RenderFrame(ctx context.Context, f *Frame) (Report, error) {
	if err := r.tracker.Begin(); err != nil {
		return Report{Frame: f.Index}, err
	}

	rep := r.overlay(ctx, f)
	if err := ctx.Err(); err != nil {
		r.tracker.Abort()
		return rep, err
	}
	if rep.Skipped != NotSkipped {
		r.logSkip(f, rep)
	}

	end := r.Profiler.Scope("present")
	err := r.Stages.Present(ctx, f, rep.Overlay)
	end()
	if err != nil {
		r.tracker.Abort()
		return rep, fmt.Errorf("present frame %d: %w", f.Index, err)
	}
	if err := r.tracker.Advance(Presented); err != nil {
		return rep, err
	}
	if r.Logger.DebugEnabled() {
		r.Logger.Debugf("session %s frame %d overlay=%t\n%s", r.ID, f.Index, rep.Overlay, r.Profiler)
	}
	return rep, nil
}

func (r *Runner) overlay(ctx context.Context, f *Frame) Report {
	rep := Report{Frame: f.Index}
	if !r.Config.Scattering.Enabled {
		rep.Skipped = Disabled
		return rep
	}

	end := r.Profiler.Scope("bind")
	u, err := r.Binder.Bind(f.bindInputs())
	end()
	if err != nil {
		rep.Skipped, rep.Err = NotReady, err
		return rep
	}
	if err := r.tracker.Advance(UniformsBound); err != nil {
		rep.Skipped, rep.Err = Failed, err
		return rep
	}

	fctx := ctx
	if budget := r.Config.Render.FrameBudget(); budget > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	passes := []struct {
		name string
		next State
		run  func() error
	}{
		{"scatter", KernelExecuted, func() error { return r.Stages.Scatter(fctx, u, f) }},
		{"blur-h", BlurredHorizontal, func() error { return r.Stages.Blur(fctx, post.Horizontal) }},
		{"blur-v", BlurredVertical, func() error { return r.Stages.Blur(fctx, post.Vertical) }},
		{"composite", Composited, func() error { return r.Stages.Composite(fctx, f) }},
	}
	for _, p := range passes {
		end := r.Profiler.Scope(p.name)
		err := p.run()
		end()
		if err == nil {
			err = r.tracker.Advance(p.next)
		}
		if err != nil {
			rep.Err = err
			rep.Skipped = Failed
			if errors.Is(err, context.DeadlineExceeded) || fctx.Err() != nil {
				rep.Skipped = Deadline
			}
			return rep
		}
	}
	rep.Overlay = true
	return rep
}

func (r *Runner) logSkip(f *Frame, rep Report) {
	switch rep.Skipped {
	case Disabled:
		r.Logger.Debugf("frame %d: overlay disabled", f.Index)
	case Failed:
		r.Logger.Errorf("frame %d: %s: %v", f.Index, rep.Skipped, rep.Err)
	default:
		r.Logger.Warnf("frame %d: %s: %v", f.Index, rep.Skipped, rep.Err)
	}
}
