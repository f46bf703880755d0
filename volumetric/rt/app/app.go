// Package app is the interactive viewer: a GLFW window presenting the
// scattering pipeline through a WebGPU surface.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gekko3d/godrays"
	"github.com/gekko3d/godrays/volumetric/rt/config"
	"github.com/gekko3d/godrays/volumetric/rt/core"
	"github.com/gekko3d/godrays/volumetric/rt/gpu"
	"github.com/gekko3d/godrays/volumetric/rt/output"
	"github.com/gekko3d/godrays/volumetric/rt/pipeline"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	orbitStep = 0.05
	sunStep   = 0.5
)

type App struct {
	Window *glfw.Window
	Config config.Config
	Logger godrays.Logger

	GPU      *gpu.Context
	Stages   *gpu.Stages
	Runner   *pipeline.Runner
	Producer *pipeline.Producer

	Scene  *core.Scene
	Camera *core.Camera
	Sun    *core.Sun
	Clock  *godrays.FrameClock

	Preview    bool
	LastReport pipeline.Report

	width, height int
}

func NewApp(window *glfw.Window, cfg config.Config, scene *core.Scene, logger godrays.Logger) *App {
	return &App{
		Window:  window,
		Config:  cfg,
		Logger:  godrays.OrNop(logger),
		Scene:   scene,
		Camera:  cfg.Camera.Build(),
		Sun:     cfg.Sun.Build(),
		Preview: cfg.Output.DepthPreview,
		width:   cfg.Render.Width,
		height:  cfg.Render.Height,
	}
}

func (a *App) Init() error {
	var err error
	a.GPU, err = gpu.NewContext(GetSurfaceDescriptor(a.Window))
	if err != nil {
		return err
	}

	a.width, a.height = a.Window.GetFramebufferSize()
	surfaceCfg, err := a.GPU.ConfigureSurface(a.width, a.height)
	if err != nil {
		return err
	}

	a.Stages, err = gpu.NewStages(a.GPU, surfaceCfg, a.Config.Blur.Radius, a.Logger)
	if err != nil {
		return err
	}
	a.Runner = pipeline.NewRunner(a.Config, a.Stages, a.Logger)
	a.Producer = pipeline.NewProducer(a.Scene, a.Config)
	a.Producer.Profiler = a.Runner.Profiler
	a.Clock = godrays.NewFrameClock(time.Now())

	a.Logger.Infof("viewer %s: %dx%d, %d boxes", a.Runner.ID, a.width, a.height, len(a.Scene.Boxes))
	return nil
}

func (a *App) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	if err := a.Stages.Resize(w, h); err != nil {
		a.Logger.Errorf("resize %dx%d: %v", w, h, err)
		return
	}
	a.width, a.height = w, h
}

// HandleKey applies one key event. Arrows orbit the camera, WASD and R/F move
// the sun, P toggles the depth preview, space the scattering overlay.
func (a *App) HandleKey(key glfw.Key, action glfw.Action) {
	if action != glfw.Press && action != glfw.Repeat {
		return
	}

	sun := a.Sun.Position
	switch key {
	case glfw.KeyLeft:
		a.Camera.Orbit(-orbitStep, 0)
	case glfw.KeyRight:
		a.Camera.Orbit(orbitStep, 0)
	case glfw.KeyUp:
		a.Camera.Orbit(0, orbitStep)
	case glfw.KeyDown:
		a.Camera.Orbit(0, -orbitStep)
	case glfw.KeyW:
		a.Sun.SetPosition(sun.Add(mgl32.Vec3{0, 0, -sunStep}))
	case glfw.KeyS:
		a.Sun.SetPosition(sun.Add(mgl32.Vec3{0, 0, sunStep}))
	case glfw.KeyA:
		a.Sun.SetPosition(sun.Add(mgl32.Vec3{-sunStep, 0, 0}))
	case glfw.KeyD:
		a.Sun.SetPosition(sun.Add(mgl32.Vec3{sunStep, 0, 0}))
	case glfw.KeyR:
		a.Sun.SetPosition(sun.Add(mgl32.Vec3{0, sunStep, 0}))
	case glfw.KeyF:
		a.Sun.SetPosition(sun.Add(mgl32.Vec3{0, -sunStep, 0}))
	}

	if action != glfw.Press {
		return
	}
	switch key {
	case glfw.KeyP:
		a.Preview = !a.Preview
	case glfw.KeySpace:
		a.Runner.SetOverlay(!a.Runner.Config.Scattering.Enabled)
		a.Logger.Infof("scattering overlay %t", a.Runner.Config.Scattering.Enabled)
	case glfw.KeyEscape:
		if a.Window != nil {
			a.Window.SetShouldClose(true)
		}
	}
}

// Render produces the inputs of one frame on the CPU and runs the GPU passes.
func (a *App) Render(ctx context.Context) error {
	a.Clock.Tick(time.Now())
	a.Runner.Profiler.Reset()

	f := &pipeline.Frame{
		Index:  a.Clock.Frame,
		Time:   a.Clock.Seconds(),
		Camera: a.Camera,
		Sun:    a.Sun,
		Width:  a.width,
		Height: a.height,
	}
	if err := a.Producer.Produce(ctx, f); err != nil {
		return err
	}
	if a.Preview {
		output.InsetDepth(f.Base, f.Depth, output.PreviewScale)
	}

	rep, err := a.Runner.RenderFrame(ctx, f)
	if err != nil {
		return fmt.Errorf("render frame %d: %w", f.Index, err)
	}
	a.LastReport = rep
	return nil
}

// Run polls events and renders until the window closes or ctx is done.
func (a *App) Run(ctx context.Context) error {
	for !a.Window.ShouldClose() {
		if err := ctx.Err(); err != nil {
			return err
		}
		glfw.PollEvents()
		if err := a.Render(ctx); err != nil {
			a.Logger.Errorf("%v", err)
		}
	}
	return nil
}

func (a *App) Release() {
	if a.Stages != nil {
		a.Stages.Release()
	}
	if a.GPU != nil {
		a.GPU.Release()
	}
}

func GetSurfaceDescriptor(w *glfw.Window) *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w)
}
