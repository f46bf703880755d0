package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/gekko3d/godrays"
	"github.com/gekko3d/godrays/volumetric/rt/app"
	"github.com/gekko3d/godrays/volumetric/rt/config"
	"github.com/gekko3d/godrays/volumetric/rt/core"
	"github.com/gekko3d/godrays/volumetric/rt/output"
	"github.com/gekko3d/godrays/volumetric/rt/pipeline"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/google/uuid"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	headless := flag.Bool("headless", false, "Render on the CPU and write PNG files instead of opening a window")
	configPath := flag.String("config", "", "TOML or YAML config file")
	preset := flag.String("preset", "default", "Quality preset: default, high, performance")
	out := flag.String("out", "", "Output PNG path (headless)")
	frames := flag.Int("frames", 0, "Number of frames to render (headless)")
	width := flag.Int("width", 0, "Render width")
	height := flag.Int("height", 0, "Render height")
	debug := flag.Bool("debug", false, "Enable debug logging")
	preview := flag.Bool("preview", false, "Inset the camera depth view")
	stats := flag.Bool("stats", false, "Stamp pass timings on the output")
	flag.Parse()

	session := uuid.New()
	logger := godrays.NewDefaultLogger("godrays", *debug).With("session", session.String())
	defer logger.Sync()

	cfg, err := loadConfig(*preset, *configPath)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	if *out != "" {
		cfg.Output.Path = *out
	}
	if *frames > 0 {
		cfg.Output.Frames = *frames
	}
	if *width > 0 {
		cfg.Render.Width = *width
	}
	if *height > 0 {
		cfg.Render.Height = *height
	}
	cfg.Output.DepthPreview = cfg.Output.DepthPreview || *preview
	cfg.Output.Stats = cfg.Output.Stats || *stats
	if err := cfg.Validate(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *headless {
		err = renderHeadless(ctx, cfg, logger)
	} else {
		err = runWindow(ctx, cfg, logger)
	}
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func loadConfig(preset, path string) (config.Config, error) {
	cfg, err := config.Preset(preset)
	if err != nil {
		return cfg, err
	}
	if path == "" {
		return cfg, nil
	}
	return config.Load(path, cfg)
}

func renderHeadless(ctx context.Context, cfg config.Config, logger *godrays.DefaultLogger) error {
	scene := core.DemoScene()
	producer := pipeline.NewProducer(scene, cfg)
	stages := pipeline.NewCPUStages(cfg.Render.Workers, cfg.Blur.Radius)
	runner := pipeline.NewRunner(cfg, stages, logger)
	producer.Profiler = runner.Profiler

	stages.Sink = func(f *pipeline.Frame, img *core.Image) error {
		rgba := output.ToRGBA(img)
		if cfg.Output.DepthPreview {
			output.DepthPreview(rgba, f.Depth, output.PreviewScale)
		}
		if cfg.Output.Stats {
			runner.Profiler.SetCount("steps", stages.Stats().Steps)
			runner.Profiler.SetCount("lit", stages.Stats().Lit)
			lines := append([]string{fmt.Sprintf("frame %d  %dx%d", f.Index, f.Width, f.Height)}, runner.Profiler.Lines()...)
			output.Annotate(rgba, lines)
		}
		path := output.FramePath(cfg.Output.Path, f.Index, cfg.Output.Frames)
		if err := output.Save(path, rgba); err != nil {
			return err
		}
		logger.Infof("wrote %s", path)
		return nil
	}

	camera := cfg.Camera.Build()
	sun := cfg.Sun.Build()
	clock := godrays.NewFrameClock(time.Now())
	start := time.Now()

	for i := 0; i < cfg.Output.Frames; i++ {
		runner.Profiler.Reset()
		f := &pipeline.Frame{
			Index:  uint64(i),
			Time:   clock.Seconds(),
			Camera: camera,
			Sun:    sun,
			Width:  cfg.Render.Width,
			Height: cfg.Render.Height,
		}
		if err := producer.Produce(ctx, f); err != nil {
			return err
		}
		rep, err := runner.RenderFrame(ctx, f)
		if err != nil {
			return err
		}
		if !rep.Overlay && rep.Skipped != pipeline.Disabled {
			logger.Warnf("frame %d presented without scattering: %s", i, rep.Skipped)
		}
		clock.Advance(cfg.Output.FrameStep())
	}
	logger.Infof("rendered %d frames in %s", cfg.Output.Frames, time.Since(start).Round(time.Millisecond))
	return nil
}

func runWindow(ctx context.Context, cfg config.Config, logger *godrays.DefaultLogger) error {
	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(cfg.Render.Width, cfg.Render.Height, "God Rays", nil, nil)
	if err != nil {
		return err
	}
	defer window.Destroy()

	application := app.NewApp(window, cfg, core.DemoScene(), logger)
	if err := application.Init(); err != nil {
		return err
	}
	defer application.Release()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		application.HandleKey(key, action)
	})

	return application.Run(ctx)
}
