package gpu

import (
	"context"
	"fmt"

	"github.com/gekko3d/godrays"
	"github.com/gekko3d/godrays/volumetric/rt/binder"
	"github.com/gekko3d/godrays/volumetric/rt/core"
	"github.com/gekko3d/godrays/volumetric/rt/pipeline"
	"github.com/gekko3d/godrays/volumetric/rt/post"
	"github.com/gekko3d/godrays/volumetric/rt/shaders"

	"github.com/cogentcore/webgpu/wgpu"
)

type target struct {
	tex  *wgpu.Texture
	view *wgpu.TextureView
}

func (t *target) release() {
	if t.view != nil {
		t.view.Release()
	}
	if t.tex != nil {
		t.tex.Release()
	}
	*t = target{}
}

// targets are the per-size textures. Depth, shadow, noise and base are
// uploaded from the CPU every frame; the rest live on the GPU only.
type targets struct {
	width, height, shadowSize, noiseSize int

	depth, shadow, noise, base target
	scatter, blurTmp, blurred    target
	output                       target

	blitBG *wgpu.BindGroup
}

func (t *targets) release() {
	if t.blitBG != nil {
		t.blitBG.Release()
	}
	for _, tg := range []*target{&t.depth, &t.shadow, &t.noise, &t.base, &t.scatter, &t.blurTmp, &t.blurred, &t.output} {
		tg.release()
	}
}

// Stages implements pipeline.Stages with one compute dispatch per pass and a
// fullscreen blit on Present. Without a surface the output stays offscreen.
type Stages struct {
	GPU    *Context
	Radius int
	Logger godrays.Logger

	SurfaceConfig *wgpu.SurfaceConfiguration

	scatterPipe   *wgpu.ComputePipeline
	blurPipe      *wgpu.ComputePipeline
	compositePipe *wgpu.ComputePipeline
	blitPipe      *wgpu.RenderPipeline

	scatterBGL   *wgpu.BindGroupLayout
	blurBGL      *wgpu.BindGroupLayout
	compositeBGL *wgpu.BindGroupLayout

	uniformBuf   *wgpu.Buffer
	blurBufs     [2]*wgpu.Buffer
	compositeBuf *wgpu.Buffer
	sampler      *wgpu.Sampler

	t *targets
}

func NewStages(g *Context, surfaceCfg *wgpu.SurfaceConfiguration, radius int, logger godrays.Logger) (*Stages, error) {
	s := &Stages{GPU: g, Radius: radius, Logger: godrays.OrNop(logger), SurfaceConfig: surfaceCfg}
	if err := s.init(); err != nil {
		s.Release()
		return nil, err
	}
	return s, nil
}

func (s *Stages) init() error {
	dev := s.GPU.Device
	var err error

	s.scatterBGL, err = dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Scattering BGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, UniformSize),
			sampledEntry(1),
			sampledEntry(2),
			sampledEntry(3),
			storageEntry(4, wgpu.TextureFormatRGBA32Float),
		},
	})
	if err != nil {
		return fmt.Errorf("scattering layout: %w", err)
	}
	s.blurBGL, err = dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Blur BGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, BlurParamsSize),
			sampledEntry(1),
			storageEntry(2, wgpu.TextureFormatRGBA32Float),
		},
	})
	if err != nil {
		return fmt.Errorf("blur layout: %w", err)
	}
	s.compositeBGL, err = dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Composite BGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, CompositeParamsSize),
			sampledEntry(1),
			sampledEntry(2),
			storageEntry(3, wgpu.TextureFormatRGBA8Unorm),
		},
	})
	if err != nil {
		return fmt.Errorf("composite layout: %w", err)
	}

	if s.scatterPipe, err = s.computePipeline(shaders.Scattering, s.scatterBGL); err != nil {
		return err
	}
	if s.blurPipe, err = s.computePipeline(shaders.Blur, s.blurBGL); err != nil {
		return err
	}
	if s.compositePipe, err = s.computePipeline(shaders.Composite, s.compositeBGL); err != nil {
		return err
	}

	if s.uniformBuf, err = s.uniformBuffer("Scattering UB", UniformSize); err != nil {
		return err
	}
	for i := range s.blurBufs {
		if s.blurBufs[i], err = s.uniformBuffer(fmt.Sprintf("Blur UB %d", i), BlurParamsSize); err != nil {
			return err
		}
	}
	if s.compositeBuf, err = s.uniformBuffer("Composite UB", CompositeParamsSize); err != nil {
		return err
	}

	if s.SurfaceConfig != nil {
		if err := s.initBlit(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stages) initBlit() error {
	dev := s.GPU.Device
	module, err := dev.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Fullscreen VS/FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.FullscreenWGSL},
	})
	if err != nil {
		return fmt.Errorf("fullscreen shader: %w", err)
	}
	defer module.Release()

	s.blitPipe, err = dev.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Blit Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    s.SurfaceConfig.Format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("blit pipeline: %w", err)
	}

	s.sampler, err = dev.CreateSampler(&wgpu.SamplerDescriptor{
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("blit sampler: %w", err)
	}
	return nil
}

func uniformEntry(binding uint32, size uint64) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageCompute,
		Buffer: wgpu.BufferBindingLayout{
			Type:           wgpu.BufferBindingTypeUniform,
			MinBindingSize: size,
		},
	}
}

// Float textures are read with textureLoad, so none of them needs filtering.
func sampledEntry(binding uint32) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageCompute,
		Texture: wgpu.TextureBindingLayout{
			SampleType:    wgpu.TextureSampleTypeUnfilterableFloat,
			ViewDimension: wgpu.TextureViewDimension2D,
		},
	}
}

func storageEntry(binding uint32, format wgpu.TextureFormat) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageCompute,
		StorageTexture: wgpu.StorageTextureBindingLayout{
			Access:        wgpu.StorageTextureAccessWriteOnly,
			Format:        format,
			ViewDimension: wgpu.TextureViewDimension2D,
		},
	}
}

func (s *Stages) computePipeline(k shaders.Kernel, bgl *wgpu.BindGroupLayout) (*wgpu.ComputePipeline, error) {
	dev := s.GPU.Device
	module, err := dev.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          k.Name + " CS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: k.Source},
	})
	if err != nil {
		return nil, fmt.Errorf("%s shader: %w", k.Name, err)
	}
	defer module.Release()

	layout, err := dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            k.Name + " Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return nil, fmt.Errorf("%s pipeline layout: %w", k.Name, err)
	}
	defer layout.Release()

	p, err := dev.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  k.Name + " Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: shaders.EntryPoint,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s pipeline: %w", k.Name, err)
	}
	return p, nil
}

func (s *Stages) uniformBuffer(label string, size uint64) (*wgpu.Buffer, error) {
	buf, err := s.GPU.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	return buf, nil
}

func (s *Stages) newTarget(label string, w, h int, format wgpu.TextureFormat, usage wgpu.TextureUsage) (target, error) {
	tex, err := s.GPU.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return target{}, fmt.Errorf("%s texture: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return target{}, fmt.Errorf("%s view: %w", label, err)
	}
	return target{tex: tex, view: view}, nil
}

// ensure (re)creates the textures when the frame or input sizes change.
func (s *Stages) ensure(f *pipeline.Frame) error {
	shadowSize, noiseSize := 1, 1
	if f.Shadow.Ready() {
		shadowSize = f.Shadow.Width
	}
	if f.Noise.Ready() {
		noiseSize = f.Noise.Width
	}
	if t := s.t; t != nil && t.width == f.Width && t.height == f.Height &&
		t.shadowSize == shadowSize && t.noiseSize == noiseSize {
		return nil
	}
	if s.t != nil {
		s.t.release()
	}
	s.Logger.Debugf("gpu: allocating %dx%d targets, shadow %d, noise %d", f.Width, f.Height, shadowSize, noiseSize)

	t := &targets{width: f.Width, height: f.Height, shadowSize: shadowSize, noiseSize: noiseSize}
	s.t = t
	upload := wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst
	storage := wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding

	specs := []struct {
		dst    *target
		label  string
		w, h   int
		format wgpu.TextureFormat
		usage  wgpu.TextureUsage
	}{
		{&t.depth, "Depth", f.Width, f.Height, wgpu.TextureFormatR32Float, upload},
		{&t.shadow, "Shadow", shadowSize, shadowSize, wgpu.TextureFormatR32Float, upload},
		{&t.noise, "Noise", noiseSize, noiseSize, wgpu.TextureFormatR32Float, upload},
		{&t.base, "Base", f.Width, f.Height, wgpu.TextureFormatRGBA32Float, upload},
		{&t.scatter, "Scatter", f.Width, f.Height, wgpu.TextureFormatRGBA32Float, storage},
		{&t.blurTmp, "Blur H", f.Width, f.Height, wgpu.TextureFormatRGBA32Float, storage},
		{&t.blurred, "Blur V", f.Width, f.Height, wgpu.TextureFormatRGBA32Float, storage},
		{&t.output, "Output", f.Width, f.Height, wgpu.TextureFormatRGBA8Unorm, storage | wgpu.TextureUsageCopySrc},
	}
	for _, sp := range specs {
		tg, err := s.newTarget(sp.label, sp.w, sp.h, sp.format, sp.usage)
		if err != nil {
			return err
		}
		*sp.dst = tg
	}

	if s.blitPipe != nil {
		bg, err := s.GPU.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout: s.blitPipe.GetBindGroupLayout(0),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, TextureView: t.output.view},
				{Binding: 1, Sampler: s.sampler},
			},
		})
		if err != nil {
			return fmt.Errorf("blit bind group: %w", err)
		}
		t.blitBG = bg
	}
	return nil
}

func (s *Stages) writeR32(t target, tex *core.Texture) {
	extent := wgpu.Extent3D{Width: uint32(tex.Width), Height: uint32(tex.Height), DepthOrArrayLayers: 1}
	s.GPU.Queue.WriteTexture(t.tex.AsImageCopy(), wgpu.ToBytes(tex.Data), &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(tex.Width * 4),
		RowsPerImage: uint32(tex.Height),
	}, &extent)
}

func (s *Stages) writeRGBA32(t target, img *core.Image) {
	extent := wgpu.Extent3D{Width: uint32(img.Width), Height: uint32(img.Height), DepthOrArrayLayers: 1}
	s.GPU.Queue.WriteTexture(t.tex.AsImageCopy(), wgpu.ToBytes(img.Pix), &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(img.Width * 16),
		RowsPerImage: uint32(img.Height),
	}, &extent)
}

// dispatch encodes one compute pass over a w x h grid and submits it.
func (s *Stages) dispatch(ctx context.Context, label string, p *wgpu.ComputePipeline, entries []wgpu.BindGroupEntry, bgl *wgpu.BindGroupLayout, w, h int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dev := s.GPU.Device
	bg, err := dev.CreateBindGroup(&wgpu.BindGroupDescriptor{Label: label, Layout: bgl, Entries: entries})
	if err != nil {
		return fmt.Errorf("%s bind group: %w", label, err)
	}
	defer bg.Release()

	encoder, err := dev.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("%s encoder: %w", label, err)
	}
	defer encoder.Release()

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(p)
	pass.SetBindGroup(0, bg, nil)
	pass.DispatchWorkgroups(WorkgroupCount(w), WorkgroupCount(h), 1)
	if err := pass.End(); err != nil {
		return fmt.Errorf("%s pass: %w", label, err)
	}
	pass.Release()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("%s finish: %w", label, err)
	}
	defer cmd.Release()
	s.GPU.Queue.Submit(cmd)
	return nil
}

func (s *Stages) Scatter(ctx context.Context, u *binder.Uniforms, f *pipeline.Frame) error {
	if err := s.ensure(f); err != nil {
		return err
	}
	t := s.t
	s.writeR32(t.depth, f.Depth)
	s.writeR32(t.shadow, f.Shadow)
	s.writeR32(t.noise, f.Noise)
	s.writeRGBA32(t.base, f.Base)
	s.GPU.Queue.WriteBuffer(s.uniformBuf, 0, PackUniforms(u))

	return s.dispatch(ctx, "Scattering", s.scatterPipe, []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: s.uniformBuf, Size: UniformSize},
		{Binding: 1, TextureView: t.depth.view},
		{Binding: 2, TextureView: t.shadow.view},
		{Binding: 3, TextureView: t.noise.view},
		{Binding: 4, TextureView: t.scatter.view},
	}, s.scatterBGL, t.width, t.height)
}

func (s *Stages) Blur(ctx context.Context, axis post.Axis) error {
	t := s.t
	if t == nil {
		return fmt.Errorf("blur %s before scatter", axis)
	}
	src, dst, buf := t.scatter, t.blurTmp, s.blurBufs[0]
	if axis == post.Vertical {
		src, dst, buf = t.blurTmp, t.blurred, s.blurBufs[1]
	}
	s.GPU.Queue.WriteBuffer(buf, 0, PackBlurParams(axis, s.Radius))

	return s.dispatch(ctx, "Blur "+axis.String(), s.blurPipe, []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: buf, Size: BlurParamsSize},
		{Binding: 1, TextureView: src.view},
		{Binding: 2, TextureView: dst.view},
	}, s.blurBGL, t.width, t.height)
}

func (s *Stages) composite(ctx context.Context, overlay bool) error {
	t := s.t
	s.GPU.Queue.WriteBuffer(s.compositeBuf, 0, PackCompositeParams(overlay))
	return s.dispatch(ctx, "Composite", s.compositePipe, []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: s.compositeBuf, Size: CompositeParamsSize},
		{Binding: 1, TextureView: t.base.view},
		{Binding: 2, TextureView: t.blurred.view},
		{Binding: 3, TextureView: t.output.view},
	}, s.compositeBGL, t.width, t.height)
}

// Composite reads the vertical blur output, never a previous composite.
func (s *Stages) Composite(ctx context.Context, f *pipeline.Frame) error {
	if s.t == nil {
		return fmt.Errorf("composite before scatter")
	}
	return s.composite(ctx, true)
}

// Present blits the output to the surface. When overlay is false the base
// frame is uploaded and passed through the composite with a zero weight.
func (s *Stages) Present(ctx context.Context, f *pipeline.Frame, overlay bool) error {
	if !overlay {
		if !f.Base.Ready() {
			return fmt.Errorf("present frame %d: no base frame", f.Index)
		}
		if err := s.ensure(f); err != nil {
			return err
		}
		s.writeRGBA32(s.t.base, f.Base)
		if err := s.composite(context.WithoutCancel(ctx), false); err != nil {
			return err
		}
	}
	if s.GPU.Surface == nil || s.blitPipe == nil {
		return nil
	}
	return s.blit()
}

func (s *Stages) blit() error {
	next, err := s.GPU.Surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("get current texture: %w", err)
	}
	defer next.Release()

	view, err := next.CreateView(nil)
	if err != nil {
		return fmt.Errorf("surface view: %w", err)
	}
	defer view.Release()

	encoder, err := s.GPU.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("blit encoder: %w", err)
	}
	defer encoder.Release()

	rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{0, 0, 0, 1},
		}},
	})
	rPass.SetPipeline(s.blitPipe)
	rPass.SetBindGroup(0, s.t.blitBG, nil)
	rPass.Draw(3, 1, 0, 0)
	if err := rPass.End(); err != nil {
		return fmt.Errorf("blit pass: %w", err)
	}
	rPass.Release()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("blit finish: %w", err)
	}
	defer cmd.Release()
	s.GPU.Queue.Submit(cmd)
	s.GPU.Surface.Present()
	return nil
}

// Resize reconfigures the surface. Targets follow the next frame size.
func (s *Stages) Resize(width, height int) error {
	if width <= 0 || height <= 0 || s.GPU.Surface == nil {
		return nil
	}
	cfg, err := s.GPU.ConfigureSurface(width, height)
	if err != nil {
		return err
	}
	s.SurfaceConfig = cfg
	return nil
}

func (s *Stages) Release() {
	if s.t != nil {
		s.t.release()
		s.t = nil
	}
	for _, b := range []*wgpu.Buffer{s.uniformBuf, s.blurBufs[0], s.blurBufs[1], s.compositeBuf} {
		if b != nil {
			b.Release()
		}
	}
	if s.sampler != nil {
		s.sampler.Release()
	}
	for _, p := range []*wgpu.ComputePipeline{s.scatterPipe, s.blurPipe, s.compositePipe} {
		if p != nil {
			p.Release()
		}
	}
	if s.blitPipe != nil {
		s.blitPipe.Release()
	}
	for _, l := range []*wgpu.BindGroupLayout{s.scatterBGL, s.blurBGL, s.compositeBGL} {
		if l != nil {
			l.Release()
		}
	}
}

var _ pipeline.Stages = (*Stages)(nil)
