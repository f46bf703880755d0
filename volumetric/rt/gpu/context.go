// Package gpu runs the scattering passes as WebGPU compute shaders.
package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Context owns the WebGPU device. Surface is nil when rendering offscreen.
type Context struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
}

// NewContext requests a high performance adapter, compatible with the surface
// described by desc when desc is not nil.
func NewContext(desc *wgpu.SurfaceDescriptor) (*Context, error) {
	c := &Context{Instance: wgpu.CreateInstance(nil)}
	if desc != nil {
		c.Surface = c.Instance.CreateSurface(desc)
	}

	adapter, err := c.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: c.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	c.Adapter = adapter

	c.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	c.Queue = c.Device.GetQueue()
	return c, nil
}

// ConfigureSurface sizes the surface and returns the configuration used.
func (c *Context) ConfigureSurface(width, height int) (*wgpu.SurfaceConfiguration, error) {
	if c.Surface == nil {
		return nil, fmt.Errorf("configure surface: no surface")
	}
	caps := c.Surface.GetCapabilities(c.Adapter)
	if len(caps.Formats) == 0 {
		return nil, fmt.Errorf("configure surface: no supported formats")
	}
	cfg := &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	c.Surface.Configure(c.Adapter, c.Device, cfg)
	return cfg, nil
}

func (c *Context) Release() {
	if c.Queue != nil {
		c.Queue.Release()
	}
	if c.Device != nil {
		c.Device.Release()
	}
	if c.Adapter != nil {
		c.Adapter.Release()
	}
	if c.Surface != nil {
		c.Surface.Release()
	}
	if c.Instance != nil {
		c.Instance.Release()
	}
}
