// Package shaders embeds the WGSL sources of the GPU passes and declares the
// bindings each compute kernel expects.
package shaders

import (
	_ "embed"
)

//go:embed scattering.wgsl
var ScatteringWGSL string

//go:embed blur.wgsl
var BlurWGSL string

//go:embed composite.wgsl
var CompositeWGSL string

//go:embed fullscreen.wgsl
var FullscreenWGSL string

// Kernel declares a compute entry point and the names it binds, in binding order.
type Kernel struct {
	Name     string
	Source   string
	Uniforms []string
	Textures []string
}

var (
	Scattering = Kernel{
		Name:   "scattering",
		Source: ScatteringWGSL,
		Uniforms: []string{
			"inv_view", "inv_transform", "inv_project", "shadow_matrix",
			"light_position", "shadow_near", "light_direction", "shadow_far",
			"light_color", "g", "camera_position", "step_size",
			"screen_size", "near", "far", "aspect", "tan_fov", "bias", "density",
			"dither",
		},
		Textures: []string{"depth_tex", "shadow_tex", "noise_tex", "out_tex"},
	}

	Blur = Kernel{
		Name:     "blur",
		Source:   BlurWGSL,
		Uniforms: []string{"direction", "radius", "weights"},
		Textures: []string{"src_tex", "dst_tex"},
	}

	Composite = Kernel{
		Name:     "composite",
		Source:   CompositeWGSL,
		Uniforms: []string{"overlay"},
		Textures: []string{"base_tex", "over_tex", "out_tex"},
	}
)

// Kernels lists the compute kernels in pass order.
func Kernels() []Kernel {
	return []Kernel{Scattering, Blur, Composite}
}

// EntryPoint is the compute entry of every kernel.
const EntryPoint = "main"
