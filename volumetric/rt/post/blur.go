// Package post holds the passes applied to the scattering image: a separable
// gaussian blur and the additive composite over the base frame.
package post

import (
	"context"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gekko3d/godrays/volumetric/rt/core"
	"github.com/gekko3d/godrays/volumetric/rt/worker"
)

// KernelRadius is the blur radius used by the scattering pipeline.
const KernelRadius = 9

type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

func (a Axis) String() string {
	if a == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// GaussianWeights returns radius+1 normalized weights for offsets 0..radius,
// with sigma = radius/3. The full kernel mirrors them around the centre.
func GaussianWeights(radius int) []float32 {
	if radius <= 0 {
		return []float32{1}
	}
	sigma := float32(radius) / 3
	w := make([]float32, radius+1)
	var sum float32
	for i := range w {
		x := float32(i)
		w[i] = math32.Exp(-(x * x) / (2 * sigma * sigma))
		if i == 0 {
			sum += w[i]
		} else {
			sum += 2 * w[i]
		}
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

// BlurPass convolves src along one axis into dst with clamp-to-edge addressing.
func BlurPass(ctx context.Context, src, dst *core.Image, axis Axis, radius int, workers int) error {
	if !src.Ready() || !src.SameSize(dst) {
		return fmt.Errorf("blur %s: source and destination sizes differ", axis)
	}
	weights := GaussianWeights(radius)
	dx, dy := 1, 0
	if axis == Vertical {
		dx, dy = 0, 1
	}

	err := worker.Rows(ctx, workers, src.Height, func(y int) error {
		for x := 0; x < src.Width; x++ {
			acc := src.At(x, y).Mul(weights[0])
			for i := 1; i < len(weights); i++ {
				a := src.At(x+i*dx, y+i*dy)
				b := src.At(x-i*dx, y-i*dy)
				acc = acc.Add(a.Add(b).Mul(weights[i]))
			}
			dst.Set(x, y, acc)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("blur %s: %w", axis, err)
	}
	return nil
}

// Blur runs the horizontal then the vertical pass and returns the result.
// src is left untouched.
func Blur(ctx context.Context, src *core.Image, radius int, workers int) (*core.Image, error) {
	if !src.Ready() {
		return nil, fmt.Errorf("blur: empty source")
	}
	tmp := core.NewImage(src.Width, src.Height)
	if err := BlurPass(ctx, src, tmp, Horizontal, radius, workers); err != nil {
		return nil, err
	}
	out := core.NewImage(src.Width, src.Height)
	if err := BlurPass(ctx, tmp, out, Vertical, radius, workers); err != nil {
		return nil, err
	}
	return out, nil
}

