package post

import (
	"context"
	"fmt"

	"github.com/gekko3d/godrays/volumetric/rt/core"
	"github.com/gekko3d/godrays/volumetric/rt/worker"

	"github.com/go-gl/mathgl/mgl32"
)

// Composite adds the overlay onto the base frame weighted by the overlay alpha.
// The result is opaque.
func Composite(ctx context.Context, base, over *core.Image, workers int) (*core.Image, error) {
	if !base.Ready() || !base.SameSize(over) {
		return nil, fmt.Errorf("composite: base and overlay sizes differ")
	}
	out := core.NewImage(base.Width, base.Height)
	err := worker.Rows(ctx, workers, base.Height, func(y int) error {
		for x := 0; x < base.Width; x++ {
			out.Set(x, y, AlphaOver(base.At(x, y), over.At(x, y)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("composite: %w", err)
	}
	return out, nil
}

// AlphaOver is base.rgb + over.rgb * over.a with alpha 1.
func AlphaOver(base, over mgl32.Vec4) mgl32.Vec4 {
	return base.Vec3().Add(over.Vec3().Mul(over.W())).Vec4(1)
}

// PassThrough returns the base frame unchanged apart from forcing alpha to 1.
func PassThrough(base *core.Image) *core.Image {
	out := base.Clone()
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 1
	}
	return out
}
