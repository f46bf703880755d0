package post

import (
	"context"
	"testing"

	"github.com/gekko3d/godrays/volumetric/rt/core"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGaussianWeights(t *testing.T) {
	w := GaussianWeights(KernelRadius)
	require.Len(t, w, KernelRadius+1)

	sum := w[0]
	for i := 1; i < len(w); i++ {
		sum += 2 * w[i]
		assert.Less(t, w[i], w[i-1])
	}
	assert.InDelta(t, 1, sum, 1e-5)
	assert.Equal(t, []float32{1}, GaussianWeights(0))
}

func TestBlur_PreservesConstantImage(t *testing.T) {
	src := core.NewImage(13, 7)
	src.Fill(mgl32.Vec4{0.2, 0.4, 0.6, 0.5})

	out, err := Blur(context.Background(), src, KernelRadius, 2)
	require.NoError(t, err)
	for y := 0; y < 7; y++ {
		for x := 0; x < 13; x++ {
			assert.True(t, out.At(x, y).ApproxEqualThreshold(mgl32.Vec4{0.2, 0.4, 0.6, 0.5}, 1e-5))
		}
	}
}

func TestBlurPass_SpreadsAlongAxisOnly(t *testing.T) {
	src := core.NewImage(21, 21)
	src.Set(10, 10, mgl32.Vec4{1, 1, 1, 1})
	w := GaussianWeights(3)

	h := core.NewImage(21, 21)
	require.NoError(t, BlurPass(context.Background(), src, h, Horizontal, 3, 1))
	assert.InDelta(t, w[0], h.At(10, 10).X(), 1e-6)
	assert.InDelta(t, w[2], h.At(12, 10).X(), 1e-6)
	assert.InDelta(t, w[2], h.At(8, 10).X(), 1e-6)
	assert.Equal(t, float32(0), h.At(10, 11).X())
	assert.Equal(t, float32(0), h.At(14, 10).X())

	v := core.NewImage(21, 21)
	require.NoError(t, BlurPass(context.Background(), src, v, Vertical, 3, 1))
	assert.InDelta(t, w[1], v.At(10, 11).W(), 1e-6)
	assert.Equal(t, float32(0), v.At(11, 10).W())
}

func TestBlur_SeparableIsSymmetric(t *testing.T) {
	src := core.NewImage(25, 25)
	src.Set(12, 12, mgl32.Vec4{1, 0, 0, 1})

	out, err := Blur(context.Background(), src, KernelRadius, 0)
	require.NoError(t, err)
	assert.InDelta(t, out.At(15, 12).X(), out.At(12, 15).X(), 1e-7)
	assert.InDelta(t, out.At(9, 14).X(), out.At(14, 9).X(), 1e-7)

	// Energy is conserved away from the borders.
	var sum float32
	for i := 0; i < len(out.Pix); i += 4 {
		sum += out.Pix[i]
	}
	assert.InDelta(t, 1, sum, 1e-4)
	assert.Equal(t, float32(1), src.At(12, 12).X())
}

func TestBlurPass_SizeMismatch(t *testing.T) {
	err := BlurPass(context.Background(), core.NewImage(4, 4), core.NewImage(5, 4), Horizontal, 2, 1)
	assert.Error(t, err)
}

func TestComposite(t *testing.T) {
	base := core.NewImage(2, 1)
	base.Set(0, 0, mgl32.Vec4{0.1, 0.2, 0.3, 0.4})
	base.Set(1, 0, mgl32.Vec4{0.5, 0.5, 0.5, 1})
	over := core.NewImage(2, 1)
	over.Set(0, 0, mgl32.Vec4{1, 1, 0.5, 0.5})
	over.Set(1, 0, mgl32.Vec4{3, 3, 3, 0})

	out, err := Composite(context.Background(), base, over, 1)
	require.NoError(t, err)
	assert.True(t, out.At(0, 0).ApproxEqual(mgl32.Vec4{0.6, 0.7, 0.55, 1}))
	assert.Equal(t, mgl32.Vec4{0.5, 0.5, 0.5, 1}, out.At(1, 0))

	_, err = Composite(context.Background(), base, core.NewImage(1, 1), 1)
	assert.Error(t, err)
}

func TestPassThrough(t *testing.T) {
	base := core.NewImage(1, 1)
	base.Set(0, 0, mgl32.Vec4{0.3, 0.2, 0.1, 0})
	out := PassThrough(base)
	assert.Equal(t, mgl32.Vec4{0.3, 0.2, 0.1, 1}, out.At(0, 0))
	assert.Equal(t, float32(0), base.At(0, 0).W())
}
