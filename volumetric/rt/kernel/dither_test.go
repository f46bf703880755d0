package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDitherMatrix_Layout(t *testing.T) {
	want := [16]float32{0, 0.5, 0.125, 0.625, 0.75, 0.22, 0.875, 0.375, 0.1875, 0.6875, 0.0625, 0.5625, 0.9375, 0.4375, 0.8125, 0.3125}
	assert.Equal(t, want, DitherValues)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			assert.Equal(t, DitherValues[4*i+j], DitherMatrix[i][j])
		}
	}
}

func TestDitherOffset_WithinOneStep(t *testing.T) {
	for _, step := range []float32{0.001, 0.01, 0.02, 0.5, 1} {
		for y := -5; y < 13; y++ {
			for x := -5; x < 13; x++ {
				t0 := DitherOffset(x, y, step)
				assert.GreaterOrEqual(t, t0, float32(0))
				assert.Less(t, t0, step)
			}
		}
	}
}

func TestDitherOffset_Values(t *testing.T) {
	// DitherMatrix is indexed [x%4][y%4] over column-major values, so 0.125 sits at (0,2).
	assert.InDelta(t, 0.00125, DitherOffset(0, 2, 0.01), 1e-9)
	assert.InDelta(t, 0.00125, DitherOffset(4, 6, 0.01), 1e-9)
	assert.Equal(t, float32(0), DitherOffset(0, 0, 0.01))
	assert.InDelta(t, 0.0022, DitherOffset(1, 1, 0.01), 1e-9)
	assert.Equal(t, Dither(3, 0), Dither(-1, 4))
}

func TestDither_StableAcrossCalls(t *testing.T) {
	a := make([]float32, 0, 64)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			a = append(a, Dither(x, y))
		}
	}
	for i, y := 0, 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			assert.Equal(t, a[i], Dither(x, y))
			i++
		}
	}
}
