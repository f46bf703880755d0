package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestTexture_SampleNearestClamp(t *testing.T) {
	tex := NewTexture(4, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			tex.Set(x, y, float32(y*10+x))
		}
	}

	tests := []struct {
		name     string
		u, v     float32
		expected float32
	}{
		{"bottom left", 0, 0, 0},
		{"second texel", 0.3, 0.1, 1},
		{"top right", 0.99, 0.99, 13},
		{"u past edge", 1.5, 0.2, 3},
		{"negative", -2, -2, 0},
		{"exact one", 1, 1, 13},
		{"nan", float32(math.NaN()), 0.9, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tex.Sample(tt.u, tt.v))
		})
	}
}

func TestTexture_Clamp01(t *testing.T) {
	tex := &Texture{Width: 4, Height: 1, Data: []float32{-1, 0.5, 2, float32(math.NaN())}}
	tex.Clamp01()
	assert.Equal(t, []float32{0, 0.5, 1, 0}, tex.Data)
}

func TestTexture_Ready(t *testing.T) {
	var nilTex *Texture
	assert.False(t, nilTex.Ready())
	assert.False(t, (&Texture{Width: 2, Height: 2}).Ready())
	assert.True(t, NewTexture(2, 2).Ready())
}

func TestImage_SetAtClone(t *testing.T) {
	img := NewImage(3, 2)
	img.Fill(mgl32.Vec4{0, 0, 0, 1})
	img.Set(2, 1, mgl32.Vec4{1, 2, 3, 4})

	c := img.Clone()
	img.Set(2, 1, mgl32.Vec4{})

	assert.Equal(t, mgl32.Vec4{1, 2, 3, 4}, c.At(2, 1))
	assert.Equal(t, mgl32.Vec4{0, 0, 0, 1}, c.At(0, 0))
	assert.Equal(t, mgl32.Vec4{1, 2, 3, 4}, c.At(5, 5))
	assert.True(t, img.SameSize(c))
}
