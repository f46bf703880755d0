package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Texture is a single channel float grid. Row 0 is the bottom of the image,
// so uv (0,0) addresses the bottom-left texel.
type Texture struct {
	Width  int
	Height int
	Data   []float32
}

func NewTexture(w, h int) *Texture {
	return &Texture{Width: w, Height: h, Data: make([]float32, w*h)}
}

// Ready reports whether the texture holds a complete grid.
func (t *Texture) Ready() bool {
	return t != nil && t.Width > 0 && t.Height > 0 && len(t.Data) == t.Width*t.Height
}

func (t *Texture) At(x, y int) float32 {
	x = clampInt(x, 0, t.Width-1)
	y = clampInt(y, 0, t.Height-1)
	return t.Data[y*t.Width+x]
}

func (t *Texture) Set(x, y int, v float32) {
	t.Data[y*t.Width+x] = v
}

func (t *Texture) Fill(v float32) {
	for i := range t.Data {
		t.Data[i] = v
	}
}

// Sample is a nearest-texel lookup with clamp-to-edge addressing.
func (t *Texture) Sample(u, v float32) float32 {
	x, y := texel(u, v, t.Width, t.Height)
	return t.Data[y*t.Width+x]
}

// Clamp01 clamps every texel into [0,1]. NaN becomes 0.
func (t *Texture) Clamp01() {
	for i, v := range t.Data {
		t.Data[i] = Saturate(v)
	}
}

// Image is an RGBA float image with the same orientation as Texture.
type Image struct {
	Width  int
	Height int
	Pix    []float32
}

func NewImage(w, h int) *Image {
	return &Image{Width: w, Height: h, Pix: make([]float32, 4*w*h)}
}

func (m *Image) Ready() bool {
	return m != nil && m.Width > 0 && m.Height > 0 && len(m.Pix) == 4*m.Width*m.Height
}

func (m *Image) SameSize(o *Image) bool {
	return m != nil && o != nil && m.Width == o.Width && m.Height == o.Height
}

func (m *Image) At(x, y int) mgl32.Vec4 {
	x = clampInt(x, 0, m.Width-1)
	y = clampInt(y, 0, m.Height-1)
	i := 4 * (y*m.Width + x)
	return mgl32.Vec4{m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3]}
}

func (m *Image) Set(x, y int, c mgl32.Vec4) {
	i := 4 * (y*m.Width + x)
	m.Pix[i] = c[0]
	m.Pix[i+1] = c[1]
	m.Pix[i+2] = c[2]
	m.Pix[i+3] = c[3]
}

func (m *Image) Fill(c mgl32.Vec4) {
	for i := 0; i < len(m.Pix); i += 4 {
		copy(m.Pix[i:i+4], c[:])
	}
}

func (m *Image) Clone() *Image {
	out := &Image{Width: m.Width, Height: m.Height, Pix: make([]float32, len(m.Pix))}
	copy(out.Pix, m.Pix)
	return out
}

// Saturate clamps v into [0,1], mapping NaN to 0.
func Saturate(v float32) float32 {
	if math32.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func texel(u, v float32, w, h int) (int, int) {
	if math32.IsNaN(u) {
		u = 0
	}
	if math32.IsNaN(v) {
		v = 0
	}
	x := int(math32.Floor(clampf(u*float32(w), -1, float32(w))))
	y := int(math32.Floor(clampf(v*float32(h), -1, float32(h))))
	return clampInt(x, 0, w-1), clampInt(y, 0, h-1)
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
