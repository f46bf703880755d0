// Package output turns float frames into 8-bit images with optional debug
// overlays and writes them as PNG.
package output

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/chewxy/math32"
	"github.com/gekko3d/godrays/volumetric/rt/core"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PreviewScale is the default inset size relative to the frame.
const PreviewScale = 0.25

func to8(v float32) uint8 {
	if math32.IsNaN(v) {
		return 0
	}
	return uint8(math32.Round(core.Saturate(v) * 255))
}

// ToRGBA converts a float image to 8-bit, clamping to [0,1]. Frame rows are
// stored bottom-up, image rows top-down.
func ToRGBA(img *core.Image) *image.RGBA {
	if !img.Ready() {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		row := img.Height - 1 - y
		for x := 0; x < img.Width; x++ {
			c := img.At(x, row)
			out.SetRGBA(x, y, color.RGBA{R: to8(c[0]), G: to8(c[1]), B: to8(c[2]), A: to8(c[3])})
		}
	}
	return out
}

// DepthImage renders a depth texture as grayscale, near is dark.
func DepthImage(depth *core.Texture) *image.Gray {
	if !depth.Ready() {
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}
	out := image.NewGray(image.Rect(0, 0, depth.Width, depth.Height))
	for y := 0; y < depth.Height; y++ {
		row := depth.Height - 1 - y
		for x := 0; x < depth.Width; x++ {
			out.SetGray(x, y, color.Gray{Y: to8(depth.At(x, row))})
		}
	}
	return out
}

func insetRect(bounds image.Rectangle, scale float64) image.Rectangle {
	w := int(float64(bounds.Dx()) * scale)
	h := int(float64(bounds.Dy()) * scale)
	return image.Rect(bounds.Max.X-w, bounds.Max.Y-h, bounds.Max.X, bounds.Max.Y)
}

// DepthPreview draws a scaled grayscale depth view into the bottom-right
// corner of dst.
func DepthPreview(dst *image.RGBA, depth *core.Texture, scale float64) {
	r := insetRect(dst.Bounds(), scale)
	if r.Empty() || !depth.Ready() {
		return
	}
	small := transform.Resize(DepthImage(depth), r.Dx(), r.Dy(), transform.Linear)
	draw.Draw(dst, r, small, image.Point{}, draw.Src)
}

// InsetDepth writes the same preview into a float frame, for paths that
// present the frame on the GPU.
func InsetDepth(img *core.Image, depth *core.Texture, scale float64) {
	if !img.Ready() || !depth.Ready() {
		return
	}
	r := insetRect(image.Rect(0, 0, img.Width, img.Height), scale)
	if r.Empty() {
		return
	}
	small := transform.Resize(DepthImage(depth), r.Dx(), r.Dy(), transform.Linear)
	for y := 0; y < r.Dy(); y++ {
		// Bottom-right in image space is the low rows of the frame.
		row := r.Dy() - 1 - y
		for x := 0; x < r.Dx(); x++ {
			g := float32(small.RGBAAt(x, y).R) / 255
			img.Set(r.Min.X+x, row, mgl32.Vec4{g, g, g, 1})
		}
	}
}

// Annotate stamps text lines in the top-left corner of dst.
func Annotate(dst *image.RGBA, lines []string) {
	face := basicfont.Face7x13
	lh := face.Metrics().Height.Ceil()
	d := &font.Drawer{Dst: dst, Face: face}
	for i, line := range lines {
		base := fixed.P(6, 4+lh*(i+1))
		d.Src = image.NewUniform(color.RGBA{A: 255})
		d.Dot = base.Add(fixed.P(1, 1))
		d.DrawString(line)
		d.Src = image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255})
		d.Dot = base
		d.DrawString(line)
	}
}

// Save writes img as PNG.
func Save(path string, img image.Image) error {
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// FramePath numbers path when more than one frame is written:
// out.png -> out_0003.png.
func FramePath(path string, index uint64, frames int) string {
	if frames <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%04d%s", strings.TrimSuffix(path, ext), index, ext)
}
