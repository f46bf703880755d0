package kernel

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	PhaseScale = 5.5

	// MaxAsymmetry bounds |g| away from 1 where the phase function diverges.
	MaxAsymmetry = 0.99
)

func ClampAsymmetry(g float32) float32 {
	if math32.IsNaN(g) {
		return 0
	}
	return math32.Max(-MaxAsymmetry, math32.Min(MaxAsymmetry, g))
}

// Phase is the Henyey-Greenstein phase function for asymmetry g and the cosine
// between the reversed light direction and the view ray.
func Phase(g, cosTheta float32) float32 {
	g = ClampAsymmetry(g)
	cosTheta = math32.Max(-1, math32.Min(1, cosTheta))
	g2 := g * g
	return (1 / (4 * math32.Pi)) * (1 - g2) / math32.Pow(1+g2-2*g*cosTheta, 1.5)
}

// LightDotView is the cosine between -lightDir and the view ray.
func LightDotView(lightDir, ray mgl32.Vec3) float32 {
	if lightDir.Len() == 0 || ray.Len() == 0 {
		return 0
	}
	return lightDir.Mul(-1).Normalize().Dot(ray.Normalize())
}
