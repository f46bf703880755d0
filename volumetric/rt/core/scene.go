package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Box is an axis aligned opaque caster.
type Box struct {
	Name   string
	Min    mgl32.Vec3
	Max    mgl32.Vec3
	Albedo mgl32.Vec3
}

type Hit struct {
	T      float32
	Box    int
	Normal mgl32.Vec3
}

type Scene struct {
	Boxes []Box
}

func NewScene() *Scene {
	return &Scene{}
}

// Add registers a box. Every box is also a shadow caster.
func (s *Scene) Add(b Box) {
	s.Boxes = append(s.Boxes, b)
}

// Raycast returns the closest hit in [0, tMax]. An origin inside a box hits it at 0.
func (s *Scene) Raycast(r Ray, tMax float32) (Hit, bool) {
	best := Hit{T: tMax, Box: -1}
	for i := range s.Boxes {
		b := &s.Boxes[i]
		tNear, _, ok := IntersectAABB(r, b.Min, b.Max)
		if !ok || tNear > best.T {
			continue
		}
		best.T = tNear
		best.Box = i
	}
	if best.Box < 0 {
		return Hit{}, false
	}
	best.Normal = boxNormal(&s.Boxes[best.Box], r.At(best.T))
	return best, true
}

// IntersectAABB is a slab test. tNear is clamped to 0 when the origin is inside the box.
func IntersectAABB(r Ray, minB, maxB mgl32.Vec3) (float32, float32, bool) {
	tMin := float32(0)
	tMax := float32(math32.MaxFloat32)
	for a := 0; a < 3; a++ {
		o, d := r.Origin[a], r.Direction[a]
		if math32.Abs(d) < 1e-8 {
			if o < minB[a] || o > maxB[a] {
				return 0, 0, false
			}
			continue
		}
		inv := 1 / d
		t1 := (minB[a] - o) * inv
		t2 := (maxB[a] - o) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math32.Max(tMin, t1)
		tMax = math32.Min(tMax, t2)
		if tMin > tMax {
			return 0, 0, false
		}
	}
	return tMin, tMax, true
}

func boxNormal(b *Box, p mgl32.Vec3) mgl32.Vec3 {
	best := float32(math32.MaxFloat32)
	var n mgl32.Vec3
	for a := 0; a < 3; a++ {
		if d := math32.Abs(p[a] - b.Min[a]); d < best {
			best = d
			n = mgl32.Vec3{}
			n[a] = -1
		}
		if d := math32.Abs(p[a] - b.Max[a]); d < best {
			best = d
			n = mgl32.Vec3{}
			n[a] = 1
		}
	}
	return n
}

// DemoScene is a small courtyard: a ground slab, a ring of pillars and a
// slatted roof whose gaps let shafts of light through.
func DemoScene() *Scene {
	s := NewScene()
	stone := mgl32.Vec3{0.72, 0.68, 0.62}
	wood := mgl32.Vec3{0.45, 0.33, 0.22}

	s.Add(Box{Name: "Ground", Min: mgl32.Vec3{-20, -1, -20}, Max: mgl32.Vec3{20, 0, 20}, Albedo: stone})
	for i := 0; i < 4; i++ {
		x := -4.5 + 3*float32(i)
		s.Add(Box{Name: "PillarNorth", Min: mgl32.Vec3{x - 0.3, 0, -4.3}, Max: mgl32.Vec3{x + 0.3, 5, -3.7}, Albedo: stone})
		s.Add(Box{Name: "PillarSouth", Min: mgl32.Vec3{x - 0.3, 0, 3.7}, Max: mgl32.Vec3{x + 0.3, 5, 4.3}, Albedo: stone})
	}
	for i := 0; i < 6; i++ {
		z := -4.5 + 1.8*float32(i)
		s.Add(Box{Name: "RoofSlat", Min: mgl32.Vec3{-6, 5, z}, Max: mgl32.Vec3{6, 5.3, z + 1}, Albedo: wood})
	}
	s.Add(Box{Name: "BackWall", Min: mgl32.Vec3{7, 0, -6}, Max: mgl32.Vec3{8, 7, 6}, Albedo: stone})
	return s
}
