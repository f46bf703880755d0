package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntersectAABB(t *testing.T) {
	minB := mgl32.Vec3{-1, -1, -1}
	maxB := mgl32.Vec3{1, 1, 1}

	tests := []struct {
		name  string
		ray   Ray
		hit   bool
		tNear float32
	}{
		{"front", Ray{mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, -1}}, true, 4},
		{"miss", Ray{mgl32.Vec3{3, 0, 5}, mgl32.Vec3{0, 0, -1}}, false, 0},
		{"behind", Ray{mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, 1}}, false, 0},
		{"inside", Ray{mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}}, true, 0},
		{"diagonal", Ray{mgl32.Vec3{-3, -3, 0}, mgl32.Vec3{1, 1, 0}.Normalize()}, true, 2.828427},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tNear, _, ok := IntersectAABB(tt.ray, minB, maxB)
			require.Equal(t, tt.hit, ok)
			if ok {
				assert.InDelta(t, tt.tNear, tNear, 1e-4)
			}
		})
	}
}

func TestScene_RaycastClosest(t *testing.T) {
	s := NewScene()
	s.Add(Box{Name: "far", Min: mgl32.Vec3{-1, -1, -10}, Max: mgl32.Vec3{1, 1, -9}})
	s.Add(Box{Name: "near", Min: mgl32.Vec3{-1, -1, -5}, Max: mgl32.Vec3{1, 1, -4}})

	hit, ok := s.Raycast(Ray{mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}}, 100)
	require.True(t, ok)
	assert.Equal(t, "near", s.Boxes[hit.Box].Name)
	assert.InDelta(t, 4, hit.T, 1e-5)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, hit.Normal)

	_, ok = s.Raycast(Ray{mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}}, 3)
	assert.False(t, ok)
}

func TestDemoScene(t *testing.T) {
	s := DemoScene()
	require.NotEmpty(t, s.Boxes)

	// Straight down from above the courtyard reaches the roof or the ground.
	hit, ok := s.Raycast(Ray{mgl32.Vec3{0, 20, 0}, mgl32.Vec3{0, -1, 0}}, 100)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, hit.Normal)
}

func TestScene_RaycastFromInsideBox(t *testing.T) {
	s := NewScene()
	s.Add(Box{Name: "Room", Min: mgl32.Vec3{-5, -5, -5}, Max: mgl32.Vec3{5, 5, 5}})

	hit, ok := s.Raycast(Ray{mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}}, 100)
	require.True(t, ok)
	assert.Equal(t, float32(0), hit.T)
	assert.Equal(t, 0, hit.Box)
}
