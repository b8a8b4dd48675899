package kernel

import (
	"math"
	"testing"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := &Mesh{Vertices: []float32{1, 2, 3}}
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

func TestAddTriangleRoundTrip(t *testing.T) {
	m := &Mesh{}
	m.AddTriangle([3]float32{0, 0, 1}, [3]float32{0, 0, 2}, [3]float32{4, 0, 2}, [3]float32{0, 3, 2})
	m.AddTriangle([3]float32{0, 0, 1}, [3]float32{4, 0, 2}, [3]float32{4, 3, 2}, [3]float32{0, 3, 2})

	if m.TriangleCount() != 2 {
		t.Fatalf("TriangleCount() = %d, want 2", m.TriangleCount())
	}
	if m.VertexCount() != 6 {
		t.Fatalf("VertexCount() = %d, want 6", m.VertexCount())
	}

	tri := m.Triangle(1)
	if tri.V[1].X != 4 || tri.V[1].Y != 3 || tri.V[1].Z != 2 {
		t.Errorf("Triangle(1).V[1] = %v, want (4,3,2)", tri.V[1])
	}
	if tri.Normal.Z != 1 {
		t.Errorf("Triangle(1).Normal = %v, want +Z", tri.Normal)
	}
}

func TestFaceNormal(t *testing.T) {
	m := &Mesh{}
	// Counter-clockwise seen from +Z.
	m.AddTriangle([3]float32{}, [3]float32{0, 0, 0}, [3]float32{1, 0, 0}, [3]float32{0, 1, 0})
	// Degenerate.
	m.AddTriangle([3]float32{}, [3]float32{0, 0, 0}, [3]float32{1, 0, 0}, [3]float32{2, 0, 0})

	n := m.Triangle(0).FaceNormal()
	if math.Abs(n.Z-1) > 1e-12 || n.X != 0 || n.Y != 0 {
		t.Errorf("FaceNormal() = %v, want (0,0,1)", n)
	}
	if d := m.Triangle(1).FaceNormal(); d.Length() != 0 {
		t.Errorf("degenerate FaceNormal() = %v, want zero vector", d)
	}
}

func TestMeshBounds(t *testing.T) {
	m := &Mesh{}
	min, max := m.Bounds()
	if min != [3]float64{} || max != [3]float64{} {
		t.Errorf("empty Bounds() = %v %v, want zero", min, max)
	}

	m.AddTriangle([3]float32{}, [3]float32{-1, 2, 3}, [3]float32{5, -2, 0}, [3]float32{1, 1, 7})
	min, max = m.Bounds()
	if min != [3]float64{-1, -2, 0} {
		t.Errorf("Bounds() min = %v, want [-1 -2 0]", min)
	}
	if max != [3]float64{5, 2, 7} {
		t.Errorf("Bounds() max = %v, want [5 2 7]", max)
	}
}

// --- Compile-time interface check with a stub kernel ---

// stubSolid is a minimal Solid implementation for testing.
type stubSolid struct {
	minBB, maxBB [3]float64
}

func (s *stubSolid) BoundingBox() (min, max [3]float64) {
	return s.minBB, s.maxBB
}

// stubKernel is a minimal Kernel implementation that proves the interface
// is satisfiable. All methods return trivial results.
type stubKernel struct{}

func (k *stubKernel) Box(x, y, z float64) Solid {
	return &stubSolid{
		minBB: [3]float64{0, 0, 0},
		maxBB: [3]float64{x, y, z},
	}
}

func (k *stubKernel) Cylinder(height, radius float64) Solid {
	return &stubSolid{
		minBB: [3]float64{-radius, -radius, -height / 2},
		maxBB: [3]float64{radius, radius, height / 2},
	}
}

func (k *stubKernel) Sphere(radius float64) Solid {
	return &stubSolid{
		minBB: [3]float64{-radius, -radius, -radius},
		maxBB: [3]float64{radius, radius, radius},
	}
}

func (k *stubKernel) Union(a, _ Solid) Solid        { return a }
func (k *stubKernel) Difference(a, _ Solid) Solid   { return a }
func (k *stubKernel) Intersection(a, _ Solid) Solid { return a }

func (k *stubKernel) Translate(s Solid, _, _, _ float64) Solid { return s }

func (k *stubKernel) ToMesh(_ Solid) (*Mesh, error) {
	return &Mesh{}, nil
}

var _ Solid = (*stubSolid)(nil)
var _ Kernel = (*stubKernel)(nil)

func TestStubKernelBoxBoundingBox(t *testing.T) {
	var k Kernel = &stubKernel{}
	s := k.Box(10, 20, 30)
	min, max := s.BoundingBox()
	if min != [3]float64{0, 0, 0} {
		t.Errorf("Box min = %v, want [0 0 0]", min)
	}
	if max != [3]float64{10, 20, 30} {
		t.Errorf("Box max = %v, want [10 20 30]", max)
	}
}
