package kernel

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mesh is an unindexed triangle mesh in reduced precision.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
// A mesh is treated as immutable once ingestion has finished.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`     // source file or model name
}

// Triangle is one facet of a mesh in full precision.
type Triangle struct {
	Normal v3.Vec
	V      [3]v3.Vec
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// AddTriangle appends a facet. The normal is stored once per vertex.
func (m *Mesh) AddTriangle(n, a, b, c [3]float32) {
	base := uint32(m.VertexCount())
	for _, v := range [3][3]float32{a, b, c} {
		m.Vertices = append(m.Vertices, v[0], v[1], v[2])
		m.Normals = append(m.Normals, n[0], n[1], n[2])
	}
	m.Indices = append(m.Indices, base, base+1, base+2)
}

// Triangle returns facet i widened to float64.
func (m *Mesh) Triangle(i int) Triangle {
	var t Triangle
	for j := 0; j < 3; j++ {
		k := int(m.Indices[i*3+j]) * 3
		t.V[j] = v3.Vec{
			X: float64(m.Vertices[k]),
			Y: float64(m.Vertices[k+1]),
			Z: float64(m.Vertices[k+2]),
		}
	}
	k := int(m.Indices[i*3]) * 3
	if k+2 < len(m.Normals) {
		t.Normal = v3.Vec{
			X: float64(m.Normals[k]),
			Y: float64(m.Normals[k+1]),
			Z: float64(m.Normals[k+2]),
		}
	}
	return t
}

// Bounds returns the axis-aligned bounding box of all vertices.
// An empty mesh reports a zero box.
func (m *Mesh) Bounds() (min, max [3]float64) {
	if m.IsEmpty() {
		return min, max
	}
	for i := 0; i < 3; i++ {
		min[i] = math.Inf(1)
		max[i] = math.Inf(-1)
	}
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		for j := 0; j < 3; j++ {
			v := float64(m.Vertices[i+j])
			min[j] = math.Min(min[j], v)
			max[j] = math.Max(max[j], v)
		}
	}
	return min, max
}

// FaceNormal computes the unit normal from the vertex winding.
// Degenerate triangles return the zero vector.
func (t Triangle) FaceNormal() v3.Vec {
	n := t.V[1].Sub(t.V[0]).Cross(t.V[2].Sub(t.V[0]))
	l := n.Length()
	if l == 0 {
		return v3.Vec{}
	}
	return n.MulScalar(1 / l)
}
