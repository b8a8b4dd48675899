// Package heightfield is the height oracle for the toolpath planner. It
// indexes the XY footprint of every mesh triangle in an R-tree and answers
// point height queries by barycentric interpolation over the triangles
// under the query point. It also extracts the steep facets of the mesh as
// wall segments for straight-sided tools.
package heightfield

import (
	"math"

	"github.com/chazu/swarf/pkg/kernel"
	"github.com/dhconnelly/rtreego"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// R-tree fan-out. Matches rtreego's examples.
const (
	minChildren = 25
	maxChildren = 50
)

// boundsPad keeps R-tree rectangles non-degenerate for axis-aligned facets.
const boundsPad = 1e-9

// queryHalf is the half-size of the rectangle used for point queries.
const queryHalf = 1e-7

// facet is one indexed triangle. Its XY bounds are fixed once indexed;
// Scale only rewrites Z so the tree stays valid.
type facet struct {
	v      [3]v3.Vec
	normal v3.Vec
	bounds rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (f *facet) Bounds() rtreego.Rect {
	return f.bounds
}

func (f *facet) index() {
	minX := math.Min(f.v[0].X, math.Min(f.v[1].X, f.v[2].X))
	minY := math.Min(f.v[0].Y, math.Min(f.v[1].Y, f.v[2].Y))
	maxX := math.Max(f.v[0].X, math.Max(f.v[1].X, f.v[2].X))
	maxY := math.Max(f.v[0].Y, math.Max(f.v[1].Y, f.v[2].Y))
	r, err := rtreego.NewRect(rtreego.Point{minX, minY}, []float64{maxX - minX + boundsPad, maxY - minY + boundsPad})
	if err != nil {
		// Lengths are always positive.
		panic(err)
	}
	f.bounds = r
}

// heightAt returns the facet's surface height at (x, y) and whether the
// point lies inside its XY projection.
func (f *facet) heightAt(x, y float64) (float64, bool) {
	a, b, c := f.v[0], f.v[1], f.v[2]
	d := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if math.Abs(d) < 1e-12 {
		return 0, false
	}
	l1 := ((b.Y-c.Y)*(x-c.X) + (c.X-b.X)*(y-c.Y)) / d
	l2 := ((c.Y-a.Y)*(x-c.X) + (a.X-c.X)*(y-c.Y)) / d
	l3 := 1 - l1 - l2
	const eps = -1e-9
	if l1 < eps || l2 < eps || l3 < eps {
		return 0, false
	}
	return l1*a.Z + l2*b.Z + l3*c.Z, true
}

// Field is a queryable height field over a triangle mesh. It is not safe
// for concurrent mutation; concurrent Height calls after setup are fine.
type Field struct {
	facets   []*facet
	tree     *rtreego.Rtree
	min, max v3.Vec
}

// New indexes the triangles of m. A nil or empty mesh yields an all-air
// field whose heights are 0 everywhere.
func New(m *kernel.Mesh) *Field {
	f := &Field{}
	if m != nil {
		f.facets = make([]*facet, 0, m.TriangleCount())
		for i := 0; i < m.TriangleCount(); i++ {
			tri := m.Triangle(i)
			n := tri.Normal
			if l := n.Length(); l > 0 {
				n = n.MulScalar(1 / l)
			} else {
				n = tri.FaceNormal()
			}
			f.facets = append(f.facets, &facet{v: tri.V, normal: n})
		}
	}
	f.reindex()
	return f
}

// reindex recomputes bounds and rebuilds the R-tree.
func (f *Field) reindex() {
	objs := make([]rtreego.Spatial, len(f.facets))
	for i, fc := range f.facets {
		fc.index()
		objs[i] = fc
	}
	f.tree = rtreego.NewTree(2, minChildren, maxChildren, objs...)
	f.recomputeBounds()
}

func (f *Field) recomputeBounds() {
	if len(f.facets) == 0 {
		f.min, f.max = v3.Vec{}, v3.Vec{}
		return
	}
	f.min = v3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	f.max = v3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, fc := range f.facets {
		for _, v := range fc.v {
			f.min = f.min.Min(v)
			f.max = f.max.Max(v)
		}
	}
}

// Len returns the number of indexed triangles.
func (f *Field) Len() int {
	return len(f.facets)
}

// Bounds returns the current bounding box of the mesh.
func (f *Field) Bounds() (min, max v3.Vec) {
	return f.min, f.max
}

// Normalize translates the mesh so its minimum corner sits at the origin.
func (f *Field) Normalize() {
	if len(f.facets) == 0 {
		return
	}
	shift := f.min
	for _, fc := range f.facets {
		for i := range fc.v {
			fc.v[i] = fc.v[i].Sub(shift)
		}
	}
	f.reindex()
}

// Scale stretches Z so the model spans targetDepth, then lifts it by
// zOffset. A flat model keeps its Z and only receives the offset.
func (f *Field) Scale(targetDepth, zOffset float64) {
	if len(f.facets) == 0 {
		return
	}
	factor := 1.0
	if size := f.max.Z - f.min.Z; size > 0 && targetDepth > 0 {
		factor = targetDepth / size
	}
	for _, fc := range f.facets {
		for i := range fc.v {
			fc.v[i].Z = fc.v[i].Z*factor + zOffset
		}
	}
	f.recomputeBounds()
}

// Height returns the surface height at (x, y), never below 0. Points off
// the mesh are air and report 0.
func (f *Field) Height(x, y float64) float64 {
	if len(f.facets) == 0 {
		return 0
	}
	q, err := rtreego.NewRect(rtreego.Point{x - queryHalf, y - queryHalf}, []float64{2 * queryHalf, 2 * queryHalf})
	if err != nil {
		panic(err)
	}
	h := 0.0
	for _, s := range f.tree.SearchIntersect(q) {
		if z, ok := s.(*facet).heightAt(x, y); ok && z > h {
			h = z
		}
	}
	return h
}

// FootprintX returns the model extent along X.
func (f *Field) FootprintX() float64 {
	return f.max.X - f.min.X
}

// FootprintY returns the model extent along Y.
func (f *Field) FootprintY() float64 {
	return f.max.Y - f.min.Y
}

// ModelHeight returns the model extent along Z.
func (f *Field) ModelHeight() float64 {
	return f.max.Z - f.min.Z
}
