package toolpath

import (
	"math"

	"github.com/chazu/swarf/pkg/heightfield"
	"github.com/chazu/swarf/pkg/tool"
)

// heightFunc adapts a plain function to HeightQuery.
type heightFunc func(x, y float64) float64

func (f heightFunc) Height(x, y float64) float64 { return f(x, y) }

func flat(h float64) heightFunc {
	return func(x, y float64) float64 { return h }
}

// wallFunc is a height function with a fixed set of wall segments.
type wallFunc struct {
	heightFunc
	segs []heightfield.WallSegment
}

func (w wallFunc) VerticalSegments(float64) []heightfield.WallSegment {
	out := make([]heightfield.WallSegment, len(w.segs))
	copy(out, w.segs)
	return out
}

func endmill(d float64) tool.Profile {
	return tool.Profile{ID: 1, Name: "endmill", Diameter: d, Stepover: d / 2, DepthOfCut: 1.5, Shape: tool.Flat}
}

func ballnose(d float64) tool.Profile {
	return tool.Profile{ID: 2, Name: "ballnose", Diameter: d, Stepover: d / 4, DepthOfCut: 1, Shape: tool.Ballnose}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// allRamps returns every ramp of a collection, in layer order.
func allRamps(c *PathCollection) []Ramp {
	var out []Ramp
	for _, l := range c.Layers {
		out = append(out, l.Ramps()...)
	}
	return out
}

func endpoints(r Ramp) (x1, y1, x2, y2 float64) {
	pts := r.Path.Points()
	return pts[0].X(), pts[0].Y(), pts[len(pts)-1].X(), pts[len(pts)-1].Y()
}
