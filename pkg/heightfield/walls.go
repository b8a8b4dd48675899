package heightfield

import (
	"fmt"
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

// SegmentState is the tri-state validity flag of a WallSegment.
type SegmentState int

const (
	Usable SegmentState = iota
	Consumed
	Sentinel // marks the end of a segment slice
)

func (s SegmentState) String() string {
	switch s {
	case Usable:
		return "usable"
	case Consumed:
		return "consumed"
	case Sentinel:
		return "sentinel"
	default:
		return fmt.Sprintf("SegmentState(%d)", int(s))
	}
}

// WallSegment approximates the cross-section of one steep facet at a tool's
// contact radius. Prev is a guess at the segment that ends where this one
// starts, or -1.
type WallSegment struct {
	From, To v2.Vec
	Prev     int
	State    SegmentState
}

// Length returns the XY length of the segment.
func (s WallSegment) Length() float64 {
	return s.To.Sub(s.From).Length()
}

// steepLimit is |nz| below which a facet counts as wall.
const steepLimit = 0.5

// Key is an endpoint quantized to the 0.01 tolerance grid.
type Key struct{ X, Y int64 }

// KeyOf quantizes p to the 0.01 grid.
func KeyOf(p v2.Vec) Key {
	return Key{X: int64(math.Round(p.X * 100)), Y: int64(math.Round(p.Y * 100))}
}

// VerticalSegments returns one segment per steep facet, offset outward by
// radius along the facet's horizontal normal. Endpoints run along the
// tangent (-ny, nx) so segments of one wall share orientation. Duplicate
// segments are dropped. The returned slice always ends with a Sentinel.
func (f *Field) VerticalSegments(radius float64) []WallSegment {
	var segs []WallSegment
	seen := make(map[[2]Key]bool)
	ends := make(map[Key]int)

	for _, fc := range f.facets {
		n := fc.normal
		if math.Abs(n.Z) >= steepLimit {
			continue
		}
		nxy := v2.Vec{X: n.X, Y: n.Y}
		l := nxy.Length()
		if l == 0 {
			continue
		}
		nxy = nxy.MulScalar(1 / l)
		tangent := v2.Vec{X: -nxy.Y, Y: nxy.X}

		lo, hi := math.Inf(1), math.Inf(-1)
		var from, to v2.Vec
		for _, v := range fc.v {
			p := v2.Vec{X: v.X, Y: v.Y}
			t := p.Dot(tangent)
			if t < lo {
				lo, from = t, p
			}
			if t > hi {
				hi, to = t, p
			}
		}
		if hi-lo < 1e-6 {
			continue
		}

		off := nxy.MulScalar(radius)
		from, to = from.Add(off), to.Add(off)
		k := [2]Key{KeyOf(from), KeyOf(to)}
		if seen[k] {
			continue
		}
		seen[k] = true
		ends[k[1]] = len(segs)
		segs = append(segs, WallSegment{From: from, To: to, Prev: -1, State: Usable})
	}

	for i := range segs {
		if j, ok := ends[KeyOf(segs[i].From)]; ok && j != i {
			segs[i].Prev = j
		}
	}

	return append(segs, WallSegment{Prev: -1, State: Sentinel})
}
