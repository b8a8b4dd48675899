package toolpath

import (
	"context"
	"fmt"
	"math"

	"github.com/chazu/swarf/pkg/heightfield"
	"github.com/chazu/swarf/pkg/tool"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// WallQuery is a height oracle that can also report its steep facets.
type WallQuery interface {
	HeightQuery
	VerticalSegments(radius float64) []heightfield.WallSegment
}

// WallPass configures wall reconstruction.
type WallPass struct {
	CutoutDepth float64
	StepDepth   float64
	Retract     float64
	Progress    func(float64)
}

const (
	wallClearance = 0.95
	wallStep      = 0.1
	wallJump      = 0.2
	linkTol       = 0.01
)

// ReconstructWalls traces the steep faces of the model with a flat tool,
// following chains of wall segments so each face is cut in one sweep.
// Ballnose and vbit tools get an empty collection.
func ReconstructWalls(h WallQuery, stock v2.Vec, p tool.Profile, pass WallPass) *PathCollection {
	col, _ := ReconstructWallsContext(context.Background(), h, stock, p, pass)
	return col
}

// ReconstructWallsContext is ReconstructWalls with cancellation checked
// between chains.
func ReconstructWallsContext(ctx context.Context, h WallQuery, stock v2.Vec, p tool.Profile, pass WallPass) (*PathCollection, error) {
	col := NewCollection(fmt.Sprintf("walls T%d", p.ID), KindWall, p.ID)
	if !p.NeedsWallFinishing() {
		return col, nil
	}

	radius := p.Radius()
	segs := h.VerticalSegments(radius)
	chains := linkChains(segs)

	w := &wallTracer{
		h:         h,
		tool:      p,
		pass:      pass,
		b:         NewBuilder(col, p, pass.StepDepth, pass.Retract),
		clearance: wallClearance * radius,
		min:       v2.Vec{X: -radius - linkTol, Y: -radius - linkTol},
		max:       v2.Vec{X: stock.X + radius + linkTol, Y: stock.Y + radius + linkTol},
	}
	for i, chain := range chains {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w.trace(segs, chain)
		if pass.Progress != nil {
			pass.Progress(float64(i+1) / float64(len(chains)))
		}
	}
	return col, nil
}

// usableCount returns the number of segments before the sentinel.
func usableCount(segs []heightfield.WallSegment) int {
	for i, s := range segs {
		if s.State == heightfield.Sentinel {
			return i
		}
	}
	return len(segs)
}

// endpointIndex maps quantized endpoints to segment indices.
type endpointIndex map[heightfield.Key][]int

func (ix endpointIndex) add(p v2.Vec, i int) {
	k := heightfield.KeyOf(p)
	ix[k] = append(ix[k], i)
}

// near returns the lowest usable index j != skip whose endpoint, as chosen
// by pick, lies within linkTol of p.
func (ix endpointIndex) near(segs []heightfield.WallSegment, p v2.Vec, skip int, pick func(heightfield.WallSegment) v2.Vec) int {
	k := heightfield.KeyOf(p)
	best := -1
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, j := range ix[heightfield.Key{X: k.X + dx, Y: k.Y + dy}] {
				if j == skip || segs[j].State != heightfield.Usable {
					continue
				}
				if pick(segs[j]).Sub(p).Length() >= linkTol {
					continue
				}
				if best < 0 || j < best {
					best = j
				}
			}
		}
	}
	return best
}

func segFrom(s heightfield.WallSegment) v2.Vec { return s.From }
func segTo(s heightfield.WallSegment) v2.Vec   { return s.To }

// linkChains groups the usable segments into end-to-end chains, consuming
// them. A segment that only meets the chain end-to-end is flipped in place.
func linkChains(segs []heightfield.WallSegment) [][]int {
	n := usableCount(segs)
	starts, ends := endpointIndex{}, endpointIndex{}
	for i := 0; i < n; i++ {
		starts.add(segs[i].From, i)
		ends.add(segs[i].To, i)
	}

	var chains [][]int
	for i := 0; i < n; i++ {
		for segs[i].State == heightfield.Usable {
			cur := chainStart(segs[:n], i)
			var chain []int
			for cur >= 0 {
				segs[cur].State = heightfield.Consumed
				chain = append(chain, cur)

				end := segs[cur].To
				next := starts.near(segs, end, cur, segFrom)
				if next < 0 {
					next = ends.near(segs, end, cur, segTo)
					if next >= 0 {
						segs[next].From, segs[next].To = segs[next].To, segs[next].From
					}
				}
				cur = next
			}
			chains = append(chains, chain)
		}
	}
	return chains
}

// chainStart walks Prev links back from i to the first usable segment of
// its chain. A cycle stops the walk at the segment that closes it.
func chainStart(segs []heightfield.WallSegment, i int) int {
	visited := map[int]bool{i: true}
	for {
		p := segs[i].Prev
		if p < 0 || p >= len(segs) || visited[p] || segs[p].State != heightfield.Usable {
			return i
		}
		visited[p] = true
		i = p
	}
}

// wallTracer emits one chain at a time onto a shared Builder.
type wallTracer struct {
	h         HeightQuery
	tool      tool.Profile
	pass      WallPass
	b         *Builder
	clearance float64
	min, max  v2.Vec

	last  v2.Vec
	lastZ float64
}

func (w *wallTracer) inStock(p v2.Vec) bool {
	return p.X >= w.min.X && p.X <= w.max.X && p.Y >= w.min.Y && p.Y <= w.max.Y
}

func (w *wallTracer) trace(segs []heightfield.WallSegment, chain []int) {
	if len(chain) == 0 {
		return
	}
	start := segs[chain[0]].From
	retract := w.pass.Retract
	if !w.b.First() {
		w.b.Extend(w.last.X, w.last.Y, retract)
	}
	w.b.Extend(start.X, start.Y, retract)
	w.last, w.lastZ = start, retract

	for ci, idx := range chain {
		s := segs[idx]
		steps := int(math.Max(1, math.Ceil(s.Length()/wallStep)))
		k0 := 1
		if ci == 0 {
			k0 = 0
		}
		for k := k0; k <= steps; k++ {
			pt := s.To
			if k < steps {
				pt = s.From.Add(s.To.Sub(s.From).MulScalar(float64(k) / float64(steps)))
			}
			w.visit(pt)
		}
	}
}

func (w *wallTracer) visit(pt v2.Vec) {
	if !w.inStock(pt) {
		return
	}
	z := Sample(w.h, pt.X, pt.Y, w.clearance, w.tool) - w.pass.CutoutDepth
	if z >= 0 {
		return
	}
	if math.Abs(z-w.lastZ) > wallJump {
		if z > w.lastZ {
			w.b.Extend(w.last.X, w.last.Y, z)
		} else {
			w.b.Extend(pt.X, pt.Y, w.lastZ)
		}
	}
	w.b.Extend(pt.X, pt.Y, z)
	w.last, w.lastZ = pt, z
}
