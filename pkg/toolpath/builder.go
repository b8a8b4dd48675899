package toolpath

import (
	"fmt"
	"math"

	"github.com/chazu/swarf/pkg/tool"
)

const (
	// minMove is the 3-D length below which a move is dropped.
	minMove = 1e-6
	// verticalXY is the XY displacement at or below which a move is vertical.
	verticalXY = 1e-4
	// bandThreshold is the Z below which a move still has material to cut.
	bandThreshold = -1e-5
	// bandGrid is the resolution band Zs are snapped up to.
	bandGrid = 20.0
)

// Builder is the planning cursor of one PathCollection. It slices every
// move it is given into depth bands. A Builder belongs to exactly one
// collection and one pass; never share it.
type Builder struct {
	col       *PathCollection
	tool      tool.Profile
	stepDepth float64
	retract   float64

	x, y, z float64
	first   bool
}

// NewBuilder starts a cursor on col. stepDepth is the depth of one band
// and retract the safe height vertical moves are clamped to.
func NewBuilder(col *PathCollection, p tool.Profile, stepDepth, retract float64) *Builder {
	if stepDepth <= 0 {
		panic(fmt.Sprintf("toolpath: step depth must be positive, got %g", stepDepth))
	}
	return &Builder{col: col, tool: p, stepDepth: stepDepth, retract: retract, first: true}
}

// Collection returns the collection being built.
func (b *Builder) Collection() *PathCollection { return b.col }

// Position returns the cursor.
func (b *Builder) Position() (x, y, z float64) { return b.x, b.y, b.z }

// First reports whether no point has been placed yet.
func (b *Builder) First() bool { return b.first }

// Extend moves the cursor to (x2, y2, z2), recording one segment per depth
// band the move reaches. The first call only places the cursor.
func (b *Builder) Extend(x2, y2, z2 float64) {
	if b.first {
		b.x, b.y, b.z = x2, y2, z2
		b.first = false
		return
	}

	x1, y1, z1 := b.x, b.y, b.z
	dx, dy, dz := x2-x1, y2-y1, z2-z1
	if math.Sqrt(dx*dx+dy*dy+dz*dz) < minMove {
		return
	}

	zEnd := z2
	if math.Hypot(dx, dy) <= verticalXY {
		z1 = math.Min(z1, b.retract)
		zEnd = math.Min(zEnd, b.retract)
	}

	last := 0
	for band := 1; z1 < bandThreshold || zEnd < bandThreshold; band++ {
		l := b.col.layer(band, b.tool.ID, b.tool.Diameter, b.stepDepth)
		// Layers of one move must come out strictly deeper to shallower.
		if l.Band <= last {
			panic(fmt.Sprintf("toolpath: band %d recorded after band %d", l.Band, last))
		}
		last = l.Band

		l.Levels[0].Ramps = append(l.Levels[0].Ramps, newRamp(x1, y1, x2, y2, z1, zEnd))

		z1 = snapUp(z1 + b.stepDepth)
		zEnd = snapUp(zEnd + b.stepDepth)
	}

	b.x, b.y, b.z = x2, y2, z2
}

// snapUp rounds z up to the band grid.
func snapUp(z float64) float64 {
	return math.Ceil(z*bandGrid) / bandGrid
}
