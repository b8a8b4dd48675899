package toolpath

import (
	"context"
	"fmt"
	"math"

	"github.com/chazu/swarf/pkg/tool"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Direction picks the fast axis of a raster.
type Direction int

const (
	Rows    Direction = iota // fast along X, stepping in Y
	Columns                  // fast along Y, stepping in X
)

func (d Direction) String() string {
	switch d {
	case Rows:
		return "rows"
	case Columns:
		return "columns"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

const (
	// jumpLimit is the in-row height change that triggers smoothing.
	jumpLimit = 0.5
	// turnLimit is the height change that triggers a pre-raise between rows.
	turnLimit   = 0.1
	cornerReach = 0.9
	// gridEps absorbs float drift when stepping to the end of an axis.
	gridEps = 1e-9
)

// RasterPass configures one raster sweep.
type RasterPass struct {
	Roughing     bool
	StockToLeave float64
	CutoutDepth  float64
	WithCutout   bool
	Direction    Direction
	// Stepover overrides the profile default when positive. Only finishing
	// passes honour it.
	Stepover            float64
	StepDepth           float64
	Retract             float64
	RoughingRadiusScale float64
	Progress            func(float64)
}

// PlanRaster sweeps the stock in a boustrophedon pattern, following the
// height oracle through Sample.
func PlanRaster(h HeightQuery, stock v2.Vec, p tool.Profile, pass RasterPass) *PathCollection {
	col, _ := PlanRasterContext(context.Background(), h, stock, p, pass)
	return col
}

// PlanRasterContext is PlanRaster with cancellation checked between rows.
// A cancelled sweep returns ctx.Err() and no collection.
func PlanRasterContext(ctx context.Context, h HeightQuery, stock v2.Vec, p tool.Profile, pass RasterPass) (*PathCollection, error) {
	kind := KindFinishing
	if pass.Roughing {
		kind = KindRoughing
	}
	col := NewCollection(fmt.Sprintf("%s %s T%d", kind, pass.Direction, p.ID), kind, p.ID)

	r := newRaster(h, stock, p, pass, col)
	if r.stepover <= 0 {
		return col, nil
	}

	slow := axisPositions(-r.margin, r.size(1)+r.margin, r.stepover)
	fast := axisPositions(-r.margin, r.size(0)+r.margin, r.stepover)
	for i, v := range slow {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.row(v, fast, i%2 == 1)
		if pass.Progress != nil {
			pass.Progress(float64(i+1) / float64(len(slow)))
		}
	}
	return col, nil
}

// raster holds the per-sweep state. One per PlanRaster call.
type raster struct {
	h        HeightQuery
	stock    v2.Vec
	tool     tool.Profile
	pass     RasterPass
	b        *Builder
	stepover float64
	margin   float64
	radius   float64
	effR     float64
	offset   float64

	lastU, lastV, lastZ float64
	inRow               bool
}

func newRaster(h HeightQuery, stock v2.Vec, p tool.Profile, pass RasterPass, col *PathCollection) *raster {
	r := &raster{h: h, stock: stock, tool: p, pass: pass, radius: p.Radius()}
	r.b = NewBuilder(col, p, pass.StepDepth, pass.Retract)

	switch {
	case pass.Roughing:
		r.stepover = p.Stepover
	case pass.Stepover > 0:
		r.stepover = pass.Stepover
	default:
		r.stepover = p.FinishingStepover()
	}

	switch {
	case pass.WithCutout:
		r.margin = 0.9 * r.radius
	case pass.Roughing:
		r.margin = 0
	default:
		r.margin = 0.45 * r.radius
	}

	r.effR = r.radius
	if pass.Roughing {
		scale := pass.RoughingRadiusScale
		if scale <= 0 {
			scale = 1
		}
		r.effR = r.radius*scale + pass.StockToLeave
		r.offset = pass.StockToLeave
	}
	return r
}

// size returns the stock extent along the fast (0) or slow (1) axis.
func (r *raster) size(axis int) float64 {
	if (r.pass.Direction == Rows) == (axis == 0) {
		return r.stock.X
	}
	return r.stock.Y
}

// xy maps scan coordinates to machine XY.
func (r *raster) xy(u, v float64) (x, y float64) {
	if r.pass.Direction == Rows {
		return u, v
	}
	return v, u
}

func (r *raster) z(u, v float64) float64 {
	x, y := r.xy(u, v)
	return -r.pass.CutoutDepth + Sample(r.h, x, y, r.effR, r.tool) + r.offset
}

// skipCorner reports whether (x, y) lies diagonally off the stock and out
// of reach of the nearest corner.
func (r *raster) skipCorner(x, y float64) bool {
	var cx, cy float64
	switch {
	case x < 0:
		cx = 0
	case x > r.stock.X:
		cx = r.stock.X
	default:
		return false
	}
	switch {
	case y < 0:
		cy = 0
	case y > r.stock.Y:
		cy = r.stock.Y
	default:
		return false
	}
	return math.Hypot(x-cx, y-cy) > cornerReach*r.radius
}

func (r *raster) row(v float64, fast []float64, reverse bool) {
	dir := 1.0
	if reverse {
		dir = -1
	}
	r.inRow = false
	for k := range fast {
		u := fast[k]
		if reverse {
			u = fast[len(fast)-1-k]
		}
		if r.skipCorner(r.xy(u, v)) {
			continue
		}
		z := r.z(u, v)

		if !r.inRow {
			r.emit(u, v, z, turnLimit)
			r.inRow = true
			continue
		}
		if r.pass.Roughing && math.Abs(z-r.lastZ) > jumpLimit {
			mid := r.lastU + dir*r.stepover/3
			if (mid-u)*dir < 0 {
				r.emit(mid, v, r.z(mid, v), jumpLimit)
			}
		}
		r.emit(u, v, z, jumpLimit)
	}
}

// emit moves to (u, v, z), inserting a connecting move first when the
// height changes by more than limit.
func (r *raster) emit(u, v, z, limit float64) {
	if !r.b.First() && math.Abs(z-r.lastZ) > limit {
		if z > r.lastZ {
			x, y := r.xy(r.lastU, r.lastV)
			r.b.Extend(x, y, z)
		} else {
			x, y := r.xy(u, v)
			r.b.Extend(x, y, r.lastZ)
		}
	}
	x, y := r.xy(u, v)
	r.b.Extend(x, y, z)
	r.lastU, r.lastV, r.lastZ = u, v, z
}

// axisPositions returns from, from+step, ... up to and including to.
func axisPositions(from, to, step float64) []float64 {
	var out []float64
	for i := 0; ; i++ {
		p := from + float64(i)*step
		if p >= to-gridEps {
			break
		}
		out = append(out, p)
	}
	return append(out, to)
}
