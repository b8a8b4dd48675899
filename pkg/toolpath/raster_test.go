package toolpath

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

var stock100x60 = v2.Vec{X: 100, Y: 60}

func TestRasterFlatStockIsUniform(t *testing.T) {
	p := endmill(6)
	col := PlanRaster(flat(0), stock100x60, p, RasterPass{
		CutoutDepth: 5,
		WithCutout:  true,
		StepDepth:   p.DepthOfCut,
		Retract:     5,
	})

	l := col.Layer(1)
	if l == nil || len(l.Ramps()) == 0 {
		t.Fatal("expected ramps in band 1")
	}
	for i, r := range l.Ramps() {
		if r.ZStart != -5 || r.ZEnd != -5 {
			t.Fatalf("ramp %d at Z (%g,%g), want -5 everywhere", i, r.ZStart, r.ZEnd)
		}
	}
	if col.Kind != KindFinishing {
		t.Errorf("Kind = %q, want finishing", col.Kind)
	}
}

func TestRasterBounds(t *testing.T) {
	bump := heightFunc(func(x, y float64) float64 {
		return 3 * math.Exp(-((x-50)*(x-50)+(y-30)*(y-30))/200)
	})
	p := endmill(6)
	tests := []struct {
		name   string
		pass   RasterPass
		margin float64
	}{
		{"roughing", RasterPass{Roughing: true, StockToLeave: 0.3}, 0},
		{"roughing with cutout", RasterPass{Roughing: true, WithCutout: true}, 2.7},
		{"finishing", RasterPass{}, 1.35},
		{"finishing columns", RasterPass{Direction: Columns}, 1.35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pass := tt.pass
			pass.CutoutDepth, pass.StepDepth, pass.Retract = 5, 1.5, 5
			col := PlanRaster(bump, stock100x60, p, pass)
			if col.Empty() {
				t.Fatal("no ramps")
			}

			const eps = 1e-9
			xs, ys := 0.0, 0.0
			for _, r := range allRamps(col) {
				for _, pt := range r.Path.Points() {
					x, y := pt.X(), pt.Y()
					if x < -tt.margin-eps || x > 100+tt.margin+eps || y < -tt.margin-eps || y > 60+tt.margin+eps {
						t.Fatalf("point (%g,%g) outside margin %g", x, y, tt.margin)
					}
					xs, ys = math.Max(xs, x), math.Max(ys, y)
				}
			}
			if !approx(xs, 100+tt.margin) || !approx(ys, 60+tt.margin) {
				t.Errorf("scan reached (%g,%g), want the far edge (%g,%g)", xs, ys, 100+tt.margin, 60+tt.margin)
			}
		})
	}
}

func TestRasterSmoothsJumps(t *testing.T) {
	plateau := heightFunc(func(x, y float64) float64 {
		if x >= 30 && x <= 60 {
			return 4
		}
		return 0
	})
	p := endmill(6)
	for _, roughing := range []bool{true, false} {
		col := PlanRaster(plateau, stock100x60, p, RasterPass{
			Roughing:    roughing,
			CutoutDepth: 5,
			StepDepth:   1.5,
			Retract:     5,
		})
		l := col.Layer(1)
		if l == nil {
			t.Fatalf("roughing=%v: no band 1", roughing)
		}
		var jumps int
		for _, r := range l.Ramps() {
			if r.Path.Distance() <= verticalXY {
				if math.Abs(r.ZEnd-r.ZStart) > jumpLimit {
					jumps++
				}
				continue
			}
			if d := math.Abs(r.ZEnd - r.ZStart); d > jumpLimit+1e-9 {
				x1, y1, x2, y2 := endpoints(r)
				t.Fatalf("roughing=%v: move (%g,%g)->(%g,%g) changes Z by %g", roughing, x1, y1, x2, y2, d)
			}
		}
		if jumps == 0 {
			t.Errorf("roughing=%v: expected vertical smoothing moves at the plateau edges", roughing)
		}
	}
}

// rowXs returns the distinct X positions visited by in-row moves at y.
func rowXs(c *PathCollection, y float64) []float64 {
	seen := map[float64]bool{}
	var xs []float64
	for _, r := range c.Layer(1).Ramps() {
		x1, y1, x2, y2 := endpoints(r)
		if y1 != y || y2 != y {
			continue
		}
		for _, x := range []float64{x1, x2} {
			if !seen[x] {
				seen[x] = true
				xs = append(xs, x)
			}
		}
	}
	sort.Float64s(xs)
	return xs
}

func TestRasterRoughingRefinesSteps(t *testing.T) {
	step := heightFunc(func(x, y float64) float64 {
		if x >= 30 {
			return 4
		}
		return 0
	})
	p := endmill(6)
	stock := v2.Vec{X: 60, Y: 3}

	tests := []struct {
		name    string
		pass    RasterPass
		origin  float64
		offGrid []float64
	}{
		// The tool first touches the step at x=27; the jump from x=24 adds
		// a sample a third of a stepover further on.
		{"roughing", RasterPass{Roughing: true}, 0, []float64{25}},
		{"finishing", RasterPass{Stepover: 3}, -0.45 * p.Radius(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pass := tt.pass
			pass.CutoutDepth, pass.StepDepth, pass.Retract = 5, 10, 5
			col := PlanRaster(step, stock, p, pass)

			xs := rowXs(col, tt.origin)
			if len(xs) == 0 {
				t.Fatal("no moves in the first row")
			}
			end := stock.X - tt.origin
			var off []float64
			for _, x := range xs {
				k := (x - tt.origin) / p.Stepover
				if math.Abs(k-math.Round(k)) > 1e-6 && !approx(x, end) {
					off = append(off, x)
				}
			}
			if len(off) != len(tt.offGrid) {
				t.Fatalf("off-grid samples %v, want %v", off, tt.offGrid)
			}
			for i := range off {
				if !approx(off[i], tt.offGrid[i]) {
					t.Errorf("off-grid sample %d at x=%g, want %g", i, off[i], tt.offGrid[i])
				}
			}
		})
	}
}

func TestRasterDirection(t *testing.T) {
	p := endmill(6)
	first := func(d Direction) Ramp {
		col := PlanRaster(flat(0), stock100x60, p, RasterPass{Roughing: true, Direction: d, CutoutDepth: 2, StepDepth: 2, Retract: 5})
		return col.Layer(1).Ramps()[0]
	}

	x1, y1, x2, y2 := endpoints(first(Rows))
	if y1 != y2 || x2 <= x1 {
		t.Errorf("rows: first move (%g,%g)->(%g,%g), want +X", x1, y1, x2, y2)
	}
	x1, y1, x2, y2 = endpoints(first(Columns))
	if x1 != x2 || y2 <= y1 {
		t.Errorf("columns: first move (%g,%g)->(%g,%g), want +Y", x1, y1, x2, y2)
	}
}

func TestRasterBoustrophedon(t *testing.T) {
	p := endmill(6)
	col := PlanRaster(flat(0), v2.Vec{X: 12, Y: 6}, p, RasterPass{Roughing: true, CutoutDepth: 1, StepDepth: 1, Retract: 5})
	// Rows at y = 0, 3, 6; samples at x = 0, 3, ..., 12.
	var dirs []float64
	for _, r := range col.Layer(1).Ramps() {
		x1, y1, x2, y2 := endpoints(r)
		if y1 == y2 {
			dirs = append(dirs, math.Copysign(1, x2-x1))
		}
	}
	want := []float64{1, 1, 1, 1, -1, -1, -1, -1, 1, 1, 1, 1}
	if len(dirs) != len(want) {
		t.Fatalf("got %d in-row moves, want %d", len(dirs), len(want))
	}
	for i := range want {
		if dirs[i] != want[i] {
			t.Fatalf("in-row move %d direction %g, want %g", i, dirs[i], want[i])
		}
	}
}

func TestRasterCornerSkip(t *testing.T) {
	p := endmill(6)
	col := PlanRaster(flat(0), stock100x60, p, RasterPass{WithCutout: true, CutoutDepth: 5, StepDepth: 5, Retract: 5})
	for _, r := range allRamps(col) {
		for _, pt := range r.Path.Points() {
			x, y := pt.X(), pt.Y()
			if x < 0 && y < 0 && math.Hypot(x, y) > 2.7+1e-9 {
				t.Fatalf("point (%g,%g) is beyond reach of the corner", x, y)
			}
		}
	}
}

func TestRasterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	col, err := PlanRasterContext(ctx, flat(0), stock100x60, endmill(6), RasterPass{CutoutDepth: 5, StepDepth: 1.5, Retract: 5})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if col != nil {
		t.Error("cancelled sweep should not return a collection")
	}
}

func TestRasterProgress(t *testing.T) {
	var calls int
	var last float64
	PlanRaster(flat(0), stock100x60, endmill(6), RasterPass{
		Roughing: true, CutoutDepth: 5, StepDepth: 1.5, Retract: 5,
		Progress: func(f float64) {
			if f < last {
				t.Errorf("progress went backwards: %g after %g", f, last)
			}
			calls++
			last = f
		},
	})
	if calls == 0 || last != 1 {
		t.Errorf("progress called %d times ending at %g, want >0 calls ending at 1", calls, last)
	}
}

func TestRasterFreshState(t *testing.T) {
	p := endmill(6)
	pass := RasterPass{Roughing: true, CutoutDepth: 3, StepDepth: 1.5, Retract: 5}
	a := PlanRaster(flat(0), stock100x60, p, pass)
	b := PlanRaster(flat(0), stock100x60, p, pass)
	if a == b || a.SegmentCount() != b.SegmentCount() {
		t.Errorf("repeated sweeps differ: %d vs %d segments", a.SegmentCount(), b.SegmentCount())
	}
}

func TestAxisPositions(t *testing.T) {
	tests := []struct {
		from, to, step float64
		want           []float64
	}{
		{0, 4, 2, []float64{0, 2, 4}},
		{-1, 4, 2, []float64{-1, 1, 3, 4}},
		{0, 0, 1, []float64{0}},
	}
	for _, tt := range tests {
		got := axisPositions(tt.from, tt.to, tt.step)
		if len(got) != len(tt.want) {
			t.Errorf("axisPositions(%g,%g,%g) = %v, want %v", tt.from, tt.to, tt.step, got, tt.want)
			continue
		}
		for i := range got {
			if !approx(got[i], tt.want[i]) {
				t.Errorf("axisPositions(%g,%g,%g) = %v, want %v", tt.from, tt.to, tt.step, got, tt.want)
				break
			}
		}
	}
}

func TestDirectionString(t *testing.T) {
	if Rows.String() != "rows" || Columns.String() != "columns" {
		t.Errorf("got %q and %q", Rows, Columns)
	}
}
