package toolpath

import (
	"math"
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

func TestCutoutRampFlatStock(t *testing.T) {
	p := endmill(6)
	col := CutoutRamp(stock100x60, p, 5, 5)

	loop := col.Layer(flatBand)
	if loop == nil || len(loop.Ramps()) != 4 {
		t.Fatalf("expected a 4-edge floor loop, got %v", loop)
	}
	for _, r := range loop.Ramps() {
		if r.ZStart != -5 || r.ZEnd != -5 {
			t.Errorf("floor loop edge at Z (%g,%g), want -5", r.ZStart, r.ZEnd)
		}
	}
	if got := col.Layer(flatBand).Ramps()[0].Path.Distance(); got != 106 {
		t.Errorf("first loop edge length %g, want 106", got)
	}

	perimeter := 2 * (106.0 + 66.0)
	gradient := p.DepthOfCut / perimeter
	wantSteps := int(math.Ceil(5 / (gradient * perimeter / 4)))
	if got := len(col.Layer(1).Ramps()); got != wantSteps {
		t.Errorf("ramp steps = %d, want %d", got, wantSteps)
	}
}

func TestCutoutRampClimbs(t *testing.T) {
	col := CutoutRamp(v2.Vec{X: 20, Y: 10}, endmill(3), 4, 5)
	rs := col.Layer(1).Ramps()
	if len(rs) == 0 {
		t.Fatal("no ramp segments")
	}
	for i, r := range rs {
		if r.ZEnd <= r.ZStart {
			t.Fatalf("ramp %d goes from %g to %g, want strictly rising", i, r.ZStart, r.ZEnd)
		}
		if i > 0 && !approx(r.ZStart, rs[i-1].ZEnd) {
			t.Fatalf("ramp %d starts at %g, previous ended at %g", i, r.ZStart, rs[i-1].ZEnd)
		}
	}
	if rs[0].ZStart != -4 {
		t.Errorf("ramp starts at %g, want the floor -4", rs[0].ZStart)
	}
	if last := rs[len(rs)-1]; last.ZEnd < 0 {
		t.Errorf("ramp ends at %g, want it to reach the top", last.ZEnd)
	}
}

func TestCutoutRampDegenerate(t *testing.T) {
	col := CutoutRamp(v2.Vec{}, endmill(0), 5, 5)
	if !col.Empty() || len(col.Layers) != 0 {
		t.Errorf("degenerate perimeter produced %s", col)
	}
}

func TestCutoutRampZeroDepthOfCut(t *testing.T) {
	p := endmill(6)
	p.DepthOfCut = 0
	col := CutoutRamp(stock100x60, p, 5, 5)
	if len(col.Layers) != 1 || col.SegmentCount() != 4 {
		t.Errorf("zero depth of cut: got %s, want the floor loop only", col)
	}
}
