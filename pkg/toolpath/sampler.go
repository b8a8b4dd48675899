package toolpath

import (
	"math"

	"github.com/chazu/swarf/pkg/tool"
)

// HeightQuery answers the model height at an XY point. Points with no
// geometry report 0.
type HeightQuery interface {
	Height(x, y float64) float64
}

type ringDir struct{ x, y float64 }

var (
	ring     [16]ringDir
	axisIdx  = [...]int{0, 4, 8, 12}
	diagIdx  = [...]int{2, 6, 10, 14}
	oddIdx   = [...]int{1, 3, 5, 7, 9, 11, 13, 15}
	maxRings = 3
)

func init() {
	for i := range ring {
		a := float64(i) * math.Pi / 8
		ring[i] = ringDir{math.Cos(a), math.Sin(a)}
	}
}

const (
	// sampleGrid is the resolution Sample rounds up to.
	sampleGrid = 100.0
	// earlyExitRadius and earlyExitDiff stop probing once small rings agree.
	earlyExitRadius = 0.6
	earlyExitDiff   = 0.1
	minRingRadius   = 0.4
	ringShrink      = 1.5
)

// Sample returns the lowest height the tip of p can sit at over (x, y)
// without gouging the model, probing concentric rings of at most radius R.
// Each probe is lowered by the profile's offset at that ring radius, so a
// ballnose or vbit may dip past features a flat tool would ride on.
// The result is rounded up to 0.01.
func Sample(h HeightQuery, x, y, R float64, p tool.Profile) float64 {
	d := math.Max(0, h.Height(x, y))

	r := R
	for n := 0; n < maxRings && r > 0; n++ {
		loss := p.RadialOffset(r)
		probe := func(i int) float64 {
			return h.Height(x+r*ring[i].x, y+r*ring[i].y) - loss
		}

		for _, i := range axisIdx {
			d = math.Max(d, probe(i))
		}
		coarse := d
		for _, i := range diagIdx {
			d = math.Max(d, probe(i))
		}
		if r < earlyExitRadius && d-coarse < earlyExitDiff {
			break
		}
		for _, i := range oddIdx {
			d = math.Max(d, probe(i))
		}

		r /= ringShrink
		if r < minRingRadius {
			break
		}
	}

	return math.Ceil(d*sampleGrid) / sampleGrid
}
