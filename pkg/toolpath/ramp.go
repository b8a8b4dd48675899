package toolpath

import (
	"fmt"

	"github.com/chazu/swarf/pkg/tool"
	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/paulmach/go.geo"
)

// flatBand is the layer holding the full-depth perimeter loop. Ramp bands
// start at 1.
const flatBand = 0

// CutoutRamp cuts the part free along a rectangle offset half a tool
// diameter outside the stock. It lays one flat loop at the floor, then
// ramps up from the floor toward the top, spreading one depth of cut over
// each lap.
func CutoutRamp(stock v2.Vec, p tool.Profile, cutoutDepth, retract float64) *PathCollection {
	col := NewCollection(fmt.Sprintf("cutout T%d", p.ID), KindCutout, p.ID)

	h := p.Diameter / 2
	corners := []v2.Vec{
		{X: -h, Y: -h},
		{X: stock.X + h, Y: -h},
		{X: stock.X + h, Y: stock.Y + h},
		{X: -h, Y: stock.Y + h},
	}

	loop := geo.NewPath()
	for _, c := range corners {
		loop.Push(geo.NewPoint(c.X, c.Y))
	}
	loop.Push(geo.NewPoint(corners[0].X, corners[0].Y))
	perimeter := loop.Distance()
	if perimeter == 0 {
		return col
	}

	flat := col.layer(flatBand, p.ID, p.Diameter, p.DepthOfCut)
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		flat.Levels[0].Ramps = append(flat.Levels[0].Ramps, newRamp(a.X, a.Y, b.X, b.Y, -cutoutDepth, -cutoutDepth))
	}

	if p.DepthOfCut <= 0 {
		return col
	}
	gradient := p.DepthOfCut / perimeter

	b := NewBuilder(col, p, p.DepthOfCut, retract)
	current := -cutoutDepth
	b.Extend(corners[0].X, corners[0].Y, current)
	for i := 1; current < 0; i++ {
		prev, next := corners[(i-1)%len(corners)], corners[i%len(corners)]
		current += gradient * next.Sub(prev).Length()
		b.Extend(next.X, next.Y, current)
	}
	return col
}
