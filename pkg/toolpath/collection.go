// Package toolpath turns a height field and a tool into depth-tagged motion
// polylines.
//
// Every move a planner produces goes through a Builder, whose Extend slices
// the move into depth bands: a move that reaches N step-depths below the
// stock top is recorded once per band, so a downstream orderer can clear a
// band across the whole job before descending. Planners provided here are
// the boustrophedon raster (PlanRaster), the perimeter cutout ramp
// (CutoutRamp) and the vertical-wall finisher (ReconstructWalls).
//
// Machine Z is measured from the stock top: 0 is the top, −CutoutDepth is
// the floor. Heights from the oracle lie in [0, CutoutDepth].
package toolpath

import (
	"fmt"
	"sort"

	"github.com/paulmach/go.geo"
	"github.com/samber/lo"
)

// Kind labels what produced a collection.
type Kind string

const (
	KindRoughing  Kind = "roughing"
	KindFinishing Kind = "finishing"
	KindWall      Kind = "wall"
	KindCutout    Kind = "cutout"
)

// Ramp is one polyline swept from ZStart to ZEnd ("vcarve" record).
// Each ramp owns its path; paths are never shared between ramps.
type Ramp struct {
	Path   *geo.Path
	ZStart float64
	ZEnd   float64
}

// newRamp builds a two-point ramp.
func newRamp(x1, y1, x2, y2, z1, z2 float64) Ramp {
	p := geo.NewPath()
	p.Push(geo.NewPoint(x1, y1))
	p.Push(geo.NewPoint(x2, y2))
	return Ramp{Path: p, ZStart: z1, ZEnd: z2}
}

// ToolLevel carries the geometry cut by one tool within a depth layer.
// Only level 0 is populated.
type ToolLevel struct {
	Level    int
	ToolID   int
	Diameter float64
	Offset   float64
	Name     string
	NoSort   bool // raw paths keep emission order
	Ramps    []Ramp
}

// DepthLayer is one depth band.
type DepthLayer struct {
	Band      int
	ToolID    int
	Diameter  float64
	StepDepth float64
	Levels    []*ToolLevel
}

// PathCollection is an ordered list of depth layers plus an index by band.
// Layers are created lazily, never merged and never re-sorted. Creation is
// not safe for concurrent use.
type PathCollection struct {
	Name   string
	Kind   Kind
	ToolID int
	Layers []*DepthLayer

	byBand map[int]*DepthLayer
}

// NewCollection returns an empty collection.
func NewCollection(name string, kind Kind, toolID int) *PathCollection {
	return &PathCollection{Name: name, Kind: kind, ToolID: toolID, byBand: make(map[int]*DepthLayer)}
}

// Layer returns the layer for band, or nil.
func (c *PathCollection) Layer(band int) *DepthLayer {
	return c.byBand[band]
}

// layer returns the layer for band, creating it and its level 0 on first
// use.
func (c *PathCollection) layer(band, toolID int, diameter, stepDepth float64) *DepthLayer {
	if l, ok := c.byBand[band]; ok {
		return l
	}
	l := &DepthLayer{
		Band:      band,
		ToolID:    toolID,
		Diameter:  diameter,
		StepDepth: stepDepth,
		Levels: []*ToolLevel{{
			Level:    0,
			ToolID:   toolID,
			Diameter: diameter,
			Offset:   diameter,
			Name:     string(c.Kind),
			NoSort:   true,
		}},
	}
	c.byBand[band] = l
	c.Layers = append(c.Layers, l)
	return l
}

// Bands returns the band indices present, ascending.
func (c *PathCollection) Bands() []int {
	bands := lo.Keys(c.byBand)
	sort.Ints(bands)
	return bands
}

// Empty reports whether the collection holds no ramps.
func (c *PathCollection) Empty() bool {
	return c.SegmentCount() == 0
}

// SegmentCount returns the number of ramps across all layers.
func (c *PathCollection) SegmentCount() int {
	return lo.SumBy(c.Layers, func(l *DepthLayer) int { return l.SegmentCount() })
}

// SegmentCount returns the number of ramps in the layer.
func (l *DepthLayer) SegmentCount() int {
	return lo.SumBy(l.Levels, func(t *ToolLevel) int { return len(t.Ramps) })
}

// Ramps returns the ramps of level 0. A nil layer has none.
func (l *DepthLayer) Ramps() []Ramp {
	if l == nil || len(l.Levels) == 0 {
		return nil
	}
	return l.Levels[0].Ramps
}

// Distance returns the summed XY length of every ramp in the collection.
func (c *PathCollection) Distance() float64 {
	return lo.SumBy(c.Layers, func(l *DepthLayer) float64 {
		return lo.SumBy(l.Ramps(), func(r Ramp) float64 { return r.Path.Distance() })
	})
}

func (c *PathCollection) String() string {
	return fmt.Sprintf("%s (%s, %d layers, %d segments)", c.Name, c.Kind, len(c.Layers), c.SegmentCount())
}
