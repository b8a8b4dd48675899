package export

import (
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
	"github.com/paulmach/go.geo"
	"github.com/paulmach/go.geo/reducers"
	"github.com/samber/lo"
)

const (
	// DefaultSimplify is the Douglas-Peucker tolerance of the preview, in
	// model units.
	DefaultSimplify = 0.05

	svgScale   = 10.0 // pixels per model unit
	svgPadding = 10
)

var kindStroke = map[string]string{
	"roughing":  "#E67E22",
	"finishing": "#4A90D9",
	"wall":      "#2ECC71",
	"cutout":    "#E74C3C",
}

// errWriter remembers the first write error, since svgo discards them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

// WriteSVG draws a top-down preview of doc. Each collection is drawn from
// its shallowest-indexed band only, with touching ramps joined into
// polylines and simplified within tolerance.
func WriteSVG(w io.Writer, doc *Document, tolerance float64) error {
	minX, minY, maxX, maxY := 0.0, 0.0, doc.StockX, doc.StockY
	for _, c := range doc.Collections {
		for _, l := range c.Layers {
			for _, t := range l.Levels {
				for _, r := range t.Ramps {
					for _, p := range r.Points {
						minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
						minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
					}
				}
			}
		}
	}

	px := func(x float64) int { return int(math.Round((x-minX)*svgScale)) + svgPadding }
	py := func(y float64) int { return int(math.Round((maxY-y)*svgScale)) + svgPadding }

	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(px(maxX)+svgPadding, py(minY)+svgPadding)
	if doc.Model != "" {
		canvas.Title(doc.Model)
	}
	canvas.Rect(px(0), py(doc.StockY), int(math.Round(doc.StockX*svgScale)), int(math.Round(doc.StockY*svgScale)),
		"fill:#F4F1EA;stroke:#999999;stroke-width:1")

	for _, c := range doc.Collections {
		if len(c.Layers) == 0 {
			continue
		}
		stroke := kindStroke[c.Kind]
		if stroke == "" {
			stroke = "#333333"
		}
		top := lo.MinBy(c.Layers, func(a, b Layer) bool { return a.Band < b.Band })

		canvas.Gstyle("fill:none;stroke-width:1;stroke:" + stroke)
		for _, t := range top.Levels {
			for _, path := range polylines(t.Ramps) {
				if tolerance > 0 {
					path = reducers.DouglasPeucker(path, tolerance)
				}
				pts := path.Points()
				xs := make([]int, len(pts))
				ys := make([]int, len(pts))
				for i, p := range pts {
					xs[i], ys[i] = px(p.X()), py(p.Y())
				}
				canvas.Polyline(xs, ys)
			}
		}
		canvas.Gend()
	}
	canvas.End()
	return ew.err
}

// polylines joins consecutive ramps that share an endpoint.
func polylines(ramps []Ramp) []*geo.Path {
	var out []*geo.Path
	var cur *geo.Path
	for _, r := range ramps {
		if len(r.Points) == 0 {
			continue
		}
		first := geo.NewPoint(r.Points[0][0], r.Points[0][1])
		if cur == nil || !cur.Last().Equals(first) {
			cur = geo.NewPath()
			cur.Push(first)
			out = append(out, cur)
		}
		for _, p := range r.Points[1:] {
			cur.Push(geo.NewPoint(p[0], p[1]))
		}
	}
	return out
}
