// Package export serializes planned toolpaths. Every format writes the
// same tree: collections, depth layers, tool levels and ramps, where a ramp
// is a polyline swept from ZStart to ZEnd.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chazu/swarf/pkg/cam"
	"github.com/chazu/swarf/pkg/job"
	"github.com/chazu/swarf/pkg/toolpath"
	"github.com/samber/lo"
)

// Document is the serializable form of a run.
type Document struct {
	RunID       string       `json:"run_id"`
	Model       string       `json:"model,omitempty"`
	Depth       float64      `json:"depth"`
	StockX      float64      `json:"stock_x"`
	StockY      float64      `json:"stock_y"`
	Collections []Collection `json:"collections"`
}

// Collection is one planned pass and its depth layers.
type Collection struct {
	Name   string  `json:"name"`
	Kind   string  `json:"kind"`
	ToolID int     `json:"tool_id"`
	Layers []Layer `json:"layers"`
}

// Layer holds the moves of one depth band.
type Layer struct {
	Band      int     `json:"band"`
	ToolID    int     `json:"tool_id"`
	Diameter  float64 `json:"diameter"`
	StepDepth float64 `json:"step_depth"`
	Levels    []Level `json:"levels"`
}

// Level is a tool level within a layer; only level 0 is written.
type Level struct {
	Level    int     `json:"level"`
	ToolID   int     `json:"tool_id"`
	Diameter float64 `json:"diameter"`
	Offset   float64 `json:"offset"`
	Name     string  `json:"name"`
	NoSort   bool    `json:"no_sort"`
	Ramps    []Ramp  `json:"ramps"`
}

// Ramp is one polyline cut from ZStart to ZEnd.
type Ramp struct {
	Points [][2]float64 `json:"points"`
	ZStart float64      `json:"z_start"`
	ZEnd   float64      `json:"z_end"`
}

// FromResult converts a planning result.
func FromResult(r *cam.Result) *Document {
	return &Document{
		RunID:       r.RunID,
		Model:       r.Model,
		Depth:       r.Depth,
		StockX:      r.Stock.X,
		StockY:      r.Stock.Y,
		Collections: lo.Map(r.Collections, func(c *toolpath.PathCollection, _ int) Collection { return fromCollection(c) }),
	}
}

func fromCollection(c *toolpath.PathCollection) Collection {
	return Collection{
		Name:   c.Name,
		Kind:   string(c.Kind),
		ToolID: c.ToolID,
		Layers: lo.Map(c.Layers, func(l *toolpath.DepthLayer, _ int) Layer {
			return Layer{
				Band:      l.Band,
				ToolID:    l.ToolID,
				Diameter:  l.Diameter,
				StepDepth: l.StepDepth,
				Levels:    lo.Map(l.Levels, func(t *toolpath.ToolLevel, _ int) Level { return fromLevel(t) }),
			}
		}),
	}
}

func fromLevel(t *toolpath.ToolLevel) Level {
	return Level{
		Level:    t.Level,
		ToolID:   t.ToolID,
		Diameter: t.Diameter,
		Offset:   t.Offset,
		Name:     t.Name,
		NoSort:   t.NoSort,
		Ramps: lo.Map(t.Ramps, func(r toolpath.Ramp, _ int) Ramp {
			pts := r.Path.Points()
			out := Ramp{Points: make([][2]float64, len(pts)), ZStart: r.ZStart, ZEnd: r.ZEnd}
			for i, p := range pts {
				out.Points[i] = [2]float64{p.X(), p.Y()}
			}
			return out
		}),
	}
}

// Segments returns the number of ramps in the document.
func (d *Document) Segments() int {
	return lo.SumBy(d.Collections, func(c Collection) int {
		return lo.SumBy(c.Layers, func(l Layer) int {
			return lo.SumBy(l.Levels, func(t Level) int { return len(t.Ramps) })
		})
	})
}

// Write stores doc at path in format f.
func Write(path string, f job.Format, doc *Document) error {
	if f == job.FormatDXF {
		return WriteDXF(path, doc)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := encode(out, f, doc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func encode(w io.Writer, f job.Format, doc *Document) error {
	switch f {
	case job.FormatJSON:
		return WriteJSON(w, doc)
	case job.FormatMsgpack:
		return WriteMsgpack(w, doc)
	case job.FormatSVG:
		return WriteSVG(w, doc, DefaultSimplify)
	default:
		return fmt.Errorf("export: format %s cannot be streamed", f)
	}
}
