package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/drawing"
)

// WriteDXF writes doc as 3-D lines, one DXF layer per depth layer.
func WriteDXF(path string, doc *Document) error {
	d := dxf.NewDrawing()
	for _, c := range doc.Collections {
		for _, l := range c.Layers {
			name := layerName(c, l)
			if _, err := d.AddLayer(name, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
				return fmt.Errorf("export: dxf layer %s: %w", name, err)
			}
			for _, t := range l.Levels {
				for _, r := range t.Ramps {
					if err := dxfRamp(d, r); err != nil {
						return fmt.Errorf("export: dxf layer %s: %w", name, err)
					}
				}
			}
		}
	}
	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("export: dxf: %w", err)
	}
	return nil
}

// dxfRamp emits one line per polyline edge, interpolating Z by length.
func dxfRamp(d *drawing.Drawing, r Ramp) error {
	zs := rampZ(r)
	for i := 1; i < len(r.Points); i++ {
		a, b := r.Points[i-1], r.Points[i]
		if _, err := d.Line(a[0], a[1], zs[i-1], b[0], b[1], zs[i]); err != nil {
			return err
		}
	}
	return nil
}

// layerName builds a unique DXF layer name such as "roughing_rows_T2_b03".
func layerName(c Collection, l Layer) string {
	return fmt.Sprintf("%s_b%02d", strings.Join(strings.Fields(c.Name), "_"), l.Band)
}

// rampZ returns the Z at each vertex, spread along the XY length.
func rampZ(r Ramp) []float64 {
	zs := make([]float64, len(r.Points))
	total := 0.0
	for i := 1; i < len(r.Points); i++ {
		total += math.Hypot(r.Points[i][0]-r.Points[i-1][0], r.Points[i][1]-r.Points[i-1][1])
	}
	run := 0.0
	for i := range r.Points {
		if i > 0 {
			run += math.Hypot(r.Points[i][0]-r.Points[i-1][0], r.Points[i][1]-r.Points[i-1][1])
		}
		t := 0.0
		switch {
		case total > 0:
			t = run / total
		case i == len(r.Points)-1:
			t = 1
		}
		zs[i] = r.ZStart + (r.ZEnd-r.ZStart)*t
	}
	return zs
}
