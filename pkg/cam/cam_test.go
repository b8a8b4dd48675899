package cam

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/swarf/pkg/job"
	"github.com/chazu/swarf/pkg/kernel"
	"github.com/chazu/swarf/pkg/kernel/sdfx"
	"github.com/chazu/swarf/pkg/stl"
	"github.com/chazu/swarf/pkg/tool"
	"github.com/chazu/swarf/pkg/toolpath"
)

// plate returns a flat 100x60 surface at z=0.
func plate() *kernel.Mesh {
	m := &kernel.Mesh{Name: "plate"}
	up := [3]float32{0, 0, 1}
	m.AddTriangle(up, [3]float32{0, 0, 0}, [3]float32{100, 0, 0}, [3]float32{100, 60, 0})
	m.AddTriangle(up, [3]float32{0, 0, 0}, [3]float32{100, 60, 0}, [3]float32{0, 60, 0})
	return m
}

func endmill(id int, d float64) tool.Profile {
	return tool.Profile{ID: id, Name: "endmill", Diameter: d, Stepover: d / 2, DepthOfCut: 1.5, Shape: tool.Flat}
}

func config(depth float64, tools ...tool.Profile) *job.Config {
	cfg := job.Default()
	cfg.CutoutDepth = depth
	cfg.Tools = tools
	return cfg
}

type recorder struct {
	passes []string
	open   int
	last   float64
}

func (r *recorder) Begin(p string) {
	r.passes = append(r.passes, p)
	r.open++
}

func (r *recorder) Update(f float64) { r.last = f }
func (r *recorder) End()             { r.open-- }

func TestRunFlatStock(t *testing.T) {
	res, err := Run(context.Background(), FromMesh(plate()), config(5, endmill(1, 6)), Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.RunID == "" {
		t.Error("RunID is empty")
	}
	if res.Depth != 5 || res.Stock.X != 100 || res.Stock.Y != 60 {
		t.Errorf("depth %g stock %v, want 5 and 100x60", res.Depth, res.Stock)
	}
	if len(res.Collections) != 2 {
		t.Fatalf("got %d collections, want finishing raster + cutout", len(res.Collections))
	}
	if k := res.Collections[0].Kind; k != toolpath.KindFinishing {
		t.Errorf("collection 0 kind %q, want finishing", k)
	}
	if k := res.Collections[1].Kind; k != toolpath.KindCutout {
		t.Errorf("collection 1 kind %q, want cutout", k)
	}
	for _, r := range res.Collections[0].Layer(1).Ramps() {
		if r.ZStart != -5 || r.ZEnd != -5 {
			t.Fatalf("raster ramp at Z (%g,%g), want -5", r.ZStart, r.ZEnd)
		}
	}
	if res.Segments() == 0 {
		t.Error("no segments")
	}
}

func TestRunToolOrder(t *testing.T) {
	cfg := config(5, endmill(1, 3), endmill(2, 6))
	cfg.Finishing = true
	res, err := Run(context.Background(), FromMesh(plate()), cfg, Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"roughing rows T2", "finishing columns T1", "finishing rows T1", "cutout T1"}
	if len(res.Collections) != len(want) {
		t.Fatalf("got %d collections, want %d", len(res.Collections), len(want))
	}
	for i, c := range res.Collections {
		if c.Name != want[i] {
			t.Errorf("collection %d = %q, want %q", i, c.Name, want[i])
		}
	}
}

func TestRunMissingDepthSkipsCutout(t *testing.T) {
	k := sdfx.NewWithCells(30)
	m, err := k.ToMesh(k.Box(40, 30, 4))
	if err != nil {
		t.Fatalf("ToMesh: %v", err)
	}

	res, err := Run(context.Background(), FromMesh(m), config(0, endmill(1, 6)), Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Depth < 3 || res.Depth > 5 {
		t.Errorf("depth %g, want the model height ~4", res.Depth)
	}
	for _, c := range res.Collections {
		if c.Kind == toolpath.KindCutout {
			t.Error("cutout planned without a configured depth")
		}
	}
	if !hasAdvisory(res, "no cutout depth") {
		t.Errorf("advisories %q, want the depth fallback", res.Advisories)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	_, err := Run(context.Background(), FromMesh(plate()), config(5), Options{})
	if !errors.Is(err, job.ErrInvalid) {
		t.Fatalf("err = %v, want job.ErrInvalid", err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Run(ctx, FromMesh(plate()), config(5, endmill(1, 6)), Options{})
	if !errors.Is(err, context.Canceled) || res != nil {
		t.Fatalf("got (%v, %v), want (nil, context.Canceled)", res, err)
	}
}

func TestRunProgress(t *testing.T) {
	rec := &recorder{}
	_, err := Run(context.Background(), FromMesh(plate()), config(5, endmill(1, 6), endmill(2, 8)), Options{Progress: rec})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(rec.passes) != 3 {
		t.Errorf("passes %q, want rough, finish and walls", rec.passes)
	}
	if rec.open != 0 {
		t.Errorf("%d passes left open", rec.open)
	}
	if rec.last != 1 {
		t.Errorf("last progress %g, want 1", rec.last)
	}
}

func TestIngestMissingFile(t *testing.T) {
	m := Ingest(filepath.Join(t.TempDir(), "missing.stl"), stl.Identity)
	if m.Triangles != 0 || m.Field.Len() != 0 {
		t.Fatalf("missing file gave %d triangles", m.Triangles)
	}
	if len(m.Advisories) != 1 {
		t.Fatalf("advisories %q, want one", m.Advisories)
	}

	cfg := config(2, endmill(1, 6))
	cfg.StockX, cfg.StockY = 20, 10
	res, err := Run(context.Background(), m, cfg, Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Stock.X != 20 || res.Stock.Y != 10 {
		t.Errorf("stock %v, want the 20x10 override", res.Stock)
	}
	if !hasAdvisory(res, "cannot read model") || !hasAdvisory(res, "no triangles") {
		t.Errorf("advisories %q", res.Advisories)
	}
}

func TestIngestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plate.stl")
	var buf bytes.Buffer
	if err := stl.WriteBinary(&buf, plate()); err != nil {
		t.Fatalf("WriteBinary: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	m := Ingest(path, stl.Identity)
	if m.Triangles != 2 || len(m.Advisories) != 0 {
		t.Errorf("got %d triangles and advisories %q", m.Triangles, m.Advisories)
	}
	if m.Name != "plate.stl" {
		t.Errorf("Name = %q", m.Name)
	}
}

func TestIngestOverlongLineKeepsTriangles(t *testing.T) {
	text := "solid part\n" +
		"facet normal 0 0 1\n outer loop\n  vertex 0 0 1\n  vertex 4 0 1\n  vertex 0 3 1\n endloop\nendfacet\n" +
		strings.Repeat("9", 2<<20) + "\nendsolid part\n"
	path := filepath.Join(t.TempDir(), "part.stl")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	m := Ingest(path, stl.Identity)
	if m.Triangles != 1 {
		t.Errorf("got %d triangles, want the one read before the long line", m.Triangles)
	}
	if len(m.Advisories) != 1 || strings.Contains(m.Advisories[0], "cannot read model") {
		t.Errorf("advisories %q, want one damaged-file advisory", m.Advisories)
	}
}

func TestLoggerReceivesAdvisories(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	defer SetLogger(nil)

	if _, err := Run(context.Background(), FromMesh(plate()), config(0, endmill(1, 6)), Options{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(buf.String(), "no cutout depth") {
		t.Errorf("log output %q, want the depth advisory", buf.String())
	}
}

func TestSetLoggerNil(t *testing.T) {
	SetLogger(nil)
	if Logger() == nil {
		t.Fatal("Logger() is nil after SetLogger(nil)")
	}
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger should be disabled")
	}
}

func hasAdvisory(r *Result, substr string) bool {
	for _, a := range r.Advisories {
		if strings.Contains(a, substr) {
			return true
		}
	}
	return false
}
