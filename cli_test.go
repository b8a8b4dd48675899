package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/swarf/pkg/cam"
	"github.com/chazu/swarf/pkg/job"
)

const plateSTL = `solid plate
facet normal 0 0 1
  outer loop
    vertex 0 0 0
    vertex 20 0 0
    vertex 20 10 0
  endloop
endfacet
facet normal 0 0 1
  outer loop
    vertex 0 0 0
    vertex 20 10 0
    vertex 0 10 0
  endloop
endfacet
endsolid plate
`

// runCLI executes the root command with args and returns what it printed.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		verbose, quiet = false, false
		cam.SetLogger(nil)
	})
	err := execute()
	return out.String(), err
}

func TestCLITools(t *testing.T) {
	out, err := runCLI(t, "tools")
	if err != nil {
		t.Fatalf("tools: %v", err)
	}
	for _, want := range []string{"ID", "106", "202"} {
		if !strings.Contains(out, want) {
			t.Errorf("tools output missing %q:\n%s", want, out)
		}
	}
}

func TestCLIVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != strings.TrimSpace(rootCmd.Version) {
		t.Errorf("version printed %q, want %q", out, rootCmd.Version)
	}
}

func TestCLIPlanWithFlags(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "plate.stl")
	if err := os.WriteFile(model, []byte(plateSTL), 0o644); err != nil {
		t.Fatal(err)
	}
	svgPath := filepath.Join(dir, "plate.svg")

	if _, err := runCLI(t, "plan", "--quiet", "--model", model, "--out", svgPath, "--depth", "3"); err != nil {
		t.Fatalf("plan: %v", err)
	}
	data, err := os.ReadFile(svgPath)
	if err != nil {
		t.Fatalf("plan wrote nothing: %v", err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Errorf("output is not SVG:\n%.200s", data)
	}
}

// setPlanFlag marks a plan flag as given on the command line for one test.
func setPlanFlag(t *testing.T, name, value string) {
	t.Helper()
	flags := planCmd.Flags()
	if err := flags.Set(name, value); err != nil {
		t.Fatalf("set --%s: %v", name, err)
	}
	t.Cleanup(func() {
		f := flags.Lookup(name)
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

func TestFinalizeJobRevalidatesAfterFlags(t *testing.T) {
	cfg := job.Default()
	before := cfg.Validate().Warnings
	if len(before) == 0 {
		t.Fatal("default job should warn about the missing cutout depth")
	}

	setPlanFlag(t, "depth", "5")
	warnings, err := finalizeJob(planCmd, cfg)
	if err != nil {
		t.Fatalf("finalizeJob: %v", err)
	}
	if cfg.CutoutDepth != 5 {
		t.Errorf("cutout depth = %g, want 5 from the flag", cfg.CutoutDepth)
	}
	for _, w := range warnings {
		if w.Field == "cutout_depth" {
			t.Errorf("stale warning after --depth: %v", w)
		}
	}
}

func TestFinalizeJobRejectsBadFlag(t *testing.T) {
	setPlanFlag(t, "depth", "-2")
	if _, err := finalizeJob(planCmd, job.Default()); err == nil {
		t.Fatal("expected a negative --depth to fail validation")
	}
}

func TestCLIPlanRejectsBadJob(t *testing.T) {
	path := writeJob(t, t.TempDir(), "(job :retract 0)")
	if _, err := runCLI(t, "plan", "--quiet", path); err == nil {
		t.Fatal("expected plan to fail for an invalid job")
	}
}

func TestCLIDemo(t *testing.T) {
	if testing.Short() {
		t.Skip("meshing the demo relief at full resolution is slow")
	}
	path := filepath.Join(t.TempDir(), "demo.stl")
	if _, err := runCLI(t, "demo", "--quiet", path); err != nil {
		t.Fatalf("demo: %v", err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() < 84 {
		t.Fatalf("demo STL missing or empty: %v", err)
	}
}
