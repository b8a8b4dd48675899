// Package job holds the typed configuration of one toolpath job: the model
// to machine, the ordered tool list and the pass settings shared by every
// stage. Configs are produced by the job DSL in package engine or built
// directly, then checked with Validate before planning.
package job

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chazu/swarf/pkg/stl"
	"github.com/chazu/swarf/pkg/tool"
)

// Format selects the output serialization.
type Format int

const (
	FormatJSON Format = iota
	FormatMsgpack
	FormatSVG
	FormatDXF
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatMsgpack:
		return "msgpack"
	case FormatSVG:
		return "svg"
	case FormatDXF:
		return "dxf"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat maps a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "json":
		return FormatJSON, nil
	case "msgpack", "mp", "mpk":
		return FormatMsgpack, nil
	case "svg":
		return FormatSVG, nil
	case "dxf":
		return FormatDXF, nil
	default:
		return FormatJSON, fmt.Errorf("job: unknown output format %q", s)
	}
}

// FormatFromPath guesses the format from a file extension and falls back
// to JSON.
func FormatFromPath(path string) Format {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return FormatJSON
	}
	return f
}

// Defaults.
const (
	DefaultRetract             = 5.0
	DefaultRoughingRadiusScale = 1.0
	DefaultOutput              = "toolpath.json"
	DefaultToolID              = 106
)

// Config is one job.
type Config struct {
	Model string        `json:"model"`
	Axes  stl.Transform `json:"axes"`

	// CutoutDepth is the machining depth. 0 means absent; see ResolveDepth.
	CutoutDepth  float64 `json:"cutout_depth"`
	StockToLeave float64 `json:"stock_to_leave"`
	ZOffset      float64 `json:"z_offset"`

	// StockX and StockY override the model footprint when positive.
	StockX float64 `json:"stock_x,omitempty"`
	StockY float64 `json:"stock_y,omitempty"`

	Finishing         bool    `json:"finishing"`
	FinishingStepover float64 `json:"finishing_stepover,omitempty"`

	// Tools are ordered from the finishing tool at index 0 up to the
	// largest roughing tool.
	Tools []tool.Profile `json:"tools"`

	Retract             float64 `json:"retract"`
	RoughingRadiusScale float64 `json:"roughing_radius_scale"`

	Output string `json:"output"`
	Format Format `json:"format"`
}

// Default returns a single-tool job using the 6mm library flat.
func Default() *Config {
	t, _ := tool.Lookup(DefaultToolID)
	return &Config{
		Tools:               []tool.Profile{t},
		Retract:             DefaultRetract,
		RoughingRadiusScale: DefaultRoughingRadiusScale,
		Output:              DefaultOutput,
		Format:              FormatJSON,
	}
}

// FinishingTool returns tool 0.
func (c *Config) FinishingTool() (tool.Profile, error) {
	if len(c.Tools) == 0 {
		return tool.Profile{}, ErrNoTools
	}
	return c.Tools[0], nil
}

// DepthResolution is the outcome of ResolveDepth.
type DepthResolution struct {
	Depth      float64
	SkipCutout bool
	Advisory   string
}

// ResolveDepth returns the depth to machine to. With no configured depth
// the model height is used instead and the cutout ramp is skipped, since
// a safe perimeter depth cannot be assumed.
func (c *Config) ResolveDepth(modelHeight float64) DepthResolution {
	if c.CutoutDepth > 0 {
		return DepthResolution{Depth: c.CutoutDepth}
	}
	return DepthResolution{
		Depth:      modelHeight,
		SkipCutout: true,
		Advisory:   fmt.Sprintf("no cutout depth configured; using model height %.3f and skipping the cutout", modelHeight),
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Tools = append([]tool.Profile(nil), c.Tools...)
	return &out
}
