// Package tool describes cutting tools: their size, stepover, depth of cut
// and the radial height-loss function of their tip shape.
package tool

import (
	"fmt"
	"math"
	"strings"
)

// Shape is the tip geometry of a cutter.
type Shape int

const (
	Flat Shape = iota
	Ballnose
	Vbit
)

func (s Shape) String() string {
	switch s {
	case Flat:
		return "flat"
	case Ballnose:
		return "ballnose"
	case Vbit:
		return "vbit"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// ParseShape accepts "flat", "ballnose"/"ball" and "vbit"/"v".
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "flat", "endmill":
		return Flat, nil
	case "ballnose", "ball":
		return Ballnose, nil
	case "vbit", "v", "v-bit":
		return Vbit, nil
	default:
		return Flat, fmt.Errorf("tool: unknown shape %q", s)
	}
}

// DefaultVbitAngle is the included angle, in degrees, assumed for a v-bit
// without one.
const DefaultVbitAngle = 90.0

// Profile is one cutting tool.
type Profile struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Diameter   float64 `json:"diameter"`
	Stepover   float64 `json:"stepover"`
	DepthOfCut float64 `json:"depth_of_cut"`
	Shape      Shape   `json:"shape"`
	Angle      float64 `json:"angle,omitempty"` // v-bit included angle in degrees
}

// Radius returns half the diameter.
func (p Profile) Radius() float64 {
	return p.Diameter / 2
}

// IsBallnose reports whether the tool has a hemispherical tip.
func (p Profile) IsBallnose() bool { return p.Shape == Ballnose }

// IsVbit reports whether the tool has a conical tip.
func (p Profile) IsVbit() bool { return p.Shape == Vbit }

// NeedsWallFinishing reports whether steep walls need a dedicated pass.
// Only straight-sided cutters do; the raster pass already models the
// variable clearance of shaped tips.
func (p Profile) NeedsWallFinishing() bool { return p.Shape == Flat }

// RadialOffset returns how far the cutting edge sits above the tool tip at
// distance r from the axis. r is clamped to the tool radius.
func (p Profile) RadialOffset(r float64) float64 {
	R := p.Radius()
	if r < 0 {
		r = 0
	}
	if r > R {
		r = R
	}
	switch p.Shape {
	case Ballnose:
		return R - math.Sqrt(R*R-r*r)
	case Vbit:
		angle := p.Angle
		if angle <= 0 || angle >= 180 {
			angle = DefaultVbitAngle
		}
		return r / math.Tan(angle/2*math.Pi/180)
	default:
		return 0
	}
}

// FinishingStepover returns the default stepover of a finishing pass:
// the roughing stepover divided by 1.42 when it is above 0.2, then halved
// again for a ballnose.
func (p Profile) FinishingStepover() float64 {
	s := p.Stepover
	if s > 0.2 {
		s /= 1.42
	}
	if p.IsBallnose() {
		s /= 2
	}
	return s
}

// Validate reports the first out-of-range field.
func (p Profile) Validate() error {
	switch {
	case p.Diameter <= 0:
		return fmt.Errorf("tool %d: diameter must be positive, got %g", p.ID, p.Diameter)
	case p.Stepover <= 0:
		return fmt.Errorf("tool %d: stepover must be positive, got %g", p.ID, p.Stepover)
	case p.DepthOfCut <= 0:
		return fmt.Errorf("tool %d: depth of cut must be positive, got %g", p.ID, p.DepthOfCut)
	case p.Shape == Vbit && (p.Angle < 0 || p.Angle >= 180):
		return fmt.Errorf("tool %d: v-bit angle must be in (0, 180), got %g", p.ID, p.Angle)
	}
	return nil
}

func (p Profile) String() string {
	name := p.Name
	if name == "" {
		name = fmt.Sprintf("%gmm %s", p.Diameter, p.Shape)
	}
	return fmt.Sprintf("T%d %s", p.ID, name)
}
