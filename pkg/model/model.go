// Package model builds relief models from a flat feature list using a
// geometry kernel. A relief is a rectangular plate with bosses, pockets and
// domes placed on its top face. The result is a single triangle mesh that
// can be written as STL or fed straight into the height oracle.
package model

import (
	"fmt"

	"github.com/chazu/swarf/pkg/kernel"
)

// FeatureKind identifies what a feature does to the plate.
type FeatureKind int

const (
	FeatureBoss   FeatureKind = iota // cylinder rising from the top face
	FeaturePocket                    // cylinder cut into the top face
	FeatureDome                      // spherical cap rising from the top face
)

func (k FeatureKind) String() string {
	switch k {
	case FeatureBoss:
		return "boss"
	case FeaturePocket:
		return "pocket"
	case FeatureDome:
		return "dome"
	default:
		return fmt.Sprintf("FeatureKind(%d)", int(k))
	}
}

// Feature is one relief element. X and Y locate its center on the plate.
// Height is measured from the top face: up for bosses and domes, down for
// pockets.
type Feature struct {
	Kind   FeatureKind
	Name   string
	X, Y   float64
	Radius float64
	Height float64
}

// Relief is a plate plus the features applied to it in order.
type Relief struct {
	Name     string
	Width    float64 // X
	Length   float64 // Y
	Base     float64 // plate thickness, Z
	Features []Feature
}

// Demo returns the relief used by the demo command: a 100x60x10 plate with
// one boss, one pocket and one dome.
func Demo() Relief {
	return Relief{
		Name:   "demo-relief",
		Width:  100,
		Length: 60,
		Base:   10,
		Features: []Feature{
			{Kind: FeatureBoss, Name: "boss", X: 25, Y: 30, Radius: 10, Height: 8},
			{Kind: FeaturePocket, Name: "pocket", X: 55, Y: 30, Radius: 8, Height: 6},
			{Kind: FeatureDome, Name: "dome", X: 82, Y: 30, Radius: 12, Height: 6},
		},
	}
}

// Validate reports the first structural problem with the relief.
func (r Relief) Validate() error {
	if r.Width <= 0 || r.Length <= 0 || r.Base <= 0 {
		return fmt.Errorf("model: plate dimensions must be positive, got %gx%gx%g", r.Width, r.Length, r.Base)
	}
	for i, f := range r.Features {
		if f.Radius <= 0 || f.Height <= 0 {
			return fmt.Errorf("model: feature %d (%s) needs positive radius and height", i, f.Kind)
		}
		if f.Kind == FeaturePocket && f.Height >= r.Base {
			return fmt.Errorf("model: pocket %d is deeper than the plate (%g >= %g)", i, f.Height, r.Base)
		}
		if f.Kind == FeatureDome && f.Height > f.Radius {
			return fmt.Errorf("model: dome %d is taller than its radius (%g > %g)", i, f.Height, f.Radius)
		}
	}
	return nil
}

// Build tessellates the relief into a single mesh. The builder is read-only
// and never mutates the relief.
func Build(r Relief, k kernel.Kernel) (*kernel.Mesh, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	solid := k.Box(r.Width, r.Length, r.Base)
	for i, f := range r.Features {
		var err error
		solid, err = applyFeature(k, solid, r.Base, f)
		if err != nil {
			return nil, fmt.Errorf("model: feature %d: %w", i, err)
		}
	}

	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("model: ToMesh failed for %s: %w", r.Name, err)
	}
	mesh.Name = r.Name
	return mesh, nil
}

// applyFeature combines one feature with the plate solid.
func applyFeature(k kernel.Kernel, plate kernel.Solid, top float64, f Feature) (kernel.Solid, error) {
	switch f.Kind {
	case FeatureBoss:
		// The cylinder reaches down to the floor so the union has no seam.
		h := top + f.Height
		c := k.Translate(k.Cylinder(h, f.Radius), f.X, f.Y, h/2)
		return k.Union(plate, c), nil

	case FeaturePocket:
		c := k.Translate(k.Cylinder(2*f.Height, f.Radius), f.X, f.Y, top)
		return k.Difference(plate, c), nil

	case FeatureDome:
		s := k.Translate(k.Sphere(f.Radius), f.X, f.Y, top+f.Height-f.Radius)
		// Clip the part of the sphere that would hang below the floor.
		clip := k.Translate(k.Box(2*f.Radius, 2*f.Radius, top+f.Height), f.X-f.Radius, f.Y-f.Radius, 0)
		return k.Union(plate, k.Intersection(s, clip)), nil

	default:
		return nil, fmt.Errorf("unknown feature kind: %v", f.Kind)
	}
}
