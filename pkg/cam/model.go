package cam

import (
	"errors"
	"fmt"

	"github.com/chazu/swarf/pkg/heightfield"
	"github.com/chazu/swarf/pkg/kernel"
	"github.com/chazu/swarf/pkg/stl"
)

// Model is an ingested mesh ready for planning.
type Model struct {
	Name       string
	Triangles  int
	Field      *heightfield.Field
	Advisories []string
}

// FromMesh indexes m for height queries.
func FromMesh(m *kernel.Mesh) *Model {
	if m == nil {
		m = &kernel.Mesh{}
	}
	md := &Model{Name: m.Name, Triangles: m.TriangleCount(), Field: heightfield.New(m)}
	md.logStats()
	return md
}

// Ingest loads an STL file. Ingestion never fails: an unreadable file
// gives an empty model and a damaged one keeps the triangles read before
// the damage. Either case is reported as an advisory.
func Ingest(path string, t stl.Transform) *Model {
	m, err := stl.Load(path, t)
	var advisory string
	switch {
	case err == nil:
	case errors.Is(err, stl.ErrTruncated), errors.Is(err, stl.ErrMalformed):
		if m == nil {
			m = &kernel.Mesh{}
		}
		advisory = fmt.Sprintf("model %s is damaged, keeping %d triangles: %v", path, m.TriangleCount(), err)
	default:
		advisory = fmt.Sprintf("cannot read model, planning over empty stock: %v", err)
		m = &kernel.Mesh{}
	}

	md := FromMesh(m)
	if advisory != "" {
		Logger().Warn(advisory)
		md.Advisories = append(md.Advisories, advisory)
	}
	return md
}

func (m *Model) logStats() {
	min, max := m.Field.Bounds()
	Logger().Info("model indexed",
		"name", m.Name,
		"triangles", m.Triangles,
		"footprint_x", max.X-min.X,
		"footprint_y", max.Y-min.Y,
		"height", max.Z-min.Z,
	)
}
