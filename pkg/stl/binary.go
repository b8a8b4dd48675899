package stl

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/chazu/swarf/pkg/kernel"
)

const (
	headerLen = 80
	recordLen = 50 // normal + 3 vertices as float32, uint16 attribute
)

// ReadBinary reads a binary STL: an 80-byte header, a little-endian uint32
// triangle count and count packed 50-byte records.
func ReadBinary(r io.Reader, t Transform) (*kernel.Mesh, error) {
	m := &kernel.Mesh{}

	header := make([]byte, headerLen+4)
	if err := readFull(r, header); err != nil {
		return m, fmt.Errorf("header: %w", err)
	}
	count := binary.LittleEndian.Uint32(header[headerLen:])

	rec := make([]byte, recordLen)
	for i := uint32(0); i < count; i++ {
		if err := readFull(r, rec); err != nil {
			return m, fmt.Errorf("record %d of %d: %w", i, count, err)
		}
		var v [4][3]float32
		for j := 0; j < 4; j++ {
			for k := 0; k < 3; k++ {
				off := (j*3 + k) * 4
				v[j][k] = math.Float32frombits(binary.LittleEndian.Uint32(rec[off:]))
			}
		}
		if !finite(v) {
			return m, fmt.Errorf("record %d: non-finite coordinate: %w", i, ErrMalformed)
		}
		t.add(m, v[0], v[1], v[2], v[3])
	}
	return m, nil
}

// WriteBinary writes m as binary STL. Normals are taken from the first
// vertex of each triangle.
func WriteBinary(w io.Writer, m *kernel.Mesh) error {
	header := make([]byte, headerLen+4)
	copy(header, "binary STL "+m.Name)
	binary.LittleEndian.PutUint32(header[headerLen:], uint32(m.TriangleCount()))
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("stl: write header: %w", err)
	}

	rec := make([]byte, recordLen)
	for i := 0; i < m.TriangleCount(); i++ {
		tri := m.Triangle(i)
		vals := [12]float64{
			tri.Normal.X, tri.Normal.Y, tri.Normal.Z,
			tri.V[0].X, tri.V[0].Y, tri.V[0].Z,
			tri.V[1].X, tri.V[1].Y, tri.V[1].Z,
			tri.V[2].X, tri.V[2].Y, tri.V[2].Z,
		}
		for j, f := range vals {
			binary.LittleEndian.PutUint32(rec[j*4:], math.Float32bits(float32(f)))
		}
		rec[48], rec[49] = 0, 0
		if _, err := w.Write(rec); err != nil {
			return fmt.Errorf("stl: write record %d: %w", i, err)
		}
	}
	return nil
}

func finite(v [4][3]float32) bool {
	for _, row := range v {
		for _, f := range row {
			if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
				return false
			}
		}
	}
	return true
}
