// Package stl reads and writes STL triangle meshes.
//
// Both the 50-byte binary record layout and the textual solid/facet layout
// are supported. Every reader takes an axis Transform that is applied to
// vertices and normals as they are read, so models exported with a Y-up
// convention can be brought into the Z-up machining frame.
//
// Ingestion stops at the first truncated or malformed record. The triangles
// already read are kept and returned alongside ErrTruncated or ErrMalformed,
// letting callers decide whether a partial model is usable.
package stl

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/swarf/pkg/kernel"
)

// Transform is an axis permutation applied during ingestion.
type Transform int

const (
	Identity Transform = iota
	SwapYZ
	SwapXZ
)

func (t Transform) String() string {
	switch t {
	case Identity:
		return "identity"
	case SwapYZ:
		return "yz"
	case SwapXZ:
		return "xz"
	default:
		return fmt.Sprintf("Transform(%d)", int(t))
	}
}

// ParseTransform maps "identity"/"none"/"", "yz" and "xz" to a Transform.
func ParseTransform(s string) (Transform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "identity", "none", "xyz":
		return Identity, nil
	case "yz", "swap-yz", "swap_yz":
		return SwapYZ, nil
	case "xz", "swap-xz", "swap_xz":
		return SwapXZ, nil
	default:
		return Identity, fmt.Errorf("stl: unknown axis transform %q", s)
	}
}

// Apply permutes one vector.
func (t Transform) Apply(v [3]float32) [3]float32 {
	switch t {
	case SwapYZ:
		return [3]float32{v[0], v[2], v[1]}
	case SwapXZ:
		return [3]float32{v[2], v[1], v[0]}
	default:
		return v
	}
}

// add pushes one facet through the transform into the mesh.
func (t Transform) add(m *kernel.Mesh, n, a, b, c [3]float32) {
	m.AddTriangle(t.Apply(n), t.Apply(a), t.Apply(b), t.Apply(c))
}

// sniffLen is how much of a file Load inspects to tell ASCII from binary.
const sniffLen = 512

// IsASCII reports whether head looks like a textual STL: it starts with
// "solid" and mentions "facet" soon after. Binary files are allowed to
// start with "solid" in their header, so the first keyword alone is not
// enough.
func IsASCII(head []byte) bool {
	trimmed := bytes.TrimLeft(head, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte("solid")) {
		return false
	}
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	return bytes.Contains(head, []byte("facet"))
}

// Load reads an STL file, detecting its layout. Open errors are wrapped.
// Partial reads return the mesh together with ErrTruncated or ErrMalformed.
func Load(path string, t Transform) (*kernel.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stl: open %s: %w", path, err)
	}

	var m *kernel.Mesh
	if IsASCII(data) {
		m, err = ReadASCII(bytes.NewReader(data), t)
	} else {
		m, err = ReadBinary(bytes.NewReader(data), t)
	}
	if m != nil {
		m.Name = filepath.Base(path)
	}
	if err != nil {
		return m, fmt.Errorf("stl: %s: %w", path, err)
	}
	return m, nil
}

// readFull wraps io.ReadFull so short reads become ErrTruncated.
func readFull(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return ErrTruncated
		}
		return err
	}
	return nil
}
