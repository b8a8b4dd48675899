package stl

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/swarf/pkg/kernel"
)

// asciiReader walks the keyword stream of a textual STL.
type asciiReader struct {
	sc   *bufio.Scanner
	line int
}

// next returns the fields of the next non-blank line, or nil at EOF.
func (a *asciiReader) next() ([]string, error) {
	for a.sc.Scan() {
		a.line++
		if f := strings.Fields(a.sc.Text()); len(f) > 0 {
			return f, nil
		}
	}
	if err := a.sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %v: %w", a.line+1, err, ErrMalformed)
	}
	return nil, nil
}

// expect reads the next line and checks that it starts with the given words.
func (a *asciiReader) expect(words ...string) ([]string, error) {
	f, err := a.next()
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrTruncated
	}
	if len(f) < len(words) {
		return nil, fmt.Errorf("line %d: expected %q: %w", a.line, strings.Join(words, " "), ErrMalformed)
	}
	for i, w := range words {
		if !strings.EqualFold(f[i], w) {
			return nil, fmt.Errorf("line %d: expected %q, got %q: %w", a.line, w, f[i], ErrMalformed)
		}
	}
	return f[len(words):], nil
}

// vec parses three floats.
func (a *asciiReader) vec(f []string) ([3]float32, error) {
	var v [3]float32
	if len(f) < 3 {
		return v, fmt.Errorf("line %d: want 3 coordinates, got %d: %w", a.line, len(f), ErrMalformed)
	}
	for i := 0; i < 3; i++ {
		x, err := strconv.ParseFloat(f[i], 32)
		if err != nil {
			return v, fmt.Errorf("line %d: %v: %w", a.line, err, ErrMalformed)
		}
		v[i] = float32(x)
	}
	return v, nil
}

// ReadASCII reads a textual STL of the form
//
//	solid name
//	  facet normal nx ny nz
//	    outer loop
//	      vertex x y z (three times)
//	    endloop
//	  endfacet
//	endsolid name
func ReadASCII(r io.Reader, t Transform) (*kernel.Mesh, error) {
	m := &kernel.Mesh{}
	a := &asciiReader{sc: bufio.NewScanner(r)}
	a.sc.Buffer(make([]byte, 64*1024), 1024*1024)

	rest, err := a.expect("solid")
	if err != nil {
		return m, err
	}
	if len(rest) > 0 {
		m.Name = strings.Join(rest, " ")
	}

	for {
		f, err := a.next()
		if err != nil {
			return m, err
		}
		if f == nil {
			// Missing endsolid is tolerated; every facet read was complete.
			return m, nil
		}
		switch strings.ToLower(f[0]) {
		case "endsolid":
			return m, nil
		case "facet":
			if err := a.facet(m, f, t); err != nil {
				return m, err
			}
		default:
			return m, fmt.Errorf("line %d: unexpected %q: %w", a.line, f[0], ErrMalformed)
		}
	}
}

// facet parses the body of one facet whose header fields are hdr.
func (a *asciiReader) facet(m *kernel.Mesh, hdr []string, t Transform) error {
	if len(hdr) < 2 || !strings.EqualFold(hdr[1], "normal") {
		return fmt.Errorf("line %d: expected \"facet normal\": %w", a.line, ErrMalformed)
	}
	n, err := a.vec(hdr[2:])
	if err != nil {
		return err
	}
	if _, err := a.expect("outer", "loop"); err != nil {
		return err
	}
	var v [3][3]float32
	for i := 0; i < 3; i++ {
		f, err := a.expect("vertex")
		if err != nil {
			return err
		}
		if v[i], err = a.vec(f); err != nil {
			return err
		}
	}
	if _, err := a.expect("endloop"); err != nil {
		return err
	}
	if _, err := a.expect("endfacet"); err != nil {
		return err
	}
	t.add(m, n, v[0], v[1], v[2])
	return nil
}
