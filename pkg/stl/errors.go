package stl

import "errors"

var (
	// ErrTruncated means the input ended inside a record. Triangles read
	// before the cut are still returned.
	ErrTruncated = errors.New("stl: truncated input")

	// ErrMalformed means a record could not be parsed. Triangles read
	// before the bad record are still returned.
	ErrMalformed = errors.New("stl: malformed record")
)
