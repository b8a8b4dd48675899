package job

import "errors"

var (
	// ErrNoTools is returned when a job lists no tools.
	ErrNoTools = errors.New("job: no tools configured")

	// ErrInvalid wraps blocking validation findings.
	ErrInvalid = errors.New("job: invalid configuration")
)
