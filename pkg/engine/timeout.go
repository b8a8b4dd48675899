package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/chazu/swarf/pkg/job"
)

// EvalTimeout is the default hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// evalResult carries one evaluation's output back to the caller.
type evalResult struct {
	cfg    *job.Config
	errors []EvalError
	err    error
}

// ErrTimeout is returned when a script runs longer than the engine allows.
var ErrTimeout = fmt.Errorf("engine: evaluation timed out")

// ErrSuperseded is returned when a newer evaluation started while this one
// was running.
var ErrSuperseded = fmt.Errorf("engine: evaluation superseded by newer request")

// waitWithTimeout blocks until ch delivers or limit elapses. Results from a
// generation other than the current one are discarded, so a script that
// outlives its caller can never overwrite a newer job.
func waitWithTimeout(
	ch <-chan evalResult,
	limit time.Duration,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) (*job.Config, []EvalError, error) {
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return nil, nil, ErrSuperseded
		}
		return res.cfg, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, limit)
	}
}
