package ingest

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Failure records one failed work item or compaction task.
type Failure struct {
	Ref string
	Err error
}

// Report aggregates the outcome of a run. A failed item never aborts the
// run; it is recorded here and the run moves on, so partial progress is
// always preserved.
type Report struct {
	Mode      Mode
	Planned   int
	Succeeded int
	Skipped   int
	Failed    int
	Failures  []Failure

	mu sync.Mutex
}

func (r *Report) success() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Succeeded++
}

func (r *Report) skip() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Skipped++
}

func (r *Report) fail(ref string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failed++
	r.Failures = append(r.Failures, Failure{Ref: ref, Err: err})
}

// Err returns nil when every item succeeded or was skipped, otherwise an
// aggregate error naming each failed item.
func (r *Report) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Failed == 0 {
		return nil
	}
	var merr *multierror.Error
	for _, f := range r.Failures {
		merr = multierror.Append(merr, fmt.Errorf("%s: %w", f.Ref, f.Err))
	}
	return fmt.Errorf("%d of %d items failed: %w", r.Failed, r.Planned, merr.ErrorOrNil())
}
