package batch

import "fmt"

type State int

const (
	StatePending State = iota
	StateProcessing
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateProcessing:
		return "processing"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ManifestIndex is the AbortError index used when writing the manifest fails.
const ManifestIndex = -1

// AbortError is returned when a batch stops before its manifest is written.
// Images stored before Index stay in the bucket unreferenced.
type AbortError struct {
	BatchID string
	Index   int
	Err     error
}

func (e *AbortError) Error() string {
	if e.Index == ManifestIndex {
		return fmt.Sprintf("batch %s aborted writing manifest: %v", e.BatchID, e.Err)
	}
	return fmt.Sprintf("batch %s aborted at image %d: %v", e.BatchID, e.Index, e.Err)
}

func (e *AbortError) Unwrap() error { return e.Err }

// run tracks one batch through Pending -> Processing(idx) -> Completed | Aborted.
type run struct {
	batchID string
	total   int
	state   State
	index   int
}

func newRun(batchID string, total int) *run {
	return &run{batchID: batchID, total: total, state: StatePending, index: -1}
}

func (r *run) advance(idx int) {
	r.state = StateProcessing
	r.index = idx
}

func (r *run) complete() {
	r.state = StateCompleted
}

func (r *run) abort(idx int, err error) *AbortError {
	r.state = StateAborted
	r.index = idx
	return &AbortError{BatchID: r.batchID, Index: idx, Err: err}
}
