package tracker

import (
	"github.com/2beens/fittrack/internal/schedule"
)

type FailureKind string

const (
	// FailureValidation means the request was rejected, nothing was written.
	FailureValidation FailureKind = "validation"
	// FailureStore means the document store could not be read or written.
	FailureStore FailureKind = "store"
	// FailureRateLimited means the write was denied before reaching the store.
	FailureRateLimited FailureKind = "rate_limited"
)

type Failure struct {
	Kind    FailureKind
	Message string
}

func (f *Failure) Error() string {
	return string(f.Kind) + ": " + f.Message
}

func validationFailure(message string) *Failure {
	return &Failure{Kind: FailureValidation, Message: message}
}

func storeFailure(err error) *Failure {
	return &Failure{Kind: FailureStore, Message: err.Error()}
}

// StateResult always carries usable (possibly empty) state. Failure is set
// when the state could not be read and the empty state is a fallback.
type StateResult struct {
	Status  map[string]any
	Weights map[string]any
	Failure *Failure
}

// WriteResult reports the outcome of one write. Callers that applied the
// change optimistically should undo it when Failure is set.
type WriteResult struct {
	Failure *Failure
}

func (r WriteResult) OK() bool {
	return r.Failure == nil
}

type Progress struct {
	schedule.WeekInfo
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Percentage int `json:"percentage"`
}

type ProgressResult struct {
	Progress
	Failure *Failure
}
