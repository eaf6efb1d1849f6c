package pipeline

import "fmt"

// StageError reports one stage failing for one run. It aborts only that
// run; the batch always proceeds to the next run index.
type StageError struct {
	Run   int
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("run %d: stage %s: %v", e.Run, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageFailure(run int, stage string, err error) *StageError {
	return &StageError{Run: run, Stage: stage, Err: err}
}
