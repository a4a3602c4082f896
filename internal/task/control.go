package task

import "fmt"

// StopTaskError is returned by a RunFunc to end the current task early
// without treating it as a failure. SkipSuccessors controls whether the
// task's successors are skipped (limit set to empty) or allowed to run
// with an unmodified Action.
type StopTaskError struct {
	SkipSuccessors bool
}

func (e *StopTaskError) Error() string {
	return fmt.Sprintf("task: stopped (skip_successors=%v)", e.SkipSuccessors)
}

// StopTask builds the control-flow error a RunFunc returns to stop the
// task gracefully.
func StopTask(skipSuccessors bool) error {
	return &StopTaskError{SkipSuccessors: skipSuccessors}
}

// AbortWorkflowError is returned by a RunFunc to end the entire workflow
// run immediately. It is not a failure: the Finally callback still runs,
// reporting StatusAborted.
type AbortWorkflowError struct{}

func (e *AbortWorkflowError) Error() string {
	return "task: workflow aborted"
}

// AbortWorkflow builds the control-flow error a RunFunc returns to abort
// the whole workflow run.
func AbortWorkflow() error {
	return &AbortWorkflowError{}
}
