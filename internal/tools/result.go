package tools

import "time"

// RunResult captures the outcome of one tool invocation.
type RunResult struct {
	ExitCode   int
	StderrTail string
	Duration   time.Duration
}

// IsSuccess reports whether the tool exited cleanly.
func (r RunResult) IsSuccess() bool {
	return r.ExitCode == 0
}
