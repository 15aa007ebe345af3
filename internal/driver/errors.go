package driver

import "fmt"

// ScheduleError is a configuration error: raised synchronously, before
// the first step, with no partial result.
type ScheduleError struct {
	Reason string
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("invalid solve request: %s", e.Reason)
}

// Error is a driver-synthesised integration error: it carries the
// failing time, step index, and a human-readable message, and is
// attached to (not replacing) the status flag in the returned
// SolutionData.
type Error struct {
	Time    float64
	Step    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("step %d (t=%.6g): %s", e.Step, e.Time, e.Message)
}
