package topolenum

import "time"

// Status is what an Observer is called with periodically during Enumerate.
type Status struct {
	ReportsSeen int
	MinScore    float64
	Elapsed     time.Duration
}

// Observer is a reporting hook Enumerate consults periodically while a run
// is in progress.
type Observer func(Status)
