// Package analysis turns raw civic dataset records into statistical
// summaries. Analyzers are pure functions: they take an explicit reference
// time, hold no state, and produce identical output for identical input.
package analysis

import "fmt"

// Error reports a record set that could not be analyzed, typically because
// a record carried a malformed timestamp. It is the one failure the safety
// service surfaces to its caller: a partially analyzed dataset would make
// the composite score untrustworthy.
type Error struct {
	Dataset string
	Records int
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("analysis: %s (%d records): %v", e.Dataset, e.Records, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
