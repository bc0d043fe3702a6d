package pipeline

import "fmt"

// EmptyParentError is fatal: a dependent entity cannot clean a single record
// when a required parent table came out empty, so the run aborts rather than
// silently producing an empty child table.
type EmptyParentError struct {
	Entity string // entity that could not proceed
	Parent string // required parent whose cleaned table is empty
	Input  int    // raw records that were waiting to be cleaned
}

func (e *EmptyParentError) Error() string {
	return fmt.Sprintf("entity %q: required parent %q has no cleaned records (%d raw %s records cannot resolve)",
		e.Entity, e.Parent, e.Input, e.Entity)
}

// CycleError reports a dependency cycle in the entity specs. This is a
// programming error in the spec table, not a data problem.
type CycleError struct {
	Remaining []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("entity dependency cycle involving %v", e.Remaining)
}
