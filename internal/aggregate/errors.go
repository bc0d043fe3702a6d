package aggregate

import "fmt"

// NoOrdersError is fatal: every report divides by or iterates the order set,
// so an empty cleaned orders table means there is nothing meaningful to emit.
type NoOrdersError struct{}

func (e *NoOrdersError) Error() string {
	return "no cleaned orders: reports would be empty or undefined"
}

// MissingTableError reports a cleaned table the engine needs but was never
// given, which indicates a wiring bug rather than bad data.
type MissingTableError struct {
	Table string
}

func (e *MissingTableError) Error() string {
	return fmt.Sprintf("cleaned table %q missing from aggregation input", e.Table)
}
