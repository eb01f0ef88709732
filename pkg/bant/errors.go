package bant

import "fmt"

// SchemaViolationError is returned when a record or score violates a
// closed enum or a numeric bound. It always surfaces to the caller;
// records are never silently constructed in an invalid state.
type SchemaViolationError struct {
	Field  string
	Reason string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("schema violation: %s: %s", e.Field, e.Reason)
}
