package factmodel

import "fmt"

// HeterogeneousColumnTypeError is returned when a column's non-null cells
// span more than one scalar kind.
type HeterogeneousColumnTypeError struct {
	Column string
	Kinds  []ValueKind
}

func (e *HeterogeneousColumnTypeError) Error() string {
	return fmt.Sprintf("column %q has more than one scalar type: %v", e.Column, e.Kinds)
}

// UnknownColumnTypeError is returned when a column's sole scalar kind is
// outside {int, float, string, date}.
type UnknownColumnTypeError struct {
	Column string
	Kind   ValueKind
}

func (e *UnknownColumnTypeError) Error() string {
	return fmt.Sprintf("column %q has unsupported scalar type %s", e.Column, e.Kind)
}

// EmptyColumnTypeError is returned when type inference is invoked on a
// column with zero non-null entries.
type EmptyColumnTypeError struct {
	Column string
}

func (e *EmptyColumnTypeError) Error() string {
	return fmt.Sprintf("column %q has no non-null entries to infer a type from", e.Column)
}

// MissingColumnError is returned when a caller requests a column that is
// not present in the header.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %q is not present in the header", e.Column)
}
