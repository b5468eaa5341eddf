// Package factmodel defines the shared entities the rest of the module
// operates on: the polymorphic fact value, raw and flattened facts, and the
// security-master bundle (header, column index, rows).
package factmodel

import (
	"fmt"
	"time"
)

// ValueKind tags the scalar type carried by a Value.
type ValueKind int

const (
	// KindNull marks an unset cell.
	KindNull ValueKind = iota
	KindInt
	KindFloat
	KindString
	KindDate
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// Value is a tagged scalar: exactly one of the typed fields is meaningful,
// selected by Kind. Facts, rows, and cells are never modeled as bare `any`
// so that type inference over a column is a property of the column, derived
// once, rather than something re-discovered per cell.
type Value struct {
	Kind ValueKind
	I    int64
	F    float64
	S    string
	D    time.Time
}

// Null is the zero Value.
var Null = Value{Kind: KindNull}

// NewInt builds an int-kind Value.
func NewInt(v int64) Value { return Value{Kind: KindInt, I: v} }

// NewFloat builds a float-kind Value.
func NewFloat(v float64) Value { return Value{Kind: KindFloat, F: v} }

// NewString builds a string-kind Value.
func NewString(v string) Value { return Value{Kind: KindString, S: v} }

// NewDate builds a date-kind Value.
func NewDate(v time.Time) Value { return Value{Kind: KindDate, D: v} }

// IsNull reports whether v carries no data.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Equal reports whether two values carry the same kind and payload. Two
// null values are always equal, regardless of any stray payload bits.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindInt:
		return v.I == other.I
	case KindFloat:
		return v.F == other.F
	case KindString:
		return v.S == other.S
	case KindDate:
		return v.D.Equal(other.D)
	default:
		return false
	}
}

// String renders a Value for debugging and pretty-printing.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindInt:
		return fmt.Sprintf("%d", v.I)
	case KindFloat:
		return fmt.Sprintf("%g", v.F)
	case KindString:
		return v.S
	case KindDate:
		return v.D.Format(DateLayout)
	default:
		return "<unknown>"
	}
}

// DateLayout is the fact log and CLI date format, MM/DD/YY.
const DateLayout = "01/02/06"

// ParseDate parses s as a MM/DD/YY date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
