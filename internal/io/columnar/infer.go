// Package columnar bridges a security-master bundle and Apache Arrow's
// columnar in-memory format, plus the CSV and Parquet encodings built on
// top of it.
package columnar

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hedgineer/secmaster/internal/factmodel"
)

// InferColumnType scans a column's non-null cells and derives its Arrow
// type, implementing the three failure modes spec.md §7 names: zero
// non-null cells, more than one distinct kind present, or an
// unrecognized kind (factmodel.Value only ever carries the four below, so
// the last case is unreachable in practice but kept as a defensive path).
func InferColumnType(column string, values []factmodel.Value) (arrow.DataType, error) {
	seen := make(map[factmodel.ValueKind]bool)
	for _, v := range values {
		if !v.IsNull() {
			seen[v.Kind] = true
		}
	}

	if len(seen) == 0 {
		return nil, &factmodel.EmptyColumnTypeError{Column: column}
	}
	if len(seen) > 1 {
		kinds := make([]factmodel.ValueKind, 0, len(seen))
		for k := range seen {
			kinds = append(kinds, k)
		}
		return nil, &factmodel.HeterogeneousColumnTypeError{Column: column, Kinds: kinds}
	}

	var kind factmodel.ValueKind
	for k := range seen {
		kind = k
	}

	switch kind {
	case factmodel.KindInt:
		return arrow.PrimitiveTypes.Int64, nil
	case factmodel.KindFloat:
		return arrow.PrimitiveTypes.Float64, nil
	case factmodel.KindString:
		return arrow.BinaryTypes.String, nil
	case factmodel.KindDate:
		return arrow.FixedWidthTypes.Date32, nil
	default:
		return nil, &factmodel.UnknownColumnTypeError{Column: column, Kind: kind}
	}
}

// InferSchema infers every non-key column's type and builds the bundle's
// Arrow schema. Key columns get fixed types: subject_id is always int64,
// the two date columns are always date32 (effective_end_date is nullable
// there, never subject to InferColumnType's all-null rejection).
func InferSchema(sm *factmodel.Bundle) (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, len(sm.Header))

	for _, name := range sm.Header {
		switch name {
		case factmodel.ColSubjectID:
			fields = append(fields, arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Int64})
			continue
		case factmodel.ColEffectiveFrom:
			fields = append(fields, arrow.Field{Name: name, Type: arrow.FixedWidthTypes.Date32})
			continue
		case factmodel.ColEffectiveTo:
			fields = append(fields, arrow.Field{Name: name, Type: arrow.FixedWidthTypes.Date32, Nullable: true})
			continue
		}

		col, err := sm.Column(name)
		if err != nil {
			return nil, err
		}
		dt, err := InferColumnType(name, col)
		if err != nil {
			return nil, err
		}
		fields = append(fields, arrow.Field{Name: name, Type: dt, Nullable: true})
	}

	return arrow.NewSchema(fields, nil), nil
}
