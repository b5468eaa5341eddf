package columnar

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hedgineer/secmaster/internal/factmodel"
)

// ToRecord converts sm into an Arrow record and the schema it was built
// against, inferring column types along the way.
func ToRecord(sm *factmodel.Bundle) (arrow.Record, *arrow.Schema, error) {
	schema, err := InferSchema(sm)
	if err != nil {
		return nil, nil, err
	}

	pool := memory.NewGoAllocator()
	builder := array.NewRecordBuilder(pool, schema)
	defer builder.Release()

	for i, name := range sm.Header {
		idx := sm.Index[name]
		field := builder.Field(i)
		for _, row := range sm.Rows {
			if err := appendValue(field, row[idx]); err != nil {
				return nil, nil, fmt.Errorf("columnar: column %q: %w", name, err)
			}
		}
	}

	return builder.NewRecord(), schema, nil
}

func appendValue(field array.Builder, v factmodel.Value) error {
	if v.IsNull() {
		field.AppendNull()
		return nil
	}

	switch b := field.(type) {
	case *array.Int64Builder:
		b.Append(v.I)
	case *array.Float64Builder:
		b.Append(v.F)
	case *array.StringBuilder:
		b.Append(v.S)
	case *array.Date32Builder:
		b.Append(arrow.Date32FromTime(v.D))
	default:
		return fmt.Errorf("unsupported builder type %T", field)
	}
	return nil
}

// FromRecord reconstructs a bundle from an Arrow record, taking the
// column order from the record's own schema as the bundle's header.
func FromRecord(rec arrow.Record) (*factmodel.Bundle, error) {
	schema := rec.Schema()

	header := make(factmodel.Header, schema.NumFields())
	for i, f := range schema.Fields() {
		header[i] = f.Name
	}
	bundle := factmodel.NewBundle(header)

	n := int(rec.NumRows())
	bundle.Rows = make([]factmodel.Row, n)
	for r := 0; r < n; r++ {
		row := factmodel.EmptyRow(len(header))
		for c := 0; c < int(rec.NumCols()); c++ {
			v, err := readValue(rec.Column(c), r)
			if err != nil {
				return nil, fmt.Errorf("columnar: column %q row %d: %w", header[c], r, err)
			}
			row[c] = v
		}
		bundle.Rows[r] = row
	}

	return bundle, nil
}

func readValue(col arrow.Array, row int) (factmodel.Value, error) {
	if col.IsNull(row) {
		return factmodel.Null, nil
	}

	switch arr := col.(type) {
	case *array.Int64:
		return factmodel.NewInt(arr.Value(row)), nil
	case *array.Float64:
		return factmodel.NewFloat(arr.Value(row)), nil
	case *array.String:
		return factmodel.NewString(arr.Value(row)), nil
	case *array.Date32:
		return factmodel.NewDate(arr.Value(row).ToTime()), nil
	default:
		return factmodel.Null, fmt.Errorf("unsupported array type %T", col)
	}
}
