package columnar

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hedgineer/secmaster/internal/factmodel"
)

// WriteCSV writes the master table (header plus every row) to w using
// Arrow's CSV writer against the bundle's inferred schema. This is
// distinct from the factlog package's narrower four-column raw fact
// format — WriteCSV exports the wide master table itself.
func WriteCSV(w io.Writer, sm *factmodel.Bundle) error {
	rec, schema, err := ToRecord(sm)
	if err != nil {
		return err
	}
	defer rec.Release()

	writer := csv.NewWriter(w, schema, csv.WithHeader(true))
	if err := writer.Write(rec); err != nil {
		return fmt.Errorf("columnar: write csv: %w", err)
	}
	return nil
}

// ReadCSV reads a master table previously written by WriteCSV, typing
// each column per the given schema (typically produced by a prior call
// to InferSchema against the same header).
func ReadCSV(r io.Reader, schema *arrow.Schema) (*factmodel.Bundle, error) {
	reader := csv.NewReader(r, schema, csv.WithHeader(true), csv.WithAllocator(memory.NewGoAllocator()))
	defer reader.Release()

	if !reader.Next() {
		if err := reader.Err(); err != nil {
			return nil, fmt.Errorf("columnar: read csv: %w", err)
		}
		header := make(factmodel.Header, schema.NumFields())
		for i, f := range schema.Fields() {
			header[i] = f.Name
		}
		return factmodel.NewBundle(header), nil
	}

	rec := reader.Record()
	rec.Retain()
	defer rec.Release()

	return FromRecord(rec)
}
