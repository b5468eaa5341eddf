package columnar

import (
	"fmt"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/hedgineer/secmaster/internal/factmodel"
)

// WriteParquet writes sm as a single row group, column types taken from
// the same Arrow-backed inference InferSchema performs, matching the
// reference implementation's single-shot pq.write_table.
func WriteParquet(w io.Writer, sm *factmodel.Bundle) error {
	schema, err := buildParquetSchema(sm)
	if err != nil {
		return err
	}

	writer := parquet.NewGenericWriter[map[string]any](w, schema)
	defer writer.Close()

	for _, row := range sm.Rows {
		record := make(map[string]any, len(sm.Header))
		for _, name := range sm.Header {
			record[name] = parquetCellValue(row[sm.Index[name]])
		}
		if _, err := writer.Write([]map[string]any{record}); err != nil {
			return fmt.Errorf("columnar: write parquet: %w", err)
		}
	}

	return nil
}

// ReadParquet reads a bundle back from a Parquet file written by
// WriteParquet. The header is recovered from the file's own schema (the
// key columns forced to the front, everything else in schema order) since
// a generic reader over map[string]any would otherwise lose field
// ordering entirely.
func ReadParquet(r io.ReaderAt, size int64) (*factmodel.Bundle, error) {
	file, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("columnar: open parquet: %w", err)
	}

	header := headerFromSchema(file.Schema())

	reader := parquet.NewGenericReader[map[string]any](file)
	defer reader.Close()

	bundle := factmodel.NewBundle(header)
	buf := make([]map[string]any, 128)
	for {
		n, err := reader.Read(buf)
		for _, rec := range buf[:n] {
			bundle.Rows = append(bundle.Rows, rowFromParquetRecord(bundle, rec))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("columnar: read parquet: %w", err)
		}
		if n == 0 {
			break
		}
	}

	return bundle, nil
}

func headerFromSchema(schema *parquet.Schema) factmodel.Header {
	header := make(factmodel.Header, 0, len(schema.Fields()))
	header = append(header, factmodel.KeyColumns...)

	seen := make(map[string]bool, len(factmodel.KeyColumns))
	for _, name := range factmodel.KeyColumns {
		seen[name] = true
	}

	for _, field := range schema.Fields() {
		if seen[field.Name()] {
			continue
		}
		header = append(header, field.Name())
	}

	return header
}

func buildParquetSchema(sm *factmodel.Bundle) (*parquet.Schema, error) {
	group := make(parquet.Group, len(sm.Header))

	for _, name := range sm.Header {
		switch name {
		case factmodel.ColSubjectID:
			group[name] = parquet.Int(64)
			continue
		case factmodel.ColEffectiveFrom:
			group[name] = parquet.Date()
			continue
		case factmodel.ColEffectiveTo:
			group[name] = parquet.Optional(parquet.Date())
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
		group[name] = parquet.Optional(parquetNodeFor(dt))
	}

	return parquet.NewSchema("security_master", group), nil
}

func parquetNodeFor(dt interface{ Name() string }) parquet.Node {
	switch dt.Name() {
	case "int64":
		return parquet.Int(64)
	case "float64":
		return parquet.Leaf(parquet.DoubleType)
	case "date32":
		return parquet.Date()
	default:
		return parquet.String()
	}
}

// parquet's DATE logical type is physically an INT32 day count, not a
// timestamp; round-tripping through the generic map[string]any writer/
// reader means dates have to be converted by hand rather than left as
// time.Time and hoped over.
func daysSinceEpoch(t time.Time) int32 {
	return int32(t.UTC().Truncate(24 * time.Hour).Unix() / 86400)
}

func dateFromDays(days int32) time.Time {
	return time.Unix(int64(days)*86400, 0).UTC()
}

func parquetCellValue(v factmodel.Value) any {
	switch v.Kind {
	case factmodel.KindNull:
		return nil
	case factmodel.KindInt:
		return v.I
	case factmodel.KindFloat:
		return v.F
	case factmodel.KindString:
		return v.S
	case factmodel.KindDate:
		return daysSinceEpoch(v.D)
	default:
		return nil
	}
}

func rowFromParquetRecord(bundle *factmodel.Bundle, rec map[string]any) factmodel.Row {
	row := factmodel.EmptyRow(len(bundle.Header))
	for name, idx := range bundle.Index {
		isDate := name == factmodel.ColEffectiveFrom || name == factmodel.ColEffectiveTo
		row[idx] = valueFromParquetCell(rec[name], isDate)
	}
	return row
}

func valueFromParquetCell(v any, isDate bool) factmodel.Value {
	switch x := v.(type) {
	case nil:
		return factmodel.Null
	case int32:
		if isDate {
			return factmodel.NewDate(dateFromDays(x))
		}
		return factmodel.NewInt(int64(x))
	case int64:
		return factmodel.NewInt(x)
	case float64:
		return factmodel.NewFloat(x)
	case string:
		return factmodel.NewString(x)
	default:
		return factmodel.Null
	}
}
