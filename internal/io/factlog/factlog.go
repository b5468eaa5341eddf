// Package factlog reads and writes the raw fact stream's wire format: one
// quoted CSV record per line, no header row, fields (subject_id,
// attribute, value, effective_date) with effective_date as MM/DD/YY. It
// also handles the companion positions wire format the CLI's -p flag
// reads, the same quote-every-field shape with (subject_id, quantity,
// as_of_date).
package factlog

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hedgineer/secmaster/internal/factmodel"
)

// Write serializes facts to w, one quote-every-field record per line,
// matching the reference writer's QUOTE_ALL mode (encoding/csv.Writer only
// quotes fields that need it, so fields are quoted here by hand).
func Write(w io.Writer, facts []factmodel.Fact) error {
	records := make([][]string, len(facts))
	for i, f := range facts {
		records[i] = []string{
			strconv.FormatInt(f.SubjectID, 10),
			f.Attribute,
			f.Value.String(),
			f.EffectiveDate.Format(factmodel.DateLayout),
		}
	}
	return writeQuotedRecords(w, records, "factlog")
}

// WritePositions serializes positions to w in the same quote-every-field
// format, fields (subject_id, quantity, as_of_date).
func WritePositions(w io.Writer, positions []factmodel.Position) error {
	records := make([][]string, len(positions))
	for i, p := range positions {
		records[i] = []string{
			strconv.FormatInt(p.SubjectID, 10),
			strconv.FormatFloat(p.Quantity, 'g', -1, 64),
			p.AsOfDate.Format(factmodel.DateLayout),
		}
	}
	return writeQuotedRecords(w, records, "positions")
}

func writeQuotedRecords(w io.Writer, records [][]string, label string) error {
	bw := bufio.NewWriter(w)

	for _, record := range records {
		for i, field := range record {
			if i > 0 {
				bw.WriteByte(',')
			}
			bw.WriteByte('"')
			bw.WriteString(strings.ReplaceAll(field, `"`, `""`))
			bw.WriteByte('"')
		}
		bw.WriteByte('\n')
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%s: write: %w", label, err)
	}
	return nil
}

// Read parses a raw fact log. Every value is read back as a string fact
// (ValueKind string); neither this package nor the columnar package's type
// inference converts those strings to int, float or date values.
func Read(r io.Reader) ([]factmodel.Fact, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("factlog: read: %w", err)
	}

	facts := make([]factmodel.Fact, 0, len(records))
	for i, rec := range records {
		subjectID, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("factlog: row %d: invalid subject_id %q: %w", i, rec[0], err)
		}
		date, err := factmodel.ParseDate(rec[3])
		if err != nil {
			return nil, fmt.Errorf("factlog: row %d: invalid effective_date %q: %w", i, rec[3], err)
		}

		facts = append(facts, factmodel.Fact{
			SubjectID:     subjectID,
			Attribute:     rec[1],
			Value:         factmodel.NewString(rec[2]),
			EffectiveDate: date,
		})
	}

	return facts, nil
}

// ReadPositions parses a positions CSV of (subject_id, quantity,
// as_of_date), the wire format `cmd/secmaster -p` reads.
func ReadPositions(r io.Reader) ([]factmodel.Position, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("positions: read: %w", err)
	}

	positions := make([]factmodel.Position, 0, len(records))
	for i, rec := range records {
		subjectID, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("positions: row %d: invalid subject_id %q: %w", i, rec[0], err)
		}
		quantity, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("positions: row %d: invalid quantity %q: %w", i, rec[1], err)
		}
		date, err := factmodel.ParseDate(rec[2])
		if err != nil {
			return nil, fmt.Errorf("positions: row %d: invalid as_of_date %q: %w", i, rec[2], err)
		}

		positions = append(positions, factmodel.Position{
			SubjectID: subjectID,
			Quantity:  quantity,
			AsOfDate:  date,
		})
	}

	return positions, nil
}
