// Package join resolves point-in-time positions against a security master
// bundle, emitting one enriched row per position whose subject has an
// interval covering the position's as-of date.
package join

import (
	"time"

	"github.com/hedgineer/secmaster/internal/factmodel"
)

// JoinedRow is one output record: the position's key fields followed by
// the covering interval's non-key attribute values, in header order.
type JoinedRow struct {
	SubjectID int64
	Quantity  float64
	AsOfDate  time.Time
	Values    []factmodel.Value
}

// Result bundles the join header with its rows.
type Result struct {
	Header factmodel.Header
	Rows   []JoinedRow
}

// JoinPositions implements spec.md §4.5: for each position, find the
// first row whose subject_id matches and whose interval
// [effective_start_date, effective_end_date) contains as_of_date,
// treating a null end date as +infinity. Positions matching no interval
// are silently dropped (§7) — this is a permissive join, not an error.
func JoinPositions(sm *factmodel.Bundle, positions []factmodel.Position) Result {
	attrs := sm.AttributeColumns()

	header := make(factmodel.Header, 0, len(attrs)+3)
	header = append(header, "subject_id", "quantity", "as_of_date")
	header = append(header, attrs...)

	rows := make([]JoinedRow, 0, len(positions))
	for _, pos := range positions {
		row, ok := findCoveringRow(sm, pos)
		if !ok {
			continue
		}

		values := make([]factmodel.Value, len(attrs))
		for i, name := range attrs {
			values[i] = row[sm.Index[name]]
		}

		rows = append(rows, JoinedRow{
			SubjectID: pos.SubjectID,
			Quantity:  pos.Quantity,
			AsOfDate:  pos.AsOfDate,
			Values:    values,
		})
	}

	return Result{Header: header, Rows: rows}
}

func findCoveringRow(sm *factmodel.Bundle, pos factmodel.Position) (factmodel.Row, bool) {
	for _, row := range sm.Rows {
		if sm.SubjectID(row) != pos.SubjectID {
			continue
		}
		start := sm.EffectiveStart(row)
		end := sm.EffectiveEnd(row)

		afterStart := !start.After(pos.AsOfDate)
		beforeEnd := end.IsNull() || end.D.After(pos.AsOfDate)

		if afterStart && beforeEnd {
			return row, true
		}
	}
	return nil, false
}
