// Package merge incrementally applies new fact updates into an existing
// security-master bundle, preserving invariants I1-I6 without rebuilding
// the table from scratch.
package merge

import (
	"fmt"
	"time"

	"github.com/hedgineer/secmaster/internal/collect"
	"github.com/hedgineer/secmaster/internal/factmodel"
)

// MergeBatch applies an entire update batch to sm: it expands the header
// once for any attributes the batch introduces, then applies each of the
// batch's flat-facts in (subject_id, effective_date) order via the
// five-case analysis in spec.md §4.4. sm is mutated in place and returned.
//
// onCase, if given, is called once per flat-fact with the name of the case
// selected for it ("empty", "before", "after", "exact-hit", "split"). It
// exists so callers like the CLI can log per-case activity without the
// core package importing a logger itself (§6).
func MergeBatch(sm *factmodel.Bundle, updateFacts []factmodel.Fact, priority factmodel.AttributePriority, onCase ...func(factmodel.FlatFact, string)) *factmodel.Bundle {
	expandAttributes(sm, updateFacts, priority)

	for _, ff := range collect.SortedFlatFacts(updateFacts) {
		caseName := mergeFlatFact(sm, ff)
		for _, hook := range onCase {
			hook(ff, caseName)
		}
	}

	return sm
}

// expandAttributes widens sm's header to include any attribute present in
// updateFacts but absent from sm.Header, padding every existing row with
// null in the new columns. This is a single shape-changing rewrite per
// batch, not per fact (§4.4, §9).
func expandAttributes(sm *factmodel.Bundle, updateFacts []factmodel.Fact, priority factmodel.AttributePriority) {
	updateHeader, _ := collect.ResolveHeader(updateFacts, priority)

	newColumns := make([]string, 0)
	for _, name := range updateHeader {
		if _, ok := sm.Index[name]; !ok {
			newColumns = append(newColumns, name)
		}
	}
	if len(newColumns) == 0 {
		return
	}

	mergedHeader, mergedIndex := collect.ExpandHeader(sm.Header, newColumns, priority)

	newRows := make([]factmodel.Row, len(sm.Rows))
	for i, oldRow := range sm.Rows {
		newRow := factmodel.EmptyRow(len(mergedHeader))
		for name, oldPos := range sm.Index {
			newRow[mergedIndex[name]] = oldRow[oldPos]
		}
		newRows[i] = newRow
	}

	sm.Header = mergedHeader
	sm.Index = mergedIndex
	sm.Rows = newRows
}

// mergeFlatFact selects and applies exactly one of the five topological
// cases for a single flat-fact against the current state of sm, returning
// the case's name for logging.
func mergeFlatFact(sm *factmodel.Bundle, ff factmodel.FlatFact) string {
	rows := subjectRowIndices(sm, ff.SubjectID)

	switch {
	case len(rows) == 0:
		insertNewSubject(sm, ff)
		return "empty"

	case ff.EffectiveDate.Before(sm.EffectiveStart(sm.Rows[rows[0]])):
		insertBefore(sm, rows[0], ff)
		return "before"

	case ff.EffectiveDate.After(sm.EffectiveStart(sm.Rows[rows[len(rows)-1]])):
		insertAfter(sm, rows[len(rows)-1], ff)
		return "after"

	default:
		if idx, ok := exactHit(sm, rows, ff.EffectiveDate); ok {
			cascade(sm, ff.SubjectID, idx, valueDiffs(sm, sm.Rows[idx], ff.Pairs))
			return "exact-hit"
		}
		splitRow(sm, rows, ff)
		return "split"
	}
}

// subjectRowIndices returns the indices into sm.Rows of every row
// belonging to subjectID, in table order.
func subjectRowIndices(sm *factmodel.Bundle, subjectID int64) []int {
	out := make([]int, 0)
	for i, row := range sm.Rows {
		if sm.SubjectID(row) == subjectID {
			out = append(out, i)
		}
	}
	return out
}

// exactHit finds the row among rowIndices whose effective_start_date
// equals d, if any.
func exactHit(sm *factmodel.Bundle, rowIndices []int, d time.Time) (int, bool) {
	for _, i := range rowIndices {
		if sm.EffectiveStart(sm.Rows[i]).Equal(d) {
			return i, true
		}
	}
	return 0, false
}

// insertNewSubject handles case 1 (empty): no existing row for the
// subject. A fresh row is built from all-nulls and spliced in at the
// position that preserves ascending subject_id ordering (I1).
func insertNewSubject(sm *factmodel.Bundle, ff factmodel.FlatFact) {
	row := buildRow(factmodel.EmptyRow(len(sm.Header)), sm.Index, ff)

	insertAt := len(sm.Rows)
	for i, r := range sm.Rows {
		if sm.SubjectID(r) > ff.SubjectID {
			insertAt = i
			break
		}
	}
	sm.Rows = insertRow(sm.Rows, insertAt, row)
}

// insertBefore handles case 2: d precedes the subject's first interval. A
// new head row is built, its end date pinned to the old head's start
// date, then new attribute values cascade forward over the rest of the
// subject's rows.
func insertBefore(sm *factmodel.Bundle, headIdx int, ff factmodel.FlatFact) {
	row := buildRow(factmodel.EmptyRow(len(sm.Header)), sm.Index, ff)
	row[sm.Index[factmodel.ColEffectiveTo]] = factmodel.NewDate(sm.EffectiveStart(sm.Rows[headIdx]))

	sm.Rows = insertRow(sm.Rows, headIdx, row)

	diffs := valueDiffs(sm, row, ff.Pairs)
	cascade(sm, ff.SubjectID, headIdx, diffs)
}

// insertAfter handles case 3: d follows the subject's last interval. The
// new row becomes the tail, so there is no cascade — it IS the row that
// would otherwise receive cascaded values.
func insertAfter(sm *factmodel.Bundle, tailIdx int, ff factmodel.FlatFact) {
	newRow := buildRow(sm.Rows[tailIdx].Clone(), sm.Index, ff)
	newRow[sm.Index[factmodel.ColEffectiveFrom]] = factmodel.NewDate(ff.EffectiveDate)
	newRow[sm.Index[factmodel.ColEffectiveTo]] = factmodel.Null

	sm.Rows[tailIdx][sm.Index[factmodel.ColEffectiveTo]] = factmodel.NewDate(ff.EffectiveDate)
	sm.Rows = insertRow(sm.Rows, tailIdx+1, newRow)
}

// splitRow handles case 5: d falls strictly inside an existing interval.
// The interval is cloned, the original is closed at d, the clone opens at
// d and keeps the original's old end date, then cascade runs from the
// clone forward.
func splitRow(sm *factmodel.Bundle, rowIndices []int, ff factmodel.FlatFact) {
	splitIdx, ok := containingInterval(sm, rowIndices, ff.EffectiveDate)
	if !ok {
		panic(fmt.Sprintf("merge: no interval contains date for subject %d; non-tail row with nil effective_end_date violates the builder's invariant", ff.SubjectID))
	}

	newRow := sm.Rows[splitIdx].Clone()
	oldEnd := sm.EffectiveEnd(sm.Rows[splitIdx])

	sm.Rows[splitIdx][sm.Index[factmodel.ColEffectiveTo]] = factmodel.NewDate(ff.EffectiveDate)

	newRow[sm.Index[factmodel.ColEffectiveFrom]] = factmodel.NewDate(ff.EffectiveDate)
	newRow[sm.Index[factmodel.ColEffectiveTo]] = oldEnd

	newIdx := splitIdx + 1
	sm.Rows = insertRow(sm.Rows, newIdx, newRow)

	// newRow still holds the pre-split interval's original attribute
	// values here, so valueDiffs captures the true prior value as
	// old_value. The clone's own cell gets the new value through
	// cascade's first iteration (it trivially equals old_value), not
	// through a direct write — matching the exact-hit case in mergeFlatFact rather
	// than insertBefore's pre-applied-row shape.
	diffs := valueDiffs(sm, newRow, ff.Pairs)
	cascade(sm, ff.SubjectID, newIdx, diffs)
}

// containingInterval finds the row among rowIndices whose half-open
// interval [start, end) contains d. Non-tail rows must carry a non-nil
// end date (spec.md §9's open question, resolved here by asserting it: a
// nil end date on a non-tail row is a builder invariant violation, a
// programmer error per §7, not a case this function can route around).
func containingInterval(sm *factmodel.Bundle, rowIndices []int, d time.Time) (int, bool) {
	for _, i := range rowIndices {
		start := sm.EffectiveStart(sm.Rows[i])
		end := sm.EffectiveEnd(sm.Rows[i])
		if end.IsNull() {
			continue // open tail can't contain a date strictly less than it
		}
		if !start.After(d) && end.D.After(d) {
			return i, true
		}
	}
	return 0, false
}

// buildRow applies (sid, d) and the flat-fact's pairs onto base.
func buildRow(base factmodel.Row, index factmodel.ColumnIndex, ff factmodel.FlatFact) factmodel.Row {
	base[index[factmodel.ColSubjectID]] = factmodel.NewInt(ff.SubjectID)
	base[index[factmodel.ColEffectiveFrom]] = factmodel.NewDate(ff.EffectiveDate)
	for _, pair := range ff.Pairs {
		base[index[pair.Attribute]] = pair.Value
	}
	return base
}

// insertRow splices row into rows at position i.
func insertRow(rows []factmodel.Row, i int, row factmodel.Row) []factmodel.Row {
	rows = append(rows, factmodel.Row{})
	copy(rows[i+1:], rows[i:])
	rows[i] = row
	return rows
}
