package merge

import "github.com/hedgineer/secmaster/internal/factmodel"

// valueDiff pairs a column position with the value it held immediately
// before a cascade's starting row was written, and the new value an
// incoming flat-fact wants to assert there.
type valueDiff struct {
	column   int
	oldValue factmodel.Value
	newValue factmodel.Value
}

// valueDiffs captures, once, the pre-write value of each attribute the
// flat-fact touches — captured from currentRow before cascade() walks
// forward, per spec.md §4.4's "captured once, before the walk" rule.
func valueDiffs(sm *factmodel.Bundle, currentRow factmodel.Row, pairs []factmodel.AttributePair) []valueDiff {
	diffs := make([]valueDiff, 0, len(pairs))
	for _, p := range pairs {
		col := sm.Index[p.Attribute]
		diffs = append(diffs, valueDiff{column: col, oldValue: currentRow[col], newValue: p.Value})
	}
	return diffs
}

// cascade propagates each diff's new value forward over sm's rows
// starting at startIdx, for as long as the row belongs to subjectID. A
// cell is overwritten if and only if it is null or still equal to the
// diff's captured old value — so a contiguous run of the prior value (or
// of nulls) gets overwritten, and propagation stops at the first row
// whose value has already diverged independently (spec.md §4.4, §9).
func cascade(sm *factmodel.Bundle, subjectID int64, startIdx int, diffs []valueDiff) {
	stopped := make([]bool, len(diffs))
	for i := startIdx; i < len(sm.Rows); i++ {
		row := sm.Rows[i]
		if sm.SubjectID(row) != subjectID {
			break
		}

		for j, d := range diffs {
			if stopped[j] {
				continue
			}
			cell := row[d.column]
			if cell.IsNull() || cell.Equal(d.oldValue) {
				row[d.column] = d.newValue
			} else {
				stopped[j] = true
			}
		}
	}
}
