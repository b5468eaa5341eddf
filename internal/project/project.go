// Package project implements the post-hoc projections over a security
// master bundle: filtering rows by an attribute value, and dropping
// columns left all-null by that filter.
package project

import "github.com/hedgineer/secmaster/internal/factmodel"

// FilterByAttribute retains rows where column == value, including the
// null-matches-null case (spec.md §6's `asset_class IS NULL` filter is
// exactly FilterByAttribute(bundle, "asset_class", factmodel.Null)). Row
// order is preserved. Returns MissingColumnError if column isn't present.
func FilterByAttribute(sm *factmodel.Bundle, column string, value factmodel.Value) (*factmodel.Bundle, error) {
	idx, ok := sm.Index[column]
	if !ok {
		return nil, &factmodel.MissingColumnError{Column: column}
	}

	out := sm.Clone()
	filtered := make([]factmodel.Row, 0, len(out.Rows))
	for _, row := range out.Rows {
		if row[idx].Equal(value) {
			filtered = append(filtered, row)
		}
	}
	out.Rows = filtered

	return out, nil
}

// RemoveEmptyColumns drops any non-key column whose every surviving value
// is null, rewriting Header and Index. Row order and all non-null cell
// contents are preserved (P5).
func RemoveEmptyColumns(sm *factmodel.Bundle) *factmodel.Bundle {
	keep := make([]string, 0, len(sm.Header))
	for _, name := range sm.Header {
		if isKeyColumn(name) {
			keep = append(keep, name)
			continue
		}
		if !columnAllNull(sm, name) {
			keep = append(keep, name)
		}
	}

	if len(keep) == len(sm.Header) {
		return sm.Clone()
	}

	newIndex := factmodel.IndexOf(keep)
	newRows := make([]factmodel.Row, len(sm.Rows))
	for i, row := range sm.Rows {
		newRow := factmodel.EmptyRow(len(keep))
		for _, name := range keep {
			newRow[newIndex[name]] = row[sm.Index[name]]
		}
		newRows[i] = newRow
	}

	return &factmodel.Bundle{Header: keep, Index: newIndex, Rows: newRows}
}

func isKeyColumn(name string) bool {
	return name == factmodel.ColSubjectID || name == factmodel.ColEffectiveFrom || name == factmodel.ColEffectiveTo
}

func columnAllNull(sm *factmodel.Bundle, name string) bool {
	idx := sm.Index[name]
	for _, row := range sm.Rows {
		if !row[idx].IsNull() {
			return false
		}
	}
	return true
}
