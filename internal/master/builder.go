// Package master folds a sorted, flattened fact stream into a security
// master table: a row per validity interval, attribute values carried
// forward, and end dates closed off as each subject's next interval opens.
package master

import (
	"github.com/hedgineer/secmaster/internal/collect"
	"github.com/hedgineer/secmaster/internal/factmodel"
)

// Build runs the sequential left-fold described in spec.md §4.3 over the
// full fact stream: bucket, flatten, sort, then accumulate.
func Build(facts []factmodel.Fact, priority factmodel.AttributePriority) *factmodel.Bundle {
	header, index := collect.ResolveHeader(facts, priority)
	flatFacts := collect.SortedFlatFacts(facts)
	return BuildFromFlatFacts(flatFacts, header, index)
}

// BuildFromFlatFacts runs the fold given an already-sorted flat-fact
// sequence and a resolved (header, index) pair.
func BuildFromFlatFacts(sortedFlatFacts []factmodel.FlatFact, header factmodel.Header, index factmodel.ColumnIndex) *factmodel.Bundle {
	b := &factmodel.Bundle{Header: header, Index: index, Rows: make([]factmodel.Row, 0, len(sortedFlatFacts))}

	for _, ff := range sortedFlatFacts {
		accumulate(b, ff)
	}

	return b
}

// accumulate applies one flat-fact to the growing bundle in place,
// implementing spec.md §4.3 steps 1-5.
func accumulate(b *factmodel.Bundle, ff factmodel.FlatFact) {
	isNewSubject := len(b.Rows) == 0 || b.SubjectID(b.Rows[len(b.Rows)-1]) != ff.SubjectID

	var prior factmodel.Row
	if isNewSubject {
		prior = factmodel.EmptyRow(len(b.Header))
	} else {
		prior = b.Rows[len(b.Rows)-1].Clone()
	}

	newRow := prior
	newRow[b.Index[factmodel.ColSubjectID]] = factmodel.NewInt(ff.SubjectID)
	newRow[b.Index[factmodel.ColEffectiveFrom]] = factmodel.NewDate(ff.EffectiveDate)
	newRow[b.Index[factmodel.ColEffectiveTo]] = factmodel.Null
	for _, pair := range ff.Pairs {
		newRow[b.Index[pair.Attribute]] = pair.Value
	}

	if !isNewSubject {
		last := len(b.Rows) - 1
		b.Rows[last][b.Index[factmodel.ColEffectiveTo]] = factmodel.NewDate(ff.EffectiveDate)
	}

	b.Rows = append(b.Rows, newRow)
}
