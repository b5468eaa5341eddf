package collect

import (
	"sort"

	"github.com/hedgineer/secmaster/internal/factmodel"
)

// ResolveHeader derives the ordered attribute vector from a raw fact
// stream and a caller-supplied priority map (§4.2): collect the distinct
// attribute names in first-seen order, prepend the fixed key columns, then
// sort the whole sequence by (priority.Rank(name), name).
func ResolveHeader(facts []factmodel.Fact, priority factmodel.AttributePriority) (factmodel.Header, factmodel.ColumnIndex) {
	seen := make(map[string]bool)
	attributes := make([]string, 0)
	for _, f := range facts {
		if !seen[f.Attribute] {
			seen[f.Attribute] = true
			attributes = append(attributes, f.Attribute)
		}
	}

	header := make(factmodel.Header, 0, len(attributes)+3)
	header = append(header, factmodel.KeyColumns...)
	header = append(header, attributes...)

	sortHeader(header, priority)

	return header, factmodel.IndexOf(header)
}

// sortHeader orders names by (priority.Rank(name), name), in place. The
// three key columns are pinned to the front with fixed ranks -3, -2, -1,
// whatever the priority map says about them, so the fixed prefix holds
// even for callers whose map omits them.
func sortHeader(header factmodel.Header, priority factmodel.AttributePriority) {
	rankOf := func(name string) int {
		switch name {
		case factmodel.ColSubjectID:
			return -3
		case factmodel.ColEffectiveFrom:
			return -2
		case factmodel.ColEffectiveTo:
			return -1
		default:
			return priority.Rank(name)
		}
	}

	sort.SliceStable(header, func(i, j int) bool {
		ri, rj := rankOf(header[i]), rankOf(header[j])
		if ri != rj {
			return ri < rj
		}
		return header[i] < header[j]
	})
}

// ExpandHeader merges newColumns (attributes absent from base) into base,
// re-sorting by the same priority rule, and returns the merged header and
// its index. Used once per merge batch (§4.4) rather than per fact.
func ExpandHeader(base factmodel.Header, newColumns []string, priority factmodel.AttributePriority) (factmodel.Header, factmodel.ColumnIndex) {
	present := make(map[string]bool, len(base))
	for _, name := range base {
		present[name] = true
	}

	merged := make(factmodel.Header, len(base))
	copy(merged, base)
	for _, name := range newColumns {
		if !present[name] {
			merged = append(merged, name)
			present[name] = true
		}
	}

	sortHeader(merged, priority)
	return merged, factmodel.IndexOf(merged)
}
