package factmodel

import "time"

// Fact is a single raw attribute-level observation: subject SubjectID had
// Attribute set to Value as of EffectiveDate. The input fact stream is
// unordered; nothing downstream may depend on arrival order except the
// documented stable-last-wins tie-break within a (SubjectID, Attribute,
// EffectiveDate) bucket (see collect.BucketFacts).
type Fact struct {
	SubjectID     int64
	Attribute     string
	Value         Value
	EffectiveDate time.Time
}

// AttributePair is one (attribute, value) change within a FlatFact.
type AttributePair struct {
	Attribute string
	Value     Value
}

// FlatFact is the set of attribute changes for one subject on one
// effective date, produced by grouping the raw fact stream (§4.1).
type FlatFact struct {
	SubjectID     int64
	EffectiveDate time.Time
	Pairs         []AttributePair
}

// AttributePriority maps an attribute name to a sort rank; lower sorts
// earlier. Attributes absent from the map sort after all present ones,
// then lexicographically.
type AttributePriority map[string]int

// Rank returns p[name] if present, otherwise a sentinel larger than any
// realistic explicit priority.
func (p AttributePriority) Rank(name string) int {
	if r, ok := p[name]; ok {
		return r
	}
	return 1 << 30
}

// Position is a point-in-time holding to resolve against the master.
type Position struct {
	SubjectID int64
	Quantity  float64
	AsOfDate  time.Time
}
