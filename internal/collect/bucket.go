// Package collect groups an unordered raw fact stream into the sorted,
// flattened change sets the master builder and merge engine fold over.
package collect

import (
	"sort"
	"time"

	"github.com/hedgineer/secmaster/internal/factmodel"
)

type dateBucket = map[time.Time][]factmodel.AttributePair

// BucketFacts partitions facts by subject, then by effective date,
// preserving original insertion order of (attribute, value) pairs within
// a bucket. A later occurrence of the same attribute within a bucket
// overwrites an earlier one — the documented stable-last-wins tie-break
// for duplicate (subject_id, attribute, effective_date) keys.
func BucketFacts(facts []factmodel.Fact) map[int64]dateBucket {
	buckets := make(map[int64]dateBucket)

	for _, f := range facts {
		bySubject, ok := buckets[f.SubjectID]
		if !ok {
			bySubject = make(dateBucket)
			buckets[f.SubjectID] = bySubject
		}

		pairs := bySubject[f.EffectiveDate]
		replaced := false
		for i, p := range pairs {
			if p.Attribute == f.Attribute {
				pairs[i] = factmodel.AttributePair{Attribute: f.Attribute, Value: f.Value}
				replaced = true
				break
			}
		}
		if !replaced {
			pairs = append(pairs, factmodel.AttributePair{Attribute: f.Attribute, Value: f.Value})
		}
		bySubject[f.EffectiveDate] = pairs
	}

	return buckets
}

// FlattenAndSort turns bucketed facts into a list of FlatFacts sorted
// stably by (subject_id, effective_date) ascending.
func FlattenAndSort(buckets map[int64]dateBucket) []factmodel.FlatFact {
	out := make([]factmodel.FlatFact, 0)
	for subjectID, byDate := range buckets {
		for date, pairs := range byDate {
			out = append(out, factmodel.FlatFact{
				SubjectID:     subjectID,
				EffectiveDate: date,
				Pairs:         pairs,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SubjectID != out[j].SubjectID {
			return out[i].SubjectID < out[j].SubjectID
		}
		return out[i].EffectiveDate.Before(out[j].EffectiveDate)
	})

	return out
}

// SortedFlatFacts is the composition BucketFacts -> FlattenAndSort.
func SortedFlatFacts(facts []factmodel.Fact) []factmodel.FlatFact {
	return FlattenAndSort(BucketFacts(facts))
}
