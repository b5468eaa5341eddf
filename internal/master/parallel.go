package master

import (
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/hedgineer/secmaster/internal/collect"
	"github.com/hedgineer/secmaster/internal/factmodel"
)

// BuildParallel is the concurrent variant allowed by spec.md §5: flat-facts
// are already grouped by subject_id once sorted, so each subject's fold is
// independent. Partitions are folded on a bounded worker pool and
// concatenated back in ascending subject_id order, so the output is
// byte-for-byte identical to Build's sequential result.
func BuildParallel(facts []factmodel.Fact, priority factmodel.AttributePriority, maxWorkers int) *factmodel.Bundle {
	header, index := collect.ResolveHeader(facts, priority)
	flatFacts := collect.SortedFlatFacts(facts)

	partitions := partitionBySubject(flatFacts)
	subjectIDs := make([]int64, 0, len(partitions))
	for id := range partitions {
		subjectIDs = append(subjectIDs, id)
	}
	sort.Slice(subjectIDs, func(i, j int) bool { return subjectIDs[i] < subjectIDs[j] })

	results := make([][]factmodel.Row, len(subjectIDs))

	p := pool.New().WithMaxGoroutines(maxWorkers)
	for i, id := range subjectIDs {
		i, id := i, id
		p.Go(func() {
			sub := BuildFromFlatFacts(partitions[id], header, index)
			results[i] = sub.Rows
		})
	}
	p.Wait()

	out := &factmodel.Bundle{Header: header, Index: index, Rows: make([]factmodel.Row, 0, len(flatFacts))}
	for _, rows := range results {
		out.Rows = append(out.Rows, rows...)
	}

	return out
}

// partitionBySubject splits an already (subject_id, date)-sorted flat-fact
// sequence into per-subject slices, preserving within-subject order.
func partitionBySubject(flatFacts []factmodel.FlatFact) map[int64][]factmodel.FlatFact {
	out := make(map[int64][]factmodel.FlatFact)
	for _, ff := range flatFacts {
		out[ff.SubjectID] = append(out[ff.SubjectID], ff)
	}
	return out
}
