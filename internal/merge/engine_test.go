package merge

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hedgineer/secmaster/internal/factmodel"
	"github.com/hedgineer/secmaster/internal/master"
	"github.com/hedgineer/secmaster/internal/testutil/scenarios"
)

func valueComparer() cmp.Option {
	return cmp.Comparer(func(x, y factmodel.Value) bool { return x.Equal(y) })
}

func baseBundle() *factmodel.Bundle {
	return master.Build(scenarios.S1Facts(), scenarios.Priority())
}

// S2: insert-before subject 1's first interval, carrying new sector,
// industry and market_cap values forward via cascade.
func TestMergeInsertBeforeCascades(t *testing.T) {
	sm := baseBundle()

	update := []factmodel.Fact{
		{SubjectID: 1, Attribute: "gics_sector", Value: factmodel.NewString("new_a"), EffectiveDate: scenarios.MustDate("01/01/23")},
		{SubjectID: 1, Attribute: "gics_industry", Value: factmodel.NewString("new_b"), EffectiveDate: scenarios.MustDate("01/01/23")},
		{SubjectID: 1, Attribute: "market_cap", Value: factmodel.NewInt(100), EffectiveDate: scenarios.MustDate("01/01/23")},
	}
	MergeBatch(sm, update, scenarios.Priority())

	subject1 := subjectRows(sm, 1)
	if len(subject1) != 4 {
		t.Fatalf("len(subject1) = %d, want 4 (new head + original three)", len(subject1))
	}

	sectorIdx := sm.Index["gics_sector"]
	industryIdx := sm.Index["gics_industry"]
	marketCapIdx := sm.Index["market_cap"]

	// new head row carries the asserted values.
	if got := sm.EffectiveStart(subject1[0]).Format(factmodel.DateLayout); got != "01/01/23" {
		t.Errorf("new head start = %s, want 01/01/23", got)
	}
	if got := sm.EffectiveEnd(subject1[0]).D.Format(factmodel.DateLayout); got != "01/01/24" {
		t.Errorf("new head end = %s, want 01/01/24 (old head's start)", got)
	}
	if got := subject1[0][sectorIdx].S; got != "new_a" {
		t.Errorf("new head sector = %q, want new_a", got)
	}
	if got := subject1[0][marketCapIdx].I; got != 100 {
		t.Errorf("new head market_cap = %v, want 100", got)
	}

	// cascade fills the previously-null market_cap on the next two
	// intervals (prior old_value was null)...
	if got := subject1[1][marketCapIdx].I; got != 100 {
		t.Errorf("subject1[1] market_cap = %v, want 100 (cascaded)", got)
	}
	if got := subject1[2][marketCapIdx].I; got != 100 {
		t.Errorf("subject1[2] market_cap = %v, want 100 (cascaded)", got)
	}
	// ...but never overwrites the pre-existing 400 on the last interval,
	// since old_value there was captured post-apply as 100 (pre-applied
	// head row), not healthcare/null, so the third interval's non-null
	// 400 doesn't match and stops propagation.
	if got := subject1[3][marketCapIdx].I; got != 400 {
		t.Errorf("subject1[3] market_cap = %v, want 400 (unchanged)", got)
	}

	// sector/industry were pre-applied to the new head row before
	// diffing, so old_value == new_value there; later rows keep their
	// original healthcare/biotechnology values untouched.
	for i := 1; i < 4; i++ {
		if got := subject1[i][sectorIdx].S; got != "healthcare" {
			t.Errorf("subject1[%d] sector = %q, want healthcare (not cascaded)", i, got)
		}
		if got := subject1[i][industryIdx].S; got != "biotechnology" {
			t.Errorf("subject1[%d] industry = %q, want biotechnology (not cascaded)", i, got)
		}
	}
}

// S3: mid-interval split of subject 1's first interval. Unlike
// insert-before, the split clone retains the pre-split attribute values
// when diffs are captured, so cascade's own first iteration performs the
// clone's write and then keeps propagating into later rows that still
// hold the original (pre-split) value.
func TestMergeSplitRowCascades(t *testing.T) {
	sm := baseBundle()

	update := []factmodel.Fact{
		{SubjectID: 1, Attribute: "gics_sector", Value: factmodel.NewString("new_a"), EffectiveDate: scenarios.MustDate("03/01/24")},
		{SubjectID: 1, Attribute: "gics_industry", Value: factmodel.NewString("new_b"), EffectiveDate: scenarios.MustDate("03/01/24")},
		{SubjectID: 1, Attribute: "market_cap", Value: factmodel.NewInt(100), EffectiveDate: scenarios.MustDate("03/01/24")},
	}
	MergeBatch(sm, update, scenarios.Priority())

	subject1 := subjectRows(sm, 1)
	if len(subject1) != 4 {
		t.Fatalf("len(subject1) = %d, want 4 (original split into two + original two)", len(subject1))
	}

	sectorIdx := sm.Index["gics_sector"]
	industryIdx := sm.Index["gics_industry"]
	marketCapIdx := sm.Index["market_cap"]

	if got := sm.EffectiveEnd(subject1[0]).D.Format(factmodel.DateLayout); got != "03/01/24" {
		t.Errorf("original interval end = %s, want 03/01/24", got)
	}
	if got := sm.EffectiveStart(subject1[1]).Format(factmodel.DateLayout); got != "03/01/24" {
		t.Errorf("split clone start = %s, want 03/01/24", got)
	}
	if got := sm.EffectiveEnd(subject1[1]).D.Format(factmodel.DateLayout); got != "03/22/24" {
		t.Errorf("split clone end = %s, want 03/22/24 (original interval's old end)", got)
	}

	// the split clone itself gets the asserted values via cascade's own
	// first iteration.
	if got := subject1[1][sectorIdx].S; got != "new_a" {
		t.Errorf("split clone sector = %q, want new_a", got)
	}
	if got := subject1[1][marketCapIdx].I; got != 100 {
		t.Errorf("split clone market_cap = %v, want 100", got)
	}

	// sector/industry cascade into the following two intervals, since
	// they still held the original healthcare/biotechnology value the
	// diff was captured against.
	if got := subject1[2][sectorIdx].S; got != "new_a" {
		t.Errorf("subject1[2] sector = %q, want new_a (cascaded)", got)
	}
	if got := subject1[2][industryIdx].S; got != "new_b" {
		t.Errorf("subject1[2] industry = %q, want new_b (cascaded)", got)
	}
	if got := subject1[3][sectorIdx].S; got != "new_a" {
		t.Errorf("subject1[3] sector = %q, want new_a (cascaded)", got)
	}

	// market_cap cascades into the (previously null) second interval but
	// stops at the third, which already held a non-null, non-matching
	// 400.
	if got := subject1[2][marketCapIdx].I; got != 100 {
		t.Errorf("subject1[2] market_cap = %v, want 100 (cascaded from null)", got)
	}
	if got := subject1[3][marketCapIdx].I; got != 400 {
		t.Errorf("subject1[3] market_cap = %v, want 400 (unchanged)", got)
	}
}

// S4: exact-hit merge onto an existing interval start date, introducing a
// brand new attribute the header has never seen before.
func TestMergeExactHitExpandsHeaderAndCascades(t *testing.T) {
	sm := baseBundle()

	update := []factmodel.Fact{
		{SubjectID: 1, Attribute: "country", Value: factmodel.NewString("US"), EffectiveDate: scenarios.MustDate("03/22/24")},
	}
	MergeBatch(sm, update, scenarios.Priority())

	countryIdx, ok := sm.Index["country"]
	if !ok {
		t.Fatal("header was not expanded with new column country")
	}

	subject1 := subjectRows(sm, 1)
	if len(subject1) != 3 {
		t.Fatalf("len(subject1) = %d, want 3 (exact-hit doesn't add a row)", len(subject1))
	}

	if got := subject1[0][countryIdx]; !got.IsNull() {
		t.Errorf("subject1[0] country = %v, want null (before the exact-hit row)", got)
	}
	if got := subject1[1][countryIdx].S; got != "US" {
		t.Errorf("subject1[1] country = %q, want US", got)
	}
	// cascades forward since the next row was also null.
	if got := subject1[2][countryIdx].S; got != "US" {
		t.Errorf("subject1[2] country = %q, want US (cascaded from null)", got)
	}

	// subject 2's rows are padded with null in the new column and
	// otherwise untouched.
	subject2 := subjectRows(sm, 2)
	for i, row := range subject2 {
		if got := row[countryIdx]; !got.IsNull() {
			t.Errorf("subject2[%d] country = %v, want null", i, got)
		}
	}
}

// S5: after-tail insert opens a brand new open interval; there is no
// cascade because the new row IS the tail.
func TestMergeInsertAfterOpensNewTail(t *testing.T) {
	sm := baseBundle()

	update := []factmodel.Fact{
		{SubjectID: 1, Attribute: "ticker", Value: factmodel.NewString("LNZA"), EffectiveDate: scenarios.MustDate("09/01/24")},
	}
	MergeBatch(sm, update, scenarios.Priority())

	subject1 := subjectRows(sm, 1)
	if len(subject1) != 4 {
		t.Fatalf("len(subject1) = %d, want 4", len(subject1))
	}

	if got := sm.EffectiveEnd(subject1[2]).D.Format(factmodel.DateLayout); got != "09/01/24" {
		t.Errorf("old tail end = %s, want 09/01/24 (closed by the new insert)", got)
	}
	if got := sm.EffectiveStart(subject1[3]).Format(factmodel.DateLayout); got != "09/01/24" {
		t.Errorf("new tail start = %s, want 09/01/24", got)
	}
	if !sm.EffectiveEnd(subject1[3]).IsNull() {
		t.Error("new tail end should be open (null)")
	}

	tickerIdx := sm.Index["ticker"]
	if got := subject1[3][tickerIdx].S; got != "LNZA" {
		t.Errorf("new tail ticker = %q, want LNZA", got)
	}
	// carried-forward attributes the new row didn't touch.
	nameIdx := sm.Index["name"]
	if got := subject1[3][nameIdx].S; got != "Lenz Therapeutics, Inc" {
		t.Errorf("new tail name = %q, want carried forward", got)
	}
}

// P3: incremental merge equivalence — merging a second fact batch onto a
// bundle built from the first batch must agree with building the union of
// both batches from scratch, up to row/column ordering.
func TestMergeEquivalentToFullRebuild(t *testing.T) {
	priority := scenarios.Priority()
	base := scenarios.S1Facts()

	update := []factmodel.Fact{
		{SubjectID: 1, Attribute: "country", Value: factmodel.NewString("US"), EffectiveDate: scenarios.MustDate("03/22/24")},
		{SubjectID: 2, Attribute: "ticker", Value: factmodel.NewString("VV"), EffectiveDate: scenarios.MustDate("09/01/24")},
	}

	incremental := master.Build(base, priority)
	MergeBatch(incremental, update, priority)

	rebuilt := master.Build(append(append([]factmodel.Fact{}, base...), update...), priority)

	if diff := cmp.Diff(rebuilt.Header, incremental.Header); diff != "" {
		t.Errorf("header differs (-rebuilt +incremental):\n%s", diff)
	}
	if diff := cmp.Diff(rebuilt.Rows, incremental.Rows, valueComparer()); diff != "" {
		t.Errorf("rows differ (-rebuilt +incremental):\n%s", diff)
	}
}

// TestMergeBatchReportsCaseNames exercises the onCase hook against one
// fact each from three of the five topological cases (before, after,
// empty).
func TestMergeBatchReportsCaseNames(t *testing.T) {
	sm := baseBundle()

	update := []factmodel.Fact{
		{SubjectID: 1, Attribute: "gics_sector", Value: factmodel.NewString("new_a"), EffectiveDate: scenarios.MustDate("01/01/23")},
		{SubjectID: 1, Attribute: "market_cap", Value: factmodel.NewInt(999), EffectiveDate: scenarios.MustDate("12/31/24")},
		{SubjectID: 99, Attribute: "ticker", Value: factmodel.NewString("NEW"), EffectiveDate: scenarios.MustDate("06/01/24")},
	}

	var cases []string
	MergeBatch(sm, update, scenarios.Priority(), func(ff factmodel.FlatFact, caseName string) {
		cases = append(cases, caseName)
	})

	if len(cases) != len(update) {
		t.Fatalf("len(cases) = %d, want %d", len(cases), len(update))
	}
	want := map[string]bool{"before": true, "after": true, "empty": true}
	for _, c := range cases {
		if !want[c] {
			t.Errorf("unexpected case name %q", c)
		}
	}
}

func subjectRows(sm *factmodel.Bundle, subjectID int64) []factmodel.Row {
	var out []factmodel.Row
	for _, row := range sm.Rows {
		if sm.SubjectID(row) == subjectID {
			out = append(out, row)
		}
	}
	return out
}
