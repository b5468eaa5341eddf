package master

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hedgineer/secmaster/internal/factmodel"
	"github.com/hedgineer/secmaster/internal/testutil/scenarios"
)

func TestBuildS1(t *testing.T) {
	sm := Build(scenarios.S1Facts(), scenarios.Priority())

	if len(sm.Rows) != 6 {
		t.Fatalf("len(Rows) = %d, want 6 (three intervals each for two subjects)", len(sm.Rows))
	}

	subject1 := sm.Rows[0:3]
	wantStarts1 := []string{"01/01/24", "03/22/24", "05/23/24"}
	wantEnds1 := []string{"03/22/24", "05/23/24", ""}
	for i, row := range subject1 {
		if got := sm.EffectiveStart(row).Format(factmodel.DateLayout); got != wantStarts1[i] {
			t.Errorf("subject 1 row %d start = %s, want %s", i, got, wantStarts1[i])
		}
		end := sm.EffectiveEnd(row)
		if wantEnds1[i] == "" {
			if !end.IsNull() {
				t.Errorf("subject 1 row %d end = %s, want open", i, end)
			}
		} else if got := end.D.Format(factmodel.DateLayout); got != wantEnds1[i] {
			t.Errorf("subject 1 row %d end = %s, want %s", i, got, wantEnds1[i])
		}
	}

	// I5 carry-forward: market_cap is null on the first two intervals,
	// then set on the third.
	marketCapIdx := sm.Index["market_cap"]
	if !subject1[0][marketCapIdx].IsNull() || !subject1[1][marketCapIdx].IsNull() {
		t.Error("market_cap should carry forward as null on subject 1's first two intervals")
	}
	if got := subject1[2][marketCapIdx]; got.I != 400 {
		t.Errorf("subject 1 third interval market_cap = %v, want 400", got)
	}

	// name carries from Graphite bio -> Lenz Therapeutics at 03/22/24.
	nameIdx := sm.Index["name"]
	if got := subject1[0][nameIdx].S; got != "Graphite bio" {
		t.Errorf("subject 1 first interval name = %q, want Graphite bio", got)
	}
	if got := subject1[1][nameIdx].S; got != "Lenz Therapeutics, Inc" {
		t.Errorf("subject 1 second interval name = %q, want Lenz Therapeutics, Inc", got)
	}
	if got := subject1[2][nameIdx].S; got != "Lenz Therapeutics, Inc" {
		t.Errorf("subject 1 third interval name should carry forward, got %q", got)
	}

	subject2 := sm.Rows[3:6]
	wantStarts2 := []string{"01/01/23", "03/17/23", "05/23/24"}
	for i, row := range subject2 {
		if got := sm.EffectiveStart(row).Format(factmodel.DateLayout); got != wantStarts2[i] {
			t.Errorf("subject 2 row %d start = %s, want %s", i, got, wantStarts2[i])
		}
	}
	sectorIdx := sm.Index["gics_sector"]
	if got := subject2[0][sectorIdx].S; got != "technology" {
		t.Errorf("subject 2 first interval sector = %q, want technology", got)
	}
	if got := subject2[1][sectorIdx].S; got != "financials" {
		t.Errorf("subject 2 second interval sector = %q, want financials", got)
	}
}

func TestBuildDeterministicUnderPermutation(t *testing.T) {
	facts := scenarios.S1Facts()
	permuted := make([]factmodel.Fact, len(facts))
	// reverse order, a simple permutation.
	for i, f := range facts {
		permuted[len(facts)-1-i] = f
	}

	a := Build(facts, scenarios.Priority())
	b := Build(permuted, scenarios.Priority())

	if diff := cmp.Diff(a.Header, b.Header); diff != "" {
		t.Errorf("header differs under permutation (-a +b):\n%s", diff)
	}
	if diff := cmp.Diff(a.Rows, b.Rows, cmp.Comparer(func(x, y factmodel.Value) bool { return x.Equal(y) })); diff != "" {
		t.Errorf("rows differ under permutation (-a +b):\n%s", diff)
	}
}

func TestBuildParallelMatchesSequential(t *testing.T) {
	facts := scenarios.S1Facts()

	seq := Build(facts, scenarios.Priority())
	par := BuildParallel(facts, scenarios.Priority(), 4)

	if diff := cmp.Diff(seq.Header, par.Header); diff != "" {
		t.Errorf("header differs (-seq +par):\n%s", diff)
	}
	if diff := cmp.Diff(seq.Rows, par.Rows, cmp.Comparer(func(x, y factmodel.Value) bool { return x.Equal(y) })); diff != "" {
		t.Errorf("rows differ (-seq +par):\n%s", diff)
	}
}
