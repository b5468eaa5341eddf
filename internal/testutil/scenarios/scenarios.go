// Package scenarios provides the S1 fact trail and the S6 positions from
// spec.md §8 as reusable fixtures for package tests; the S2-S5 merge
// updates are written inline in the merge tests.
package scenarios

import (
	"time"

	"github.com/hedgineer/secmaster/internal/factmodel"
)

// MustDate parses a MM/DD/YY date, panicking on failure; only ever called
// with literal constants in this package, so a parse failure means a typo
// in a test fixture, not a runtime condition to recover from.
func MustDate(s string) time.Time {
	d, err := time.Parse(factmodel.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

// Priority is the attribute priority map used by every S1-S6 scenario.
func Priority() factmodel.AttributePriority {
	return factmodel.AttributePriority{
		factmodel.ColSubjectID:     0,
		factmodel.ColEffectiveFrom: 1,
		factmodel.ColEffectiveTo:   2,
		"asset_class":              3,
		"ticker":                   4,
		"name":                     5,
	}
}

func fact(subjectID int64, attribute string, value factmodel.Value, date string) factmodel.Fact {
	return factmodel.Fact{SubjectID: subjectID, Attribute: attribute, Value: value, EffectiveDate: MustDate(date)}
}

// S1Facts is the two-subject base build fact trail from spec.md §8.
func S1Facts() []factmodel.Fact {
	return []factmodel.Fact{
		fact(1, "ticker", factmodel.NewString("LENZ"), "03/22/24"),
		fact(1, "gics_sector", factmodel.NewString("healthcare"), "01/01/24"),
		fact(1, "ticker", factmodel.NewString("GRPH"), "01/01/24"),
		fact(1, "name", factmodel.NewString("Lenz Therapeutics, Inc"), "03/22/24"),
		fact(1, "gics_industry", factmodel.NewString("biotechnology"), "01/01/24"),
		fact(1, "asset_class", factmodel.NewString("equity"), "01/01/24"),
		fact(1, "name", factmodel.NewString("Graphite bio"), "01/01/24"),
		fact(1, "market_cap", factmodel.NewInt(400), "05/23/24"),
		fact(2, "ticker", factmodel.NewString("V"), "01/01/23"),
		fact(2, "gics_sector", factmodel.NewString("technology"), "01/01/23"),
		fact(2, "gics_sector", factmodel.NewString("financials"), "03/17/23"),
		fact(2, "market_cap", factmodel.NewInt(549000), "05/23/24"),
	}
}

// S6Positions is the positions table used by the S6 join scenario.
func S6Positions() []factmodel.Position {
	return []factmodel.Position{
		{SubjectID: 1, Quantity: 100, AsOfDate: MustDate("02/01/24")},
	}
}
