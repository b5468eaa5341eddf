// Package demo generates a synthetic fact trail and positions table for
// the CLI's --generate flag, reproducing the shape of the reference
// implementation's fixed audit trail and positions table with randomized
// values instead of a literal fixture.
package demo

import (
	"math/rand"
	"time"

	"github.com/hedgineer/secmaster/internal/factmodel"
)

var mockAttributes = map[string][]string{
	"asset_class":   {"equity", "bond", "etf"},
	"ticker":        {"GRPH", "LENZ", "V", "ACME", "NVX"},
	"name":          {"Graphite bio", "Lenz Therapeutics, Inc", "Visa Inc", "Acme Corp", "Nova Exchange"},
	"gics_sector":   {"healthcare", "technology", "financials", "energy"},
	"gics_industry": {"biotechnology", "software", "banking", "oil & gas"},
}

var marketCapPool = []int64{100, 400, 549000, 12000, 87500}

// DefaultWindow is the effective-date range `secmaster --generate` samples
// from when the caller doesn't ask for a narrower one.
func DefaultWindow() (time.Time, time.Time) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	return start, end
}

// GenerateFacts produces n random facts with subject_ids in [0, subjects)
// and effective dates uniformly distributed in [start, end), matching the
// reference generator's attribute pool and date range (§4.11).
func GenerateFacts(rng *rand.Rand, n, subjects int, start, end time.Time) []factmodel.Fact {
	attrNames := make([]string, 0, len(mockAttributes)+1)
	for name := range mockAttributes {
		attrNames = append(attrNames, name)
	}

	facts := make([]factmodel.Fact, n)
	for i := 0; i < n; i++ {
		attr := attrNames[rng.Intn(len(attrNames))]
		if rng.Intn(len(mockAttributes)+1) == len(mockAttributes) {
			attr = "market_cap"
		}

		facts[i] = factmodel.Fact{
			SubjectID:     int64(rng.Intn(subjects)),
			Attribute:     attr,
			Value:         randomAttributeValue(rng, attr),
			EffectiveDate: randomDay(rng, start, end),
		}
	}
	return facts
}

// GeneratePositions produces n random positions against subject_ids in
// [0, subjects), dated within [start, end).
func GeneratePositions(rng *rand.Rand, n, subjects int, start, end time.Time) []factmodel.Position {
	positions := make([]factmodel.Position, n)
	for i := 0; i < n; i++ {
		positions[i] = factmodel.Position{
			SubjectID: int64(rng.Intn(subjects)),
			Quantity:  float64(rng.Intn(1000)),
			AsOfDate:  randomDay(rng, start, end),
		}
	}
	return positions
}

func randomAttributeValue(rng *rand.Rand, attr string) factmodel.Value {
	if attr == "market_cap" {
		return factmodel.NewInt(marketCapPool[rng.Intn(len(marketCapPool))])
	}
	pool := mockAttributes[attr]
	return factmodel.NewString(pool[rng.Intn(len(pool))])
}

func randomDay(rng *rand.Rand, start, end time.Time) time.Time {
	days := int(end.Sub(start).Hours() / 24)
	if days <= 0 {
		return start
	}
	return start.AddDate(0, 0, rng.Intn(days))
}
