// Package testutil provides shared helpers for tests: deterministic
// synthetic loan datasets and pre-migrated staging stores.
package testutil

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/fenwick/hindsight/internal/bands"
	"github.com/fenwick/hindsight/internal/model"
)

// DatasetBuilder generates synthetic applications whose outcomes follow a
// fixed underwriting rule, so a fitted model separates them cleanly. A
// configurable fraction of outcomes is flipped afterwards; flipped records
// are exactly the disagreements an audit should surface.
//
// Example:
//
//	apps := testutil.NewDatasetBuilder(7).
//		WithRows(400).
//		WithNoise(0.05).
//		Build(t)
type DatasetBuilder struct {
	seed  int64
	rows  int
	noise float64
}

// NewDatasetBuilder creates a builder. The same seed always yields the same
// dataset.
func NewDatasetBuilder(seed int64) *DatasetBuilder {
	return &DatasetBuilder{seed: seed, rows: 100}
}

// WithRows sets how many applications to generate.
func (b *DatasetBuilder) WithRows(n int) *DatasetBuilder {
	b.rows = n
	return b
}

// WithNoise flips the given fraction of outcomes after the underwriting rule
// has decided them.
func (b *DatasetBuilder) WithNoise(fraction float64) *DatasetBuilder {
	b.noise = fraction
	return b
}

// Build generates the dataset with bands derived. Every generated field sits
// inside the validated domains, so derivation failing is a test bug.
func (b *DatasetBuilder) Build(t *testing.T) []model.BandedApplication {
	t.Helper()

	rng := rand.New(rand.NewSource(b.seed))
	apps := make([]model.BandedApplication, b.rows)
	for i := range apps {
		loan := model.LoanApplication{
			ApplicationID:   fmt.Sprintf("app-%04d", i+1),
			CreditScore:     300 + rng.Intn(551),
			AnnualIncome:    15_000 + rng.Float64()*135_000,
			LoanAmount:      1_000 + rng.Float64()*79_000,
			TermMonths:      []int{12, 36, 60, 84}[rng.Intn(4)],
			DebtToIncome:    rng.Float64() * 0.6,
			PaymentToIncome: rng.Float64() * 0.4,
		}
		loan.Approved = b.decide(loan, rng)

		derived, err := bands.Derive(loan)
		if err != nil {
			t.Fatalf("failed to derive bands for %s: %v", loan.ApplicationID, err)
		}
		apps[i] = model.BandedApplication{LoanApplication: loan, Bands: derived}
	}
	return apps
}

// decide is the synthetic lender's rule: a linear score over the continuous
// fields, approved when positive.
func (b *DatasetBuilder) decide(loan model.LoanApplication, rng *rand.Rand) bool {
	score := (float64(loan.CreditScore) - 575) / 275
	score += (loan.AnnualIncome - 82_500) / 67_500
	score -= 2 * loan.DebtToIncome
	score -= loan.PaymentToIncome

	approved := score > 0
	if rng.Float64() < b.noise {
		approved = !approved
	}
	return approved
}
