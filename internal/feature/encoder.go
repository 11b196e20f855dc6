// Package feature turns banded applications into numeric vectors for model
// fitting. Continuous fields are z-score standardized; bands are one-hot
// encoded over the levels seen during fitting. Both the standardization
// parameters and the category vocabulary come from the training split only,
// so hold-out rows are encoded exactly as unseen data would be.
package feature

import (
	"errors"
	"fmt"
	"math"

	"github.com/fenwick/hindsight/internal/common"
	"github.com/fenwick/hindsight/internal/model"
)

// ErrUnseenCategory means a record carries a band level the encoder never saw
// during fitting. Bands derived in-process cannot trigger it; band columns
// pulled back from a staging store can.
var ErrUnseenCategory = errors.New("category not seen during fitting")

// Continuous field names, in vector order.
var continuousNames = []string{
	"credit_score",
	"annual_income",
	"loan_amount",
	"term_months",
	"debt_to_income",
	"payment_to_income",
}

type fieldStats struct {
	mean float64
	std  float64
}

// Encoder maps banded applications to fixed-width feature vectors. Fit it
// once on the training split, then use Vector for every row.
type Encoder struct {
	riskIndex   map[model.RiskBand]int
	incomeIndex map[model.IncomeBand]int
	amountIndex map[model.AmountBand]int
	termIndex   map[model.TermBand]int
	stats       []fieldStats
	names       []string
	width       int
}

// Fit computes standardization parameters and the band vocabulary from the
// training split. The vector layout is deterministic: continuous fields
// first, then one-hot levels in each band group's canonical order.
func Fit(apps []model.BandedApplication) (*Encoder, error) {
	if len(apps) == 0 {
		return nil, fmt.Errorf("%w: cannot fit encoder without training rows", common.ErrEmptyDataset)
	}

	e := &Encoder{
		stats: make([]fieldStats, len(continuousNames)),
		names: append([]string(nil), continuousNames...),
	}

	// Standardization parameters.
	n := float64(len(apps))
	for _, app := range apps {
		for i, v := range continuousValues(app.LoanApplication) {
			e.stats[i].mean += v
		}
	}
	for i := range e.stats {
		e.stats[i].mean /= n
	}
	for _, app := range apps {
		for i, v := range continuousValues(app.LoanApplication) {
			d := v - e.stats[i].mean
			e.stats[i].std += d * d
		}
	}
	for i := range e.stats {
		e.stats[i].std = math.Sqrt(e.stats[i].std / n)
		// A constant column carries no signal; encode it to zero rather
		// than dividing by zero.
		if e.stats[i].std == 0 {
			e.stats[i].std = 1
		}
	}

	// Band vocabulary, restricted to levels the training split contains.
	seenRisk := make(map[model.RiskBand]bool)
	seenIncome := make(map[model.IncomeBand]bool)
	seenAmount := make(map[model.AmountBand]bool)
	seenTerm := make(map[model.TermBand]bool)
	for _, app := range apps {
		seenRisk[app.Bands.Risk] = true
		seenIncome[app.Bands.Income] = true
		seenAmount[app.Bands.Amount] = true
		seenTerm[app.Bands.Term] = true
	}

	offset := len(continuousNames)
	e.riskIndex = make(map[model.RiskBand]int)
	for _, b := range model.RiskBands {
		if seenRisk[b] {
			e.riskIndex[b] = offset
			e.names = append(e.names, "risk_band="+string(b))
			offset++
		}
	}
	e.incomeIndex = make(map[model.IncomeBand]int)
	for _, b := range model.IncomeBands {
		if seenIncome[b] {
			e.incomeIndex[b] = offset
			e.names = append(e.names, "income_band="+string(b))
			offset++
		}
	}
	e.amountIndex = make(map[model.AmountBand]int)
	for _, b := range model.AmountBands {
		if seenAmount[b] {
			e.amountIndex[b] = offset
			e.names = append(e.names, "amount_band="+string(b))
			offset++
		}
	}
	e.termIndex = make(map[model.TermBand]int)
	for _, b := range model.TermBands {
		if seenTerm[b] {
			e.termIndex[b] = offset
			e.names = append(e.names, "term_band="+string(b))
			offset++
		}
	}
	e.width = offset

	return e, nil
}

// Vector encodes one application. It fails with ErrUnseenCategory if any band
// level was absent from the training split.
func (e *Encoder) Vector(app model.BandedApplication) ([]float64, error) {
	x := make([]float64, e.width)
	for i, v := range continuousValues(app.LoanApplication) {
		x[i] = (v - e.stats[i].mean) / e.stats[i].std
	}

	idx, ok := e.riskIndex[app.Bands.Risk]
	if !ok {
		return nil, fmt.Errorf("%w: risk_band=%s", ErrUnseenCategory, app.Bands.Risk)
	}
	x[idx] = 1

	idx, ok = e.incomeIndex[app.Bands.Income]
	if !ok {
		return nil, fmt.Errorf("%w: income_band=%s", ErrUnseenCategory, app.Bands.Income)
	}
	x[idx] = 1

	idx, ok = e.amountIndex[app.Bands.Amount]
	if !ok {
		return nil, fmt.Errorf("%w: amount_band=%s", ErrUnseenCategory, app.Bands.Amount)
	}
	x[idx] = 1

	idx, ok = e.termIndex[app.Bands.Term]
	if !ok {
		return nil, fmt.Errorf("%w: term_band=%s", ErrUnseenCategory, app.Bands.Term)
	}
	x[idx] = 1

	return x, nil
}

// Width returns the encoded vector length.
func (e *Encoder) Width() int {
	return e.width
}

// FeatureNames returns a label per vector position, for weight diagnostics.
func (e *Encoder) FeatureNames() []string {
	return append([]string(nil), e.names...)
}

func continuousValues(app model.LoanApplication) []float64 {
	return []float64{
		float64(app.CreditScore),
		app.AnnualIncome,
		app.LoanAmount,
		float64(app.TermMonths),
		app.DebtToIncome,
		app.PaymentToIncome,
	}
}
