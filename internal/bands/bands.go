// Package bands derives the categorical bands used as model features and
// reporting segments from an application's continuous fields.
//
// Every band interval is closed on the left and open on the right: a value
// equal to a breakpoint belongs to the band that starts at it. The last band
// of each group is unbounded above. Derivation is total over the validated
// field domains and fails explicitly (model.ErrOutOfDomain) for anything
// outside them; there is no catch-all "unknown" band.
package bands

import (
	"fmt"

	"github.com/fenwick/hindsight/internal/model"
)

// Breakpoints between adjacent bands. Band i covers [break[i-1], break[i])
// with the group's domain floor standing in for break[-1].
var (
	riskBreaks   = []int{580, 660, 740}
	incomeBreaks = []float64{30_000, 60_000, 100_000}
	amountBreaks = []float64{5_000, 15_000, 35_000}
	termBreaks   = []int{24, 48, 72}
)

// Risk maps a credit score to its risk band.
// Intervals: [300,580) [580,660) [660,740) [740,850].
func Risk(creditScore int) (model.RiskBand, error) {
	if creditScore < model.MinCreditScore || creditScore > model.MaxCreditScore {
		return "", fmt.Errorf("%w: credit_score %d outside [%d, %d]",
			model.ErrOutOfDomain, creditScore, model.MinCreditScore, model.MaxCreditScore)
	}
	return model.RiskBands[bandIndex(riskBreaks, creditScore)], nil
}

// Income maps an annual income to its income band.
// Intervals: [0,30000) [30000,60000) [60000,100000) [100000,inf).
func Income(annualIncome float64) (model.IncomeBand, error) {
	if annualIncome < 0 {
		return "", fmt.Errorf("%w: annual_income %.2f is negative", model.ErrOutOfDomain, annualIncome)
	}
	return model.IncomeBands[bandIndex(incomeBreaks, annualIncome)], nil
}

// Amount maps a requested loan amount to its amount band.
// Intervals: (0,5000) [5000,15000) [15000,35000) [35000,inf).
func Amount(loanAmount float64) (model.AmountBand, error) {
	if loanAmount <= 0 {
		return "", fmt.Errorf("%w: loan_amount %.2f must be positive", model.ErrOutOfDomain, loanAmount)
	}
	return model.AmountBands[bandIndex(amountBreaks, loanAmount)], nil
}

// Term maps a loan duration in months to its term band.
// Intervals: [1,24) [24,48) [48,72) [72,inf).
func Term(termMonths int) (model.TermBand, error) {
	if termMonths < 1 {
		return "", fmt.Errorf("%w: term_months %d must be at least 1", model.ErrOutOfDomain, termMonths)
	}
	return model.TermBands[bandIndex(termBreaks, termMonths)], nil
}

// Derive computes all four bands for an application. The first out-of-domain
// field aborts the derivation; callers treat that as a per-record domain
// error, not a run failure.
func Derive(app model.LoanApplication) (model.Bands, error) {
	risk, err := Risk(app.CreditScore)
	if err != nil {
		return model.Bands{}, err
	}
	income, err := Income(app.AnnualIncome)
	if err != nil {
		return model.Bands{}, err
	}
	amount, err := Amount(app.LoanAmount)
	if err != nil {
		return model.Bands{}, err
	}
	term, err := Term(app.TermMonths)
	if err != nil {
		return model.Bands{}, err
	}
	return model.Bands{Risk: risk, Income: income, Amount: amount, Term: term}, nil
}

// bandIndex returns the number of breakpoints at or below v, which is the
// index of v's band under left-closed intervals. Monotone in v.
func bandIndex[T int | float64](breaks []T, v T) int {
	idx := 0
	for _, b := range breaks {
		if v >= b {
			idx++
		}
	}
	return idx
}
