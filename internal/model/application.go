// Package model defines the core domain models used throughout the application.
package model

import (
	"errors"
	"fmt"
)

// Credit score bounds for the supported scoring model.
const (
	MinCreditScore = 300
	MaxCreditScore = 850
)

// ErrOutOfDomain indicates a field value outside its documented domain.
// Records carrying such values are excluded from fitting, scoring and
// aggregates rather than silently defaulted.
var ErrOutOfDomain = errors.New("value out of domain")

// LoanApplication is one historical loan decision: the applicant's risk and
// affordability fields plus the recorded outcome. Records are immutable once
// loaded.
type LoanApplication struct {
	ApplicationID   string
	CreditScore     int
	AnnualIncome    float64
	LoanAmount      float64
	TermMonths      int
	DebtToIncome    float64
	PaymentToIncome float64
	Approved        bool
}

// EffectiveID returns the explicit application id, or a positional id
// synthesized from the 1-based data row when the source had none.
func (a *LoanApplication) EffectiveID(row int) string {
	if a.ApplicationID != "" {
		return a.ApplicationID
	}
	return fmt.Sprintf("row-%d", row)
}

// Validate checks every field against its documented domain and returns the
// first violation wrapped in ErrOutOfDomain.
func (a *LoanApplication) Validate() error {
	if a.CreditScore < MinCreditScore || a.CreditScore > MaxCreditScore {
		return fmt.Errorf("%w: credit_score %d outside [%d, %d]", ErrOutOfDomain, a.CreditScore, MinCreditScore, MaxCreditScore)
	}
	if a.AnnualIncome < 0 {
		return fmt.Errorf("%w: annual_income %.2f is negative", ErrOutOfDomain, a.AnnualIncome)
	}
	if a.LoanAmount <= 0 {
		return fmt.Errorf("%w: loan_amount %.2f must be positive", ErrOutOfDomain, a.LoanAmount)
	}
	if a.TermMonths < 1 {
		return fmt.Errorf("%w: term_months %d must be at least 1", ErrOutOfDomain, a.TermMonths)
	}
	if a.DebtToIncome < 0 || a.DebtToIncome > 1 {
		return fmt.Errorf("%w: debt_to_income %.4f outside [0, 1]", ErrOutOfDomain, a.DebtToIncome)
	}
	if a.PaymentToIncome < 0 || a.PaymentToIncome > 1 {
		return fmt.Errorf("%w: payment_to_income %.4f outside [0, 1]", ErrOutOfDomain, a.PaymentToIncome)
	}
	return nil
}
