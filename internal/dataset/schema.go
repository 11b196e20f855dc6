// Package dataset loads and writes delimited application files.
//
// Input files must carry every column in RequiredColumns; application_id is
// optional and filled with a positional fallback when absent. Scored exports
// append the derived band columns, the predicted probability and the
// exception tag to the input schema.
package dataset

// Column names recognized in application files.
const (
	ColApplicationID   = "application_id"
	ColCreditScore     = "credit_score"
	ColAnnualIncome    = "annual_income"
	ColLoanAmount      = "loan_amount"
	ColTermMonths      = "term_months"
	ColDebtToIncome    = "debt_to_income"
	ColPaymentToIncome = "payment_to_income"
	ColApproved        = "approved"
)

// Columns added by scoring.
const (
	ColRiskBand    = "risk_band"
	ColIncomeBand  = "income_band"
	ColAmountBand  = "amount_band"
	ColTermBand    = "term_band"
	ColProbability = "probability"
	ColException   = "exception"
)

// RequiredColumns returns the columns every input file must carry, in
// canonical order.
func RequiredColumns() []string {
	return []string{
		ColCreditScore,
		ColAnnualIncome,
		ColLoanAmount,
		ColTermMonths,
		ColDebtToIncome,
		ColPaymentToIncome,
		ColApproved,
	}
}

// ScoredHeader returns the column order of scored exports.
func ScoredHeader() []string {
	return []string{
		ColApplicationID,
		ColCreditScore,
		ColAnnualIncome,
		ColLoanAmount,
		ColTermMonths,
		ColDebtToIncome,
		ColPaymentToIncome,
		ColApproved,
		ColRiskBand,
		ColIncomeBand,
		ColAmountBand,
		ColTermBand,
		ColProbability,
		ColException,
	}
}
