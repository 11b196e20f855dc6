package bands

import (
	"testing"

	"github.com/fenwick/hindsight/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRisk(t *testing.T) {
	tests := []struct {
		name    string
		want    model.RiskBand
		score   int
		wantErr bool
	}{
		{name: "domain floor", score: 300, want: model.RiskSubprime},
		{name: "below first break", score: 579, want: model.RiskSubprime},
		{name: "breakpoint belongs to upper band", score: 580, want: model.RiskNearPrime},
		{name: "mid near prime", score: 640, want: model.RiskNearPrime},
		{name: "prime boundary", score: 660, want: model.RiskPrime},
		{name: "super prime boundary", score: 740, want: model.RiskSuperPrime},
		{name: "domain ceiling", score: 850, want: model.RiskSuperPrime},
		{name: "below domain", score: 299, wantErr: true},
		{name: "above domain", score: 851, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Risk(tt.score)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrOutOfDomain)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIncome(t *testing.T) {
	tests := []struct {
		name    string
		want    model.IncomeBand
		income  float64
		wantErr bool
	}{
		{name: "zero income", income: 0, want: model.IncomeUnder30K},
		{name: "just under break", income: 29_999.99, want: model.IncomeUnder30K},
		{name: "breakpoint inclusive on upper band", income: 30_000, want: model.Income30To60K},
		{name: "upper middle", income: 60_000, want: model.Income60To100K},
		{name: "high", income: 100_000, want: model.IncomeOver100K},
		{name: "very high", income: 2_000_000, want: model.IncomeOver100K},
		{name: "negative income rejected", income: -0.01, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Income(tt.income)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrOutOfDomain)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmount(t *testing.T) {
	tests := []struct {
		name    string
		want    model.AmountBand
		amount  float64
		wantErr bool
	}{
		{name: "small positive", amount: 0.01, want: model.AmountMicro},
		{name: "breakpoint", amount: 5_000, want: model.AmountSmall},
		{name: "standard", amount: 15_000, want: model.AmountStandard},
		{name: "jumbo", amount: 35_000, want: model.AmountJumbo},
		{name: "zero rejected", amount: 0, wantErr: true},
		{name: "negative rejected", amount: -100, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Amount(tt.amount)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrOutOfDomain)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTerm(t *testing.T) {
	tests := []struct {
		name    string
		want    model.TermBand
		months  int
		wantErr bool
	}{
		{name: "one month", months: 1, want: model.TermShort},
		{name: "two year boundary", months: 24, want: model.TermMedium},
		{name: "four year boundary", months: 48, want: model.TermLong},
		{name: "six year boundary", months: 72, want: model.TermExtended},
		{name: "very long", months: 360, want: model.TermExtended},
		{name: "zero rejected", months: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Term(tt.months)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrOutOfDomain)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Increasing a continuous field never moves a record to a lower-ordered band.
func TestDerivation_Monotonic(t *testing.T) {
	prevOrder := -1
	for score := model.MinCreditScore; score <= model.MaxCreditScore; score++ {
		band, err := Risk(score)
		require.NoError(t, err)
		require.GreaterOrEqual(t, band.Order(), prevOrder, "risk band regressed at score %d", score)
		prevOrder = band.Order()
	}

	prevOrder = -1
	for income := 0.0; income <= 200_000; income += 500 {
		band, err := Income(income)
		require.NoError(t, err)
		require.GreaterOrEqual(t, band.Order(), prevOrder, "income band regressed at %.0f", income)
		prevOrder = band.Order()
	}

	prevOrder = -1
	for months := 1; months <= 120; months++ {
		band, err := Term(months)
		require.NoError(t, err)
		require.GreaterOrEqual(t, band.Order(), prevOrder, "term band regressed at %d months", months)
		prevOrder = band.Order()
	}
}

func TestDerive(t *testing.T) {
	app := model.LoanApplication{
		ApplicationID:   "app-1",
		CreditScore:     705,
		AnnualIncome:    84_000,
		LoanAmount:      22_500,
		TermMonths:      48,
		DebtToIncome:    0.3,
		PaymentToIncome: 0.12,
	}

	got, err := Derive(app)
	require.NoError(t, err)
	assert.Equal(t, model.Bands{
		Risk:   model.RiskPrime,
		Income: model.Income60To100K,
		Amount: model.AmountStandard,
		Term:   model.TermLong,
	}, got)

	app.TermMonths = 0
	_, err = Derive(app)
	assert.ErrorIs(t, err, model.ErrOutOfDomain)
}
