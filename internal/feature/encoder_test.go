package feature

import (
	"testing"

	"github.com/fenwick/hindsight/internal/common"
	"github.com/fenwick/hindsight/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bandedApp(score int, income, amount float64, term int, bands model.Bands) model.BandedApplication {
	return model.BandedApplication{
		LoanApplication: model.LoanApplication{
			CreditScore:     score,
			AnnualIncome:    income,
			LoanAmount:      amount,
			TermMonths:      term,
			DebtToIncome:    0.3,
			PaymentToIncome: 0.1,
		},
		Bands: bands,
	}
}

func trainingApps() []model.BandedApplication {
	return []model.BandedApplication{
		bandedApp(700, 80000, 20000, 48, model.Bands{
			Risk: model.RiskPrime, Income: model.Income60To100K,
			Amount: model.AmountStandard, Term: model.TermLong,
		}),
		bandedApp(600, 40000, 10000, 36, model.Bands{
			Risk: model.RiskNearPrime, Income: model.Income30To60K,
			Amount: model.AmountSmall, Term: model.TermMedium,
		}),
	}
}

func TestFitRejectsEmptySplit(t *testing.T) {
	_, err := Fit(nil)
	assert.ErrorIs(t, err, common.ErrEmptyDataset)
}

func TestVectorLayout(t *testing.T) {
	apps := trainingApps()
	enc, err := Fit(apps)
	require.NoError(t, err)

	// Six continuous fields plus two seen levels per band group.
	assert.Equal(t, 14, enc.Width())
	names := enc.FeatureNames()
	require.Len(t, names, 14)
	assert.Equal(t, "credit_score", names[0])
	assert.Equal(t, "risk_band=near_prime", names[6], "one-hot levels follow canonical band order")
	assert.Equal(t, "risk_band=prime", names[7])

	x, err := enc.Vector(apps[0])
	require.NoError(t, err)
	require.Len(t, x, 14)

	// Two symmetric rows standardize to +/-1 on every varying field.
	assert.InDelta(t, 1.0, x[0], 1e-9)
	assert.InDelta(t, 1.0, x[1], 1e-9)
	// Constant fields encode to zero.
	assert.InDelta(t, 0.0, x[4], 1e-9)
	assert.InDelta(t, 0.0, x[5], 1e-9)

	// Exactly one hot level per band group.
	assert.Equal(t, 0.0, x[6])
	assert.Equal(t, 1.0, x[7])
}

func TestVectorDeterministicLayout(t *testing.T) {
	apps := trainingApps()

	enc1, err := Fit(apps)
	require.NoError(t, err)

	// Same rows, reversed order.
	reversed := []model.BandedApplication{apps[1], apps[0]}
	enc2, err := Fit(reversed)
	require.NoError(t, err)

	assert.Equal(t, enc1.FeatureNames(), enc2.FeatureNames())

	x1, err := enc1.Vector(apps[0])
	require.NoError(t, err)
	x2, err := enc2.Vector(apps[0])
	require.NoError(t, err)
	assert.Equal(t, x1, x2)
}

func TestVectorUnseenCategory(t *testing.T) {
	enc, err := Fit(trainingApps())
	require.NoError(t, err)

	unseen := bandedApp(320, 20000, 3000, 12, model.Bands{
		Risk: model.RiskSubprime, Income: model.IncomeUnder30K,
		Amount: model.AmountMicro, Term: model.TermShort,
	})

	_, err = enc.Vector(unseen)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnseenCategory)
	assert.Contains(t, err.Error(), "risk_band=subprime")
}
