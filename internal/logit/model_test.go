package logit

import (
	"math/rand"
	"testing"

	"github.com/fenwick/hindsight/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separableData builds rows where the first feature alone decides the
// outcome, so any sane fit must recover it.
func separableData(n int, seed int64) ([][]float64, []bool) {
	r := rand.New(rand.NewSource(seed))
	features := make([][]float64, n)
	outcomes := make([]bool, n)
	for i := range features {
		approved := i%2 == 0
		sign := -1.0
		if approved {
			sign = 1.0
		}
		features[i] = []float64{
			sign * (1 + r.Float64()*0.2),
			r.Float64()*0.1 - 0.05,
		}
		outcomes[i] = approved
	}
	return features, outcomes
}

func TestFitValidation(t *testing.T) {
	good, goodOutcomes := separableData(40, 1)

	tests := []struct {
		name     string
		features [][]float64
		outcomes []bool
		cfg      Config
		wantErr  error
	}{
		{
			name:     "too few rows",
			features: good[:10],
			outcomes: goodOutcomes[:10],
			cfg:      DefaultConfig(),
			wantErr:  common.ErrTooFewRows,
		},
		{
			name:     "single class",
			features: good,
			outcomes: make([]bool, len(good)),
			cfg:      DefaultConfig(),
			wantErr:  common.ErrSingleClass,
		},
		{
			name:     "row count mismatch",
			features: good,
			outcomes: goodOutcomes[:20],
			cfg:      DefaultConfig(),
			wantErr:  common.ErrInvalidConfig,
		},
		{
			name:     "zero learning rate",
			features: good,
			outcomes: goodOutcomes,
			cfg:      Config{LearningRate: 0, Epochs: 100, L2Penalty: 0},
			wantErr:  common.ErrInvalidConfig,
		},
		{
			name:     "zero epochs",
			features: good,
			outcomes: goodOutcomes,
			cfg:      Config{LearningRate: 0.1, Epochs: 0, L2Penalty: 0},
			wantErr:  common.ErrInvalidConfig,
		},
		{
			name:     "negative penalty",
			features: good,
			outcomes: goodOutcomes,
			cfg:      Config{LearningRate: 0.1, Epochs: 100, L2Penalty: -1},
			wantErr:  common.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fit(tt.features, tt.outcomes, tt.cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFitLearnsSeparablePattern(t *testing.T) {
	features, outcomes := separableData(60, 7)

	m, err := Fit(features, outcomes, DefaultConfig())
	require.NoError(t, err)

	for i, x := range features {
		p := m.PredictProbability(x)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		if outcomes[i] {
			assert.Greater(t, p, 0.8, "row %d should score high", i)
		} else {
			assert.Less(t, p, 0.2, "row %d should score low", i)
		}
	}
}

func TestFitDeterministic(t *testing.T) {
	features, outcomes := separableData(40, 3)

	m1, err := Fit(features, outcomes, DefaultConfig())
	require.NoError(t, err)
	m2, err := Fit(features, outcomes, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, m1.Weights(), m2.Weights())
	assert.Equal(t, m1.Bias(), m2.Bias())
}

func TestL2PenaltyShrinksWeights(t *testing.T) {
	features, outcomes := separableData(60, 11)

	loose, err := Fit(features, outcomes, Config{LearningRate: 0.1, Epochs: 300, L2Penalty: 0})
	require.NoError(t, err)
	tight, err := Fit(features, outcomes, Config{LearningRate: 0.1, Epochs: 300, L2Penalty: 0.5})
	require.NoError(t, err)

	assert.Less(t, abs(tight.Weights()[0]), abs(loose.Weights()[0]))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
