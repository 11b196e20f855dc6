// Package logit fits a logistic regression by batch gradient descent. The
// fit is deliberately plain: zero-initialized weights, a fixed learning rate
// and epoch count, and an L2 penalty that leaves the intercept alone. Given
// the same configuration and row order the fit is bit-for-bit reproducible;
// randomness lives only in the train/hold-out split.
package logit

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/fenwick/hindsight/internal/common"
)

// MinTrainingRows is the smallest training split a fit will accept.
const MinTrainingRows = 20

// Default fit configuration.
const (
	DefaultLearningRate = 0.1
	DefaultEpochs       = 500
	DefaultL2Penalty    = 1e-3
)

// Config controls a single fit.
type Config struct {
	LearningRate float64
	Epochs       int
	L2Penalty    float64
}

// DefaultConfig returns the fit configuration used by audits unless
// overridden.
func DefaultConfig() Config {
	return Config{
		LearningRate: DefaultLearningRate,
		Epochs:       DefaultEpochs,
		L2Penalty:    DefaultL2Penalty,
	}
}

// Validate rejects configurations that cannot converge or make no sense.
func (c Config) Validate() error {
	if c.LearningRate <= 0 {
		return fmt.Errorf("%w: learning rate must be positive, got %v", common.ErrInvalidConfig, c.LearningRate)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("%w: epoch count must be positive, got %d", common.ErrInvalidConfig, c.Epochs)
	}
	if c.L2Penalty < 0 {
		return fmt.Errorf("%w: L2 penalty must not be negative, got %v", common.ErrInvalidConfig, c.L2Penalty)
	}
	return nil
}

// Model is a fitted logistic regression.
type Model struct {
	weights []float64
	bias    float64
}

// Fit trains on the given feature vectors and outcomes. It fails with
// ErrTooFewRows below MinTrainingRows and ErrSingleClass when every outcome
// agrees, both before touching any weights.
func Fit(features [][]float64, outcomes []bool, cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(features) != len(outcomes) {
		return nil, fmt.Errorf("%w: %d feature rows vs %d outcomes", common.ErrInvalidConfig, len(features), len(outcomes))
	}
	if len(features) < MinTrainingRows {
		return nil, fmt.Errorf("%w: %d rows, need at least %d", common.ErrTooFewRows, len(features), MinTrainingRows)
	}

	approvals := 0
	for _, approved := range outcomes {
		if approved {
			approvals++
		}
	}
	if approvals == 0 || approvals == len(outcomes) {
		return nil, fmt.Errorf("%w: all %d training outcomes agree", common.ErrSingleClass, len(outcomes))
	}

	width := len(features[0])
	m := &Model{weights: make([]float64, width)}
	n := float64(len(features))

	gradW := make([]float64, width)
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		for j := range gradW {
			gradW[j] = 0
		}
		gradB := 0.0

		for i, x := range features {
			residual := m.score(x) - outcome(outcomes[i])
			for j, xj := range x {
				gradW[j] += residual * xj
			}
			gradB += residual
		}

		// The penalty shrinks weights only; the intercept is exempt.
		for j := range m.weights {
			m.weights[j] -= cfg.LearningRate * (gradW[j]/n + cfg.L2Penalty*m.weights[j])
		}
		m.bias -= cfg.LearningRate * gradB / n
	}

	slog.Debug("Fitted approval model",
		"rows", len(features),
		"features", width,
		"epochs", cfg.Epochs,
		"approval_rate", float64(approvals)/n)

	return m, nil
}

// PredictProbability returns the approval probability for one feature
// vector, always in [0, 1]. The vector must have the width the model was
// fitted with.
func (m *Model) PredictProbability(x []float64) float64 {
	return m.score(x)
}

// Weights returns a copy of the fitted weights, in feature order.
func (m *Model) Weights() []float64 {
	return append([]float64(nil), m.weights...)
}

// Bias returns the fitted intercept.
func (m *Model) Bias() float64 {
	return m.bias
}

func (m *Model) score(x []float64) float64 {
	z := m.bias
	for j, w := range m.weights {
		z += w * x[j]
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func outcome(approved bool) float64 {
	if approved {
		return 1
	}
	return 0
}
