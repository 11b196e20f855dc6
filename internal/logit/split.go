package logit

import (
	"fmt"
	"math/rand"

	"github.com/fenwick/hindsight/internal/common"
)

// DefaultHoldout is the hold-out fraction audits use unless overridden.
const DefaultHoldout = 0.2

// Split shuffles row indices with the given seed and carves off a hold-out
// fraction for evaluation. The same row count, fraction and seed always
// produce the same partition. At least one row lands on each side.
func Split(n int, holdout float64, seed int64) (train, test []int, err error) {
	if n < 2 {
		return nil, nil, fmt.Errorf("%w: %d rows, need at least 2 to split", common.ErrTooFewRows, n)
	}
	if holdout <= 0 || holdout >= 1 {
		return nil, nil, fmt.Errorf("%w: hold-out fraction must be in (0, 1), got %v", common.ErrInvalidConfig, holdout)
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	cut := int(float64(n) * holdout)
	if cut == 0 {
		cut = 1
	}
	if cut == n {
		cut = n - 1
	}

	return indices[cut:], indices[:cut], nil
}
