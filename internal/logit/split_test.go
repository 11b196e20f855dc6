package logit

import (
	"testing"

	"github.com/fenwick/hindsight/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitValidation(t *testing.T) {
	tests := []struct {
		name    string
		wantErr error
		n       int
		holdout float64
	}{
		{name: "one row", n: 1, holdout: 0.2, wantErr: common.ErrTooFewRows},
		{name: "zero rows", n: 0, holdout: 0.2, wantErr: common.ErrTooFewRows},
		{name: "zero holdout", n: 10, holdout: 0, wantErr: common.ErrInvalidConfig},
		{name: "full holdout", n: 10, holdout: 1, wantErr: common.ErrInvalidConfig},
		{name: "negative holdout", n: 10, holdout: -0.5, wantErr: common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Split(tt.n, tt.holdout, 42)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSplitPartition(t *testing.T) {
	train, test, err := Split(100, 0.2, 42)
	require.NoError(t, err)

	assert.Len(t, train, 80)
	assert.Len(t, test, 20)

	seen := make(map[int]bool)
	for _, idx := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[idx], "index %d appears twice", idx)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 100)
		seen[idx] = true
	}
	assert.Len(t, seen, 100)
}

func TestSplitDeterministic(t *testing.T) {
	train1, test1, err := Split(50, 0.2, 7)
	require.NoError(t, err)
	train2, test2, err := Split(50, 0.2, 7)
	require.NoError(t, err)

	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)
}

func TestSplitSeedChangesPartition(t *testing.T) {
	_, test1, err := Split(100, 0.2, 1)
	require.NoError(t, err)
	_, test2, err := Split(100, 0.2, 2)
	require.NoError(t, err)

	assert.NotEqual(t, test1, test2)
}

func TestSplitAlwaysLeavesBothSides(t *testing.T) {
	// Tiny datasets and extreme fractions still put a row on each side.
	train, test, err := Split(2, 0.01, 42)
	require.NoError(t, err)
	assert.Len(t, train, 1)
	assert.Len(t, test, 1)

	train, test, err = Split(5, 0.99, 42)
	require.NoError(t, err)
	assert.NotEmpty(t, train)
	assert.NotEmpty(t, test)
}
