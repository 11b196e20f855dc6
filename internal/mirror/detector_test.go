package mirror

import (
	"math/rand"
	"testing"

	"github.com/fenwick/hindsight/internal/common"
	"github.com/fenwick/hindsight/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		hi      float64
		lo      float64
		wantErr bool
	}{
		{name: "defaults", hi: 0.90, lo: 0.10},
		{name: "tight thresholds", hi: 0.99, lo: 0.01},
		{name: "full range", hi: 1.0, lo: 0.0},
		{name: "equal thresholds", hi: 0.5, lo: 0.5, wantErr: true},
		{name: "inverted thresholds", hi: 0.10, lo: 0.90, wantErr: true},
		{name: "lo below zero", hi: 0.9, lo: -0.1, wantErr: true},
		{name: "hi above one", hi: 1.1, lo: 0.1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(tt.hi, tt.lo)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrBadThresholds)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hi, d.Hi())
			assert.Equal(t, tt.lo, d.Lo())
		})
	}
}

func TestClassify(t *testing.T) {
	d := NewDefault()

	tests := []struct {
		name     string
		want     model.ExceptionType
		p        float64
		approved bool
	}{
		{name: "confident approve vs rejected", p: 0.95, approved: false, want: model.ExceptionUnderApproval},
		{name: "confident reject vs approved", p: 0.03, approved: true, want: model.ExceptionOverApproval},
		{name: "uncertain rejected", p: 0.5, approved: false, want: model.ExceptionNone},
		{name: "uncertain approved", p: 0.5, approved: true, want: model.ExceptionNone},
		{name: "hi boundary is inclusive", p: 0.90, approved: false, want: model.ExceptionUnderApproval},
		{name: "lo boundary is inclusive", p: 0.10, approved: true, want: model.ExceptionOverApproval},
		{name: "model and history agree high", p: 0.95, approved: true, want: model.ExceptionNone},
		{name: "model and history agree low", p: 0.03, approved: false, want: model.ExceptionNone},
		{name: "just inside hi", p: 0.8999, approved: false, want: model.ExceptionNone},
		{name: "just inside lo", p: 0.1001, approved: true, want: model.ExceptionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Classify(tt.p, tt.approved))
		})
	}
}

func TestClassifyCustomThresholds(t *testing.T) {
	d, err := New(0.75, 0.25)
	require.NoError(t, err)

	assert.Equal(t, model.ExceptionUnderApproval, d.Classify(0.80, false))
	assert.Equal(t, model.ExceptionNone, d.Classify(0.80, true))
	assert.Equal(t, model.ExceptionOverApproval, d.Classify(0.20, true))
	assert.Equal(t, model.ExceptionNone, d.Classify(0.20, false))
}

// Classification depends only on the record itself, so shuffling the input
// can never change any verdict.
func TestClassifyOrderIndependent(t *testing.T) {
	d := NewDefault()
	r := rand.New(rand.NewSource(99))

	type record struct {
		p        float64
		approved bool
	}
	records := make([]record, 500)
	for i := range records {
		records[i] = record{p: r.Float64(), approved: r.Float64() < 0.7}
	}

	want := make([]model.ExceptionType, len(records))
	for i, rec := range records {
		want[i] = d.Classify(rec.p, rec.approved)
	}

	perm := r.Perm(len(records))
	for _, i := range perm {
		assert.Equal(t, want[i], d.Classify(records[i].p, records[i].approved))
	}
}

func TestMargin(t *testing.T) {
	d := NewDefault()

	assert.InDelta(t, 0.05, d.Margin(0.95, model.ExceptionUnderApproval), 1e-9)
	assert.InDelta(t, 0.07, d.Margin(0.03, model.ExceptionOverApproval), 1e-9)
	assert.InDelta(t, 0.0, d.Margin(0.90, model.ExceptionUnderApproval), 1e-9)
	assert.Equal(t, 0.0, d.Margin(0.5, model.ExceptionNone))
}
