// Package mirror flags historical lending decisions that strongly disagree
// with a fitted approval model. The model is treated as a reference point,
// not as ground truth: an exception means "worth a second look", never "the
// historical decision was wrong".
package mirror

import (
	"fmt"

	"github.com/fenwick/hindsight/internal/common"
	"github.com/fenwick/hindsight/internal/model"
)

// Default detection thresholds. An exception requires the model to be at
// least this confident before it may contradict history.
const (
	DefaultHiThreshold = 0.90
	DefaultLoThreshold = 0.10
)

// rule pairs a predicate with the exception it assigns. Rules are evaluated
// in order and the first match wins, so adding a rule can never reshuffle
// the verdicts of the rules above it.
type rule struct {
	match func(p float64, approved bool) bool
	label model.ExceptionType
}

// Detector classifies (probability, outcome) pairs against fixed thresholds.
// Classification is pure: per-record, stateless and independent of record
// order.
type Detector struct {
	rules []rule
	hi    float64
	lo    float64
}

// New builds a detector. Thresholds must satisfy 0 <= lo < hi <= 1; anything
// else, including lo == hi, is a configuration error caught here, before any
// scoring happens.
func New(hi, lo float64) (*Detector, error) {
	if lo < 0 || hi > 1 {
		return nil, fmt.Errorf("%w: thresholds must lie in [0, 1], got hi=%v lo=%v", common.ErrBadThresholds, hi, lo)
	}
	if lo >= hi {
		return nil, fmt.Errorf("%w: lo threshold %v must be strictly below hi threshold %v", common.ErrBadThresholds, lo, hi)
	}

	d := &Detector{hi: hi, lo: lo}
	d.rules = []rule{
		{
			// Model is confident this should have been approved; history
			// rejected it.
			match: func(p float64, approved bool) bool { return p >= hi && !approved },
			label: model.ExceptionUnderApproval,
		},
		{
			// Model is confident this should have been rejected; history
			// approved it.
			match: func(p float64, approved bool) bool { return p <= lo && approved },
			label: model.ExceptionOverApproval,
		},
	}

	return d, nil
}

// NewDefault builds a detector with the standard thresholds.
func NewDefault() *Detector {
	d, err := New(DefaultHiThreshold, DefaultLoThreshold)
	if err != nil {
		panic(err) // defaults are statically valid
	}
	return d
}

// Classify returns the exception tag for one record. Both thresholds are
// inclusive: a probability exactly at hi or lo is enough to flag.
func (d *Detector) Classify(p float64, approved bool) model.ExceptionType {
	for _, r := range d.rules {
		if r.match(p, approved) {
			return r.label
		}
	}
	return model.ExceptionNone
}

// Margin returns how far beyond the crossed threshold the prediction sits.
// Larger means the model disagrees harder. Normal records have margin 0.
func (d *Detector) Margin(p float64, exception model.ExceptionType) float64 {
	switch exception {
	case model.ExceptionUnderApproval:
		return p - d.hi
	case model.ExceptionOverApproval:
		return d.lo - p
	}
	return 0
}

// Hi returns the under-approval threshold.
func (d *Detector) Hi() float64 { return d.hi }

// Lo returns the over-approval threshold.
func (d *Detector) Lo() float64 { return d.lo }
