// Package metrics evaluates a fitted approval model on hold-out data. All
// functions are pure and tolerate degenerate input by returning zero rather
// than NaN, so results are always safe to serialize.
package metrics

import (
	"sort"

	"github.com/fenwick/hindsight/internal/service"
)

// DecisionCut is the probability above which a prediction counts as an
// approval when computing accuracy and the confusion matrix.
const DecisionCut = 0.5

// Accuracy computes the fraction of predictions on the correct side of the
// decision cut. Returns 0 for empty input.
func Accuracy(probs []float64, outcomes []bool) float64 {
	if len(probs) == 0 {
		return 0
	}
	correct := 0
	for i, p := range probs {
		if (p >= DecisionCut) == outcomes[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(probs))
}

// ROCAUC computes the area under the ROC curve by rank statistic, averaging
// ranks across tied probabilities. Returns 0 when either outcome class is
// absent, since the curve is undefined there.
func ROCAUC(probs []float64, outcomes []bool) float64 {
	pos, neg := 0, 0
	for _, approved := range outcomes {
		if approved {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0
	}

	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return probs[order[a]] < probs[order[b]]
	})

	// Sum the (tie-averaged) ranks of the approved class.
	rankSum := 0.0
	for i := 0; i < len(order); {
		j := i
		for j < len(order) && probs[order[j]] == probs[order[i]] {
			j++
		}
		avgRank := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			if outcomes[order[k]] {
				rankSum += avgRank
			}
		}
		i = j
	}

	u := rankSum - float64(pos)*float64(pos+1)/2
	return u / (float64(pos) * float64(neg))
}

// Confusion counts hold-out predictions against historical outcomes at the
// decision cut.
type Confusion struct {
	TruePositives  int
	FalsePositives int
	TrueNegatives  int
	FalseNegatives int
}

// ConfusionMatrix tallies predictions at the decision cut. Approval is the
// positive class.
func ConfusionMatrix(probs []float64, outcomes []bool) Confusion {
	var c Confusion
	for i, p := range probs {
		predicted := p >= DecisionCut
		switch {
		case predicted && outcomes[i]:
			c.TruePositives++
		case predicted && !outcomes[i]:
			c.FalsePositives++
		case !predicted && !outcomes[i]:
			c.TrueNegatives++
		default:
			c.FalseNegatives++
		}
	}
	return c
}

// ApprovePrecision is the fraction of predicted approvals that history also
// approved.
func (c Confusion) ApprovePrecision() float64 {
	return ratio(c.TruePositives, c.TruePositives+c.FalsePositives)
}

// ApproveRecall is the fraction of historical approvals the model predicted.
func (c Confusion) ApproveRecall() float64 {
	return ratio(c.TruePositives, c.TruePositives+c.FalseNegatives)
}

// RejectPrecision is the fraction of predicted rejections that history also
// rejected.
func (c Confusion) RejectPrecision() float64 {
	return ratio(c.TrueNegatives, c.TrueNegatives+c.FalseNegatives)
}

// RejectRecall is the fraction of historical rejections the model predicted.
func (c Confusion) RejectRecall() float64 {
	return ratio(c.TrueNegatives, c.TrueNegatives+c.FalsePositives)
}

// Evaluate bundles every hold-out diagnostic into one report. TrainRows is
// left for the caller, which knows the split.
func Evaluate(probs []float64, outcomes []bool) service.ModelDiagnostics {
	c := ConfusionMatrix(probs, outcomes)
	return service.ModelDiagnostics{
		Accuracy:         Accuracy(probs, outcomes),
		ROCAUC:           ROCAUC(probs, outcomes),
		TruePositives:    c.TruePositives,
		FalsePositives:   c.FalsePositives,
		TrueNegatives:    c.TrueNegatives,
		FalseNegatives:   c.FalseNegatives,
		ApprovePrecision: c.ApprovePrecision(),
		ApproveRecall:    c.ApproveRecall(),
		RejectPrecision:  c.RejectPrecision(),
		RejectRecall:     c.RejectRecall(),
		HoldoutRows:      len(probs),
	}
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
