// Package report aggregates scored applications into the audit summary and
// renders or exports it.
package report

import (
	"github.com/fenwick/hindsight/internal/model"
	"github.com/fenwick/hindsight/internal/service"
)

// Heatmap computes the historical approval rate for every risk band x income
// band cell, including empty ones, in canonical band order. The rates come
// from historical outcomes, not model predictions.
func Heatmap(apps []model.ScoredApplication) []service.HeatmapCell {
	type tally struct {
		count    int
		approved int
	}
	cells := make(map[model.RiskBand]map[model.IncomeBand]*tally, len(model.RiskBands))
	for _, risk := range model.RiskBands {
		cells[risk] = make(map[model.IncomeBand]*tally, len(model.IncomeBands))
		for _, income := range model.IncomeBands {
			cells[risk][income] = &tally{}
		}
	}

	for _, app := range apps {
		t := cells[app.Bands.Risk][app.Bands.Income]
		t.count++
		if app.Approved {
			t.approved++
		}
	}

	out := make([]service.HeatmapCell, 0, len(model.RiskBands)*len(model.IncomeBands))
	for _, risk := range model.RiskBands {
		for _, income := range model.IncomeBands {
			t := cells[risk][income]
			cell := service.HeatmapCell{Risk: risk, Income: income, Count: t.count}
			if t.count > 0 {
				cell.ApprovalRate = float64(t.approved) / float64(t.count)
			}
			out = append(out, cell)
		}
	}
	return out
}

// CountExceptions tallies detector verdicts by type.
func CountExceptions(apps []model.ScoredApplication) service.ExceptionCounts {
	var counts service.ExceptionCounts
	for _, app := range apps {
		switch app.Exception {
		case model.ExceptionUnderApproval:
			counts.UnderApproval++
		case model.ExceptionOverApproval:
			counts.OverApproval++
		default:
			counts.Normal++
		}
	}
	return counts
}
