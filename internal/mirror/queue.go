package mirror

import (
	"fmt"
	"sort"

	"github.com/fenwick/hindsight/internal/common"
	"github.com/fenwick/hindsight/internal/model"
)

// DefaultQueueCap bounds the review queue unless the caller overrides it.
const DefaultQueueCap = 100

// SegmentFilter restricts which exceptions a queue reports. The zero value
// matches everything. Filtering happens while building the queue, never
// during classification, so aggregate counts are unaffected by it.
type SegmentFilter struct {
	Risk   model.RiskBand
	Income model.IncomeBand
	Amount model.AmountBand
	Term   model.TermBand
}

// Validate rejects filters that name unknown band levels, which would
// silently match nothing.
func (f SegmentFilter) Validate() error {
	if f.Risk != "" && !f.Risk.Valid() {
		return fmt.Errorf("%w: unknown risk band %q", common.ErrInvalidConfig, f.Risk)
	}
	if f.Income != "" && !f.Income.Valid() {
		return fmt.Errorf("%w: unknown income band %q", common.ErrInvalidConfig, f.Income)
	}
	if f.Amount != "" && !f.Amount.Valid() {
		return fmt.Errorf("%w: unknown amount band %q", common.ErrInvalidConfig, f.Amount)
	}
	if f.Term != "" && !f.Term.Valid() {
		return fmt.Errorf("%w: unknown term band %q", common.ErrInvalidConfig, f.Term)
	}
	return nil
}

// Matches reports whether a record's bands pass the filter.
func (f SegmentFilter) Matches(b model.Bands) bool {
	if f.Risk != "" && f.Risk != b.Risk {
		return false
	}
	if f.Income != "" && f.Income != b.Income {
		return false
	}
	if f.Amount != "" && f.Amount != b.Amount {
		return false
	}
	if f.Term != "" && f.Term != b.Term {
		return false
	}
	return true
}

// IsZero reports whether the filter matches everything.
func (f SegmentFilter) IsZero() bool {
	return f.Risk == "" && f.Income == "" && f.Amount == "" && f.Term == ""
}

// ReviewItem is one queue entry: a flagged record plus how far past the
// threshold its prediction landed.
type ReviewItem struct {
	model.ScoredApplication
	Margin float64
}

// BuildQueue collects the exceptions that pass the segment filter, orders
// them by descending margin and truncates to the cap. Ties break on
// application ID so the queue is deterministic for a given scored set. A cap
// of zero or less falls back to DefaultQueueCap.
func (d *Detector) BuildQueue(scored []model.ScoredApplication, filter SegmentFilter, limit int) []ReviewItem {
	if limit <= 0 {
		limit = DefaultQueueCap
	}

	var items []ReviewItem
	for _, app := range scored {
		if !app.Exception.IsException() {
			continue
		}
		if !filter.Matches(app.Bands) {
			continue
		}
		items = append(items, ReviewItem{
			ScoredApplication: app,
			Margin:            d.Margin(app.Probability, app.Exception),
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Margin != items[j].Margin {
			return items[i].Margin > items[j].Margin
		}
		return items[i].ApplicationID < items[j].ApplicationID
	})

	if len(items) > limit {
		items = items[:limit]
	}

	return items
}
