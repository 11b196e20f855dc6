package metrics

import "github.com/fenwick/hindsight/internal/service"

// Calibration bucket labels. The buckets are anchored to the detector
// thresholds, so the report shows approval rates in exactly the probability
// ranges the exception rules assert on.
const (
	BucketModelRejects  = "model_rejects"
	BucketUncertain     = "uncertain"
	BucketModelApproves = "model_approves"
)

// Calibration buckets predictions into [0, lo], (lo, hi) and [hi, 1] and
// reports the observed approval rate per bucket. A well-calibrated mirror
// shows a low rate in the first bucket and a high rate in the last; anything
// else means the thresholds assert confidence the model does not have.
func Calibration(probs []float64, outcomes []bool, lo, hi float64) []service.CalibrationRow {
	rows := []service.CalibrationRow{
		{Bucket: BucketModelRejects, Low: 0, High: lo},
		{Bucket: BucketUncertain, Low: lo, High: hi},
		{Bucket: BucketModelApproves, Low: hi, High: 1},
	}

	approvals := make([]int, len(rows))
	for i, p := range probs {
		var bucket int
		switch {
		case p <= lo:
			bucket = 0
		case p >= hi:
			bucket = 2
		default:
			bucket = 1
		}
		rows[bucket].Count++
		if outcomes[i] {
			approvals[bucket]++
		}
	}

	for i := range rows {
		if rows[i].Count > 0 {
			rows[i].ApprovalRate = float64(approvals[i]) / float64(rows[i].Count)
		}
	}

	return rows
}
