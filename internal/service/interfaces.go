// Package service defines the interfaces and shared types for all application services.
package service

import (
	"context"
	"time"

	"github.com/fenwick/hindsight/internal/model"
)

// Storage defines the contract for the optional staging store. One writer and
// one reader per run; the core pipeline must behave identically whether rows
// come from a fresh CSV load or from here.
type Storage interface {
	// ReplaceApplications drops any previously staged dataset and uploads
	// the given rows, bands included, in a single transaction.
	ReplaceApplications(ctx context.Context, apps []model.BandedApplication) error
	// CountApplications returns the number of staged rows, used to verify
	// an upload against the local row count.
	CountApplications(ctx context.Context) (int, error)
	// LoadApplications pulls the staged dataset back with its derived
	// band columns.
	LoadApplications(ctx context.Context) ([]model.BandedApplication, error)
	Close() error
}

// ReportWriter exports an audit summary to an external destination.
type ReportWriter interface {
	Write(ctx context.Context, summary *AuditSummary) error
}

// ModelDiagnostics holds the hold-out evaluation of one fitted model.
type ModelDiagnostics struct {
	Accuracy         float64 `json:"accuracy"`
	ROCAUC           float64 `json:"roc_auc"`
	TruePositives    int     `json:"true_positives"`
	FalsePositives   int     `json:"false_positives"`
	TrueNegatives    int     `json:"true_negatives"`
	FalseNegatives   int     `json:"false_negatives"`
	ApprovePrecision float64 `json:"approve_precision"`
	ApproveRecall    float64 `json:"approve_recall"`
	RejectPrecision  float64 `json:"reject_precision"`
	RejectRecall     float64 `json:"reject_recall"`
	TrainRows        int     `json:"train_rows"`
	HoldoutRows      int     `json:"holdout_rows"`
}

// CalibrationRow reports the observed approval rate inside one predicted
// probability bucket.
type CalibrationRow struct {
	Bucket       string  `json:"bucket"`
	Low          float64 `json:"low"`
	High         float64 `json:"high"`
	Count        int     `json:"count"`
	ApprovalRate float64 `json:"approval_rate"`
}

// HeatmapCell is one risk band x income band aggregate: the historical
// approval rate and volume of that segment.
type HeatmapCell struct {
	Risk         model.RiskBand   `json:"risk_band"`
	Income       model.IncomeBand `json:"income_band"`
	Count        int              `json:"count"`
	ApprovalRate float64          `json:"approval_rate"`
}

// ExceptionCounts summarizes the detector's output by type.
type ExceptionCounts struct {
	Normal        int `json:"normal"`
	UnderApproval int `json:"under_approval"`
	OverApproval  int `json:"over_approval"`
}

// Total returns the number of classified records.
func (c ExceptionCounts) Total() int {
	return c.Normal + c.UnderApproval + c.OverApproval
}

// AuditSummary is the aggregate artifact of one audit run. It carries
// everything the report/export layers render; it is advisory output, never
// ground truth.
type AuditSummary struct {
	RunID        string           `json:"run_id"`
	GeneratedAt  time.Time        `json:"generated_at"`
	Source       string           `json:"source"`
	TotalRows    int              `json:"total_rows"`
	ExcludedRows int              `json:"excluded_rows"`
	HiThreshold  float64          `json:"hi_threshold"`
	LoThreshold  float64          `json:"lo_threshold"`
	Seed         int64            `json:"seed"`
	Diagnostics  ModelDiagnostics `json:"diagnostics"`
	Calibration  []CalibrationRow `json:"calibration"`
	Heatmap      []HeatmapCell    `json:"heatmap"`
	Exceptions   ExceptionCounts  `json:"exceptions"`
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
