// Package engine orchestrates an audit run: split, fit, score, classify,
// and aggregate the summary artifact.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/fenwick/hindsight/internal/common"
	"github.com/fenwick/hindsight/internal/feature"
	"github.com/fenwick/hindsight/internal/logit"
	"github.com/fenwick/hindsight/internal/metrics"
	"github.com/fenwick/hindsight/internal/mirror"
	"github.com/fenwick/hindsight/internal/model"
	"github.com/fenwick/hindsight/internal/report"
	"github.com/fenwick/hindsight/internal/service"
)

// DefaultSeed is the split seed used unless a run overrides it. Fixed so two
// runs over the same file produce the same summary.
const DefaultSeed int64 = 42

// ProgressFunc receives per-row progress from the scoring stage, the only
// stage long enough to show a bar for.
type ProgressFunc func(done, total int)

// Config holds the tunable knobs of one audit run.
type Config struct {
	HiThreshold float64
	LoThreshold float64
	Holdout     float64
	Seed        int64
	Fit         logit.Config
}

// DefaultConfig returns the configuration used unless flags override it.
func DefaultConfig() Config {
	return Config{
		HiThreshold: mirror.DefaultHiThreshold,
		LoThreshold: mirror.DefaultLoThreshold,
		Holdout:     logit.DefaultHoldout,
		Seed:        DefaultSeed,
		Fit:         logit.DefaultConfig(),
	}
}

// AuditEngine runs the policy-mirror pipeline over one dataset.
type AuditEngine struct {
	// Progress, when set, is called after each scored row.
	Progress ProgressFunc

	detector *mirror.Detector
	config   Config
}

// New validates the configuration and creates an engine. Configuration
// errors surface here, before any data is read.
func New(config Config) (*AuditEngine, error) {
	detector, err := mirror.New(config.HiThreshold, config.LoThreshold)
	if err != nil {
		return nil, err
	}
	if config.Holdout <= 0 || config.Holdout >= 1 {
		return nil, fmt.Errorf("%w: holdout fraction must be in (0, 1), got %v",
			common.ErrInvalidConfig, config.Holdout)
	}
	if err := config.Fit.Validate(); err != nil {
		return nil, err
	}
	return &AuditEngine{detector: detector, config: config}, nil
}

// Detector exposes the configured detector so callers can build review
// queues from the scored output.
func (e *AuditEngine) Detector() *mirror.Detector {
	return e.detector
}

// Result carries everything one run produces.
type Result struct {
	Summary *service.AuditSummary
	Scored  []model.ScoredApplication
}

// Run executes the pipeline over a banded dataset. excluded counts the rows
// the loader already dropped; rows the encoder cannot represent are warned,
// skipped, and added to that count. Every surviving row is scored and
// classified, including the training split.
func (e *AuditEngine) Run(ctx context.Context, apps []model.BandedApplication, source string, excluded int) (*Result, error) {
	if len(apps) == 0 {
		return nil, fmt.Errorf("%w: nothing to audit", common.ErrEmptyDataset)
	}

	slog.Info("Starting audit run",
		"rows", len(apps),
		"source", source,
		"hi_threshold", e.config.HiThreshold,
		"lo_threshold", e.config.LoThreshold,
		"seed", e.config.Seed)

	trainIdx, holdoutIdx, err := logit.Split(len(apps), e.config.Holdout, e.config.Seed)
	if err != nil {
		return nil, err
	}

	train := make([]model.BandedApplication, len(trainIdx))
	for i, idx := range trainIdx {
		train[i] = apps[idx]
	}

	encoder, err := feature.Fit(train)
	if err != nil {
		return nil, err
	}

	trainFeatures := make([][]float64, len(train))
	trainOutcomes := make([]bool, len(train))
	for i := range train {
		vec, vecErr := encoder.Vector(train[i])
		if vecErr != nil {
			// The encoder was fitted on these exact rows.
			return nil, fmt.Errorf("failed to encode training row %s: %w", train[i].ApplicationID, vecErr)
		}
		trainFeatures[i] = vec
		trainOutcomes[i] = train[i].Approved
	}

	mdl, err := logit.Fit(trainFeatures, trainOutcomes, e.config.Fit)
	if err != nil {
		return nil, err
	}

	slog.Info("Fitted model",
		"train_rows", len(train),
		"holdout_rows", len(holdoutIdx),
		"features", encoder.Width())

	// Hold-out diagnostics. A hold-out row with a band level the training
	// split never saw cannot be encoded; the scoring loop below warns and
	// counts it, so here it is silently left out of the evaluation.
	var holdoutProbs []float64
	var holdoutOutcomes []bool
	for _, idx := range holdoutIdx {
		vec, vecErr := encoder.Vector(apps[idx])
		if vecErr != nil {
			continue
		}
		holdoutProbs = append(holdoutProbs, mdl.PredictProbability(vec))
		holdoutOutcomes = append(holdoutOutcomes, apps[idx].Approved)
	}
	diagnostics := metrics.Evaluate(holdoutProbs, holdoutOutcomes)
	diagnostics.TrainRows = len(train)

	scored := make([]model.ScoredApplication, 0, len(apps))
	probs := make([]float64, 0, len(apps))
	outcomes := make([]bool, 0, len(apps))
	skipped := 0
	for i := range apps {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		vec, vecErr := encoder.Vector(apps[i])
		if vecErr != nil {
			slog.Warn("Excluding record from scoring",
				"application_id", apps[i].ApplicationID,
				"error", vecErr)
			skipped++
			continue
		}

		p := mdl.PredictProbability(vec)
		if math.IsNaN(p) || p < 0 || p > 1 {
			slog.Warn("Excluding record from scoring",
				"application_id", apps[i].ApplicationID,
				"error", fmt.Errorf("%w: probability %v outside [0, 1]", model.ErrOutOfDomain, p))
			skipped++
			continue
		}

		scored = append(scored, model.ScoredApplication{
			BandedApplication: apps[i],
			Probability:       p,
			Exception:         e.detector.Classify(p, apps[i].Approved),
		})
		probs = append(probs, p)
		outcomes = append(outcomes, apps[i].Approved)

		if e.Progress != nil {
			e.Progress(i+1, len(apps))
		}
	}

	summary := &service.AuditSummary{
		RunID:        uuid.NewString(),
		GeneratedAt:  time.Now().UTC(),
		Source:       source,
		TotalRows:    len(apps) + excluded,
		ExcludedRows: excluded + skipped,
		HiThreshold:  e.config.HiThreshold,
		LoThreshold:  e.config.LoThreshold,
		Seed:         e.config.Seed,
		Diagnostics:  diagnostics,
		Calibration:  metrics.Calibration(probs, outcomes, e.config.LoThreshold, e.config.HiThreshold),
		Heatmap:      report.Heatmap(scored),
		Exceptions:   report.CountExceptions(scored),
	}

	slog.Info("Audit run complete",
		"run_id", summary.RunID,
		"scored", len(scored),
		"excluded", summary.ExcludedRows,
		"under_approval", summary.Exceptions.UnderApproval,
		"over_approval", summary.Exceptions.OverApproval,
		"accuracy", diagnostics.Accuracy,
		"roc_auc", diagnostics.ROCAUC)

	return &Result{Summary: summary, Scored: scored}, nil
}
