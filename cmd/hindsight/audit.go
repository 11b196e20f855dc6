package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fenwick/hindsight/internal/cli"
	"github.com/fenwick/hindsight/internal/dataset"
	"github.com/fenwick/hindsight/internal/engine"
	"github.com/fenwick/hindsight/internal/logit"
	"github.com/fenwick/hindsight/internal/mirror"
	"github.com/fenwick/hindsight/internal/model"
	"github.com/fenwick/hindsight/internal/report"
)

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [file]",
		Short: "🔍 Fit the decision mirror and flag exceptions",
		Long: `Fit a logistic model to historical lending decisions and flag the
records the model disagrees with.

Reads applications from a CSV file, or from the staging store with
--from-store. The run holds out a fraction of rows for evaluation, scores
every record, and classifies each one against the hi/lo probability
thresholds. Artifacts land in the output directory:

  scored.csv    every scored record with probability and exception tag
  summary.json  run metadata, diagnostics, calibration, heatmap, counts

Flagged records are review candidates, not verdicts. Use 'hindsight review'
to walk the queue.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAudit,
	}

	addStorageFlags(cmd)
	cmd.Flags().Bool("from-store", false, "audit the staged dataset instead of a file")
	cmd.Flags().Float64("hi", mirror.DefaultHiThreshold, "probability at or above which a rejection is flagged")
	cmd.Flags().Float64("lo", mirror.DefaultLoThreshold, "probability at or below which an approval is flagged")
	cmd.Flags().Float64("holdout", logit.DefaultHoldout, "fraction of rows held out for evaluation")
	cmd.Flags().Int64("seed", engine.DefaultSeed, "seed for the train/hold-out shuffle")
	cmd.Flags().StringP("output-dir", "o", ".", "directory for scored.csv and summary.json")
	cmd.Flags().Bool("sheets", false, "export the summary to Google Sheets")

	_ = viper.BindPFlag("audit.from_store", cmd.Flags().Lookup("from-store"))
	_ = viper.BindPFlag("audit.hi_threshold", cmd.Flags().Lookup("hi"))
	_ = viper.BindPFlag("audit.lo_threshold", cmd.Flags().Lookup("lo"))
	_ = viper.BindPFlag("audit.holdout", cmd.Flags().Lookup("holdout"))
	_ = viper.BindPFlag("audit.seed", cmd.Flags().Lookup("seed"))
	_ = viper.BindPFlag("audit.output_dir", cmd.Flags().Lookup("output-dir"))
	_ = viper.BindPFlag("audit.sheets", cmd.Flags().Lookup("sheets"))

	return cmd
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	fromStore := viper.GetBool("audit.from_store")
	if fromStore && len(args) > 0 {
		return fmt.Errorf("pass a file or --from-store, not both")
	}
	if !fromStore && len(args) == 0 {
		return fmt.Errorf("nothing to audit: pass a file or --from-store")
	}

	cfg := engine.DefaultConfig()
	cfg.HiThreshold = viper.GetFloat64("audit.hi_threshold")
	cfg.LoThreshold = viper.GetFloat64("audit.lo_threshold")
	cfg.Holdout = viper.GetFloat64("audit.holdout")
	cfg.Seed = viper.GetInt64("audit.seed")

	// Config problems surface before any loading work happens.
	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatTitle("🔍 Auditing lending decisions")) //nolint:forbidigo // User-facing output

	var (
		banded   []model.BandedApplication
		excluded int
		source   string
	)
	if fromStore {
		banded, excluded, source, err = loadStaged(ctx, cmd)
	} else {
		banded, excluded, source, err = loadBandedFile(ctx, args[0])
	}
	if err != nil {
		return err
	}

	bar := cli.NewProgressBar(os.Stderr, len(banded), "Scoring applications")
	eng.Progress = func(done, _ int) { _ = bar.Set(done) }

	result, err := eng.Run(ctx, banded, source, excluded)
	if err != nil {
		return err
	}

	outDir := viper.GetString("audit.output_dir")
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outDir, err)
	}
	scoredPath := filepath.Join(outDir, "scored.csv")
	summaryPath := filepath.Join(outDir, "summary.json")
	if err := dataset.WriteScoredFile(scoredPath, result.Scored); err != nil {
		return err
	}
	if err := report.WriteSummaryJSON(summaryPath, result.Summary); err != nil {
		return err
	}

	fmt.Println() //nolint:forbidigo // User-facing output
	if err := report.NewRenderer(os.Stdout).Render(result.Summary); err != nil {
		return err
	}

	if viper.GetBool("audit.sheets") {
		if err := exportSummary(ctx, result.Summary); err != nil {
			return err
		}
	}

	flagged := result.Summary.Exceptions.UnderApproval + result.Summary.Exceptions.OverApproval
	fmt.Println(cli.FormatSuccess("Audit complete!")) //nolint:forbidigo // User-facing output
	content := fmt.Sprintf("Run:        %s\nScored:     %s\nSummary:    %s\nExceptions: %d",
		result.Summary.RunID, scoredPath, summaryPath, flagged)
	fmt.Println(cli.RenderBox("Audit Artifacts", content)) //nolint:forbidigo // User-facing output

	return nil
}

// loadStaged pulls the staged dataset back out of the store. Rows that were
// staged but no longer load cleanly count as excluded.
func loadStaged(ctx context.Context, cmd *cobra.Command) ([]model.BandedApplication, int, string, error) {
	store, err := openStore(ctx, cmd)
	if err != nil {
		return nil, 0, "", err
	}
	defer func() {
		_ = store.Close()
	}()

	apps, err := store.LoadApplications(ctx)
	if err != nil {
		return nil, 0, "", fmt.Errorf("failed to load staged applications: %w", err)
	}
	count, err := store.CountApplications(ctx)
	if err != nil {
		return nil, 0, "", fmt.Errorf("failed to count staged applications: %w", err)
	}
	return apps, count - len(apps), "staging store", nil
}

// loadBandedFile reads a raw application CSV and derives bands, folding parse
// and banding failures into one excluded count.
func loadBandedFile(ctx context.Context, path string) ([]model.BandedApplication, int, string, error) {
	result, err := loadApplicationFile(ctx, path)
	if err != nil {
		return nil, 0, "", err
	}
	banded, bandExcluded := deriveBanded(result.Applications, true)
	return banded, result.Excluded + bandExcluded, path, nil
}
