package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fenwick/hindsight/internal/metrics"
	"github.com/fenwick/hindsight/internal/mirror"
	"github.com/fenwick/hindsight/internal/report"
	"github.com/fenwick/hindsight/internal/service"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [scored.csv]",
		Short: "📊 Render an audit summary without re-running the audit",
		Long: `Render a finished audit without refitting anything.

With --summary, pretty-prints a stored summary.json exactly as the audit
run wrote it. With a scored CSV, rebuilds calibration, heatmap and
exception counts from the scored rows, re-tagging every record at the
given thresholds. Rebuilding supports threshold sensitivity checks: move
--hi and --lo and see how the exception counts shift without refitting.
A rebuilt summary carries no hold-out diagnostics, so that section is
omitted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runReport,
	}

	cmd.Flags().String("summary", "", "render a stored summary.json instead of rebuilding")
	cmd.Flags().Float64("hi", mirror.DefaultHiThreshold, "probability at or above which a rejection is flagged")
	cmd.Flags().Float64("lo", mirror.DefaultLoThreshold, "probability at or below which an approval is flagged")
	cmd.Flags().Bool("sheets", false, "export the rendered summary to Google Sheets")

	_ = viper.BindPFlag("report.summary", cmd.Flags().Lookup("summary"))
	_ = viper.BindPFlag("report.hi_threshold", cmd.Flags().Lookup("hi"))
	_ = viper.BindPFlag("report.lo_threshold", cmd.Flags().Lookup("lo"))
	_ = viper.BindPFlag("report.sheets", cmd.Flags().Lookup("sheets"))

	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	summaryPath := viper.GetString("report.summary")
	if summaryPath != "" && len(args) > 0 {
		return fmt.Errorf("pass a scored file or --summary, not both")
	}
	if summaryPath == "" && len(args) == 0 {
		return fmt.Errorf("nothing to report: pass a scored file or --summary")
	}

	var (
		summary *service.AuditSummary
		err     error
	)
	if summaryPath != "" {
		summary, err = report.ReadSummaryJSON(summaryPath)
	} else {
		summary, err = rebuildSummary(ctx, args[0])
	}
	if err != nil {
		return err
	}

	if err := report.NewRenderer(os.Stdout).Render(summary); err != nil {
		return err
	}

	if viper.GetBool("report.sheets") {
		return exportSummary(ctx, summary)
	}
	return nil
}

// rebuildSummary reconstructs the aggregate sections from scored rows. The
// fitted model is gone at this point, so there is no hold-out evaluation and
// no run identity to report.
func rebuildSummary(ctx context.Context, path string) (*service.AuditSummary, error) {
	scored, err := loadScoredFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(scored) == 0 {
		return nil, fmt.Errorf("no scored rows in %s", path)
	}

	hi := viper.GetFloat64("report.hi_threshold")
	lo := viper.GetFloat64("report.lo_threshold")
	detector, err := mirror.New(hi, lo)
	if err != nil {
		return nil, err
	}

	probs := make([]float64, len(scored))
	outcomes := make([]bool, len(scored))
	for i := range scored {
		probs[i] = scored[i].Probability
		outcomes[i] = scored[i].Approved
		scored[i].Exception = detector.Classify(scored[i].Probability, scored[i].Approved)
	}

	return &service.AuditSummary{
		GeneratedAt: time.Now().UTC(),
		Source:      path,
		TotalRows:   len(scored),
		HiThreshold: hi,
		LoThreshold: lo,
		Calibration: metrics.Calibration(probs, outcomes, lo, hi),
		Heatmap:     report.Heatmap(scored),
		Exceptions:  report.CountExceptions(scored),
	}, nil
}
