package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fenwick/hindsight/internal/cli"
	"github.com/fenwick/hindsight/internal/mirror"
	"github.com/fenwick/hindsight/internal/model"
	"github.com/fenwick/hindsight/internal/report"
	"github.com/fenwick/hindsight/internal/tui"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review <scored.csv>",
		Short: "🔎 Walk the exception review queue",
		Long: `Browse the flagged records from a scored CSV in an interactive table
with a detail pane. Arrow keys move, enter toggles detail, f cycles the
exception filter, q quits. Use --plain for non-interactive output.

Records are re-tagged at the given thresholds so margins and labels always
agree with --hi/--lo. Pass the thresholds the audit ran with, or move them
to explore. Band filters narrow the queue to one segment:

  --risk    subprime, near_prime, prime, super_prime
  --income  under_30k, 30k_60k, 60k_100k, over_100k
  --amount  micro, small, standard, jumbo
  --term    short, medium, long, extended

The queue orders by descending margin: the records the model disagrees
with hardest come first.`,
		Args: cobra.ExactArgs(1),
		RunE: runReview,
	}

	cmd.Flags().Float64("hi", mirror.DefaultHiThreshold, "probability at or above which a rejection is flagged")
	cmd.Flags().Float64("lo", mirror.DefaultLoThreshold, "probability at or below which an approval is flagged")
	cmd.Flags().String("risk", "", "only show exceptions in this risk band")
	cmd.Flags().String("income", "", "only show exceptions in this income band")
	cmd.Flags().String("amount", "", "only show exceptions in this amount band")
	cmd.Flags().String("term", "", "only show exceptions in this term band")
	cmd.Flags().Int("limit", mirror.DefaultQueueCap, "maximum queue length")
	cmd.Flags().Bool("plain", false, "print the queue instead of opening the browser")
	cmd.Flags().String("out", "", "write the queue to a CSV file")

	_ = viper.BindPFlag("review.hi_threshold", cmd.Flags().Lookup("hi"))
	_ = viper.BindPFlag("review.lo_threshold", cmd.Flags().Lookup("lo"))
	_ = viper.BindPFlag("review.risk", cmd.Flags().Lookup("risk"))
	_ = viper.BindPFlag("review.income", cmd.Flags().Lookup("income"))
	_ = viper.BindPFlag("review.amount", cmd.Flags().Lookup("amount"))
	_ = viper.BindPFlag("review.term", cmd.Flags().Lookup("term"))
	_ = viper.BindPFlag("review.limit", cmd.Flags().Lookup("limit"))
	_ = viper.BindPFlag("review.plain", cmd.Flags().Lookup("plain"))
	_ = viper.BindPFlag("review.out", cmd.Flags().Lookup("out"))

	return cmd
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	scored, err := loadScoredFile(ctx, args[0])
	if err != nil {
		return err
	}

	hi := viper.GetFloat64("review.hi_threshold")
	lo := viper.GetFloat64("review.lo_threshold")
	detector, err := mirror.New(hi, lo)
	if err != nil {
		return err
	}

	// Tags travel with the file, but the run that wrote them may have used
	// different thresholds. Re-tag so labels and margins agree.
	for i := range scored {
		scored[i].Exception = detector.Classify(scored[i].Probability, scored[i].Approved)
	}

	filter := mirror.SegmentFilter{
		Risk:   model.RiskBand(viper.GetString("review.risk")),
		Income: model.IncomeBand(viper.GetString("review.income")),
		Amount: model.AmountBand(viper.GetString("review.amount")),
		Term:   model.TermBand(viper.GetString("review.term")),
	}
	if err := filter.Validate(); err != nil {
		return err
	}

	queue := detector.BuildQueue(scored, filter, viper.GetInt("review.limit"))
	if len(queue) == 0 {
		fmt.Println(cli.FormatSuccess("No exceptions to review.")) //nolint:forbidigo // User-facing output
		return nil
	}

	if out := viper.GetString("review.out"); out != "" {
		if err := report.WriteQueueCSV(out, queue); err != nil {
			return err
		}
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("Wrote %d queue entries to %s", len(queue), out))) //nolint:forbidigo // User-facing output
		if !viper.GetBool("review.plain") {
			return nil
		}
	}

	if viper.GetBool("review.plain") {
		return report.NewRenderer(os.Stdout).RenderQueue(queue)
	}
	return tui.Run(queue, hi, lo)
}
