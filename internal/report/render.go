package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fenwick/hindsight/internal/cli"
	"github.com/fenwick/hindsight/internal/mirror"
	"github.com/fenwick/hindsight/internal/model"
	"github.com/fenwick/hindsight/internal/service"
)

// Renderer writes a human-readable audit report to a terminal.
type Renderer struct {
	writer io.Writer
}

// NewRenderer creates a renderer targeting the given writer.
func NewRenderer(writer io.Writer) *Renderer {
	return &Renderer{writer: writer}
}

// Render prints the full audit summary: run header, model diagnostics,
// calibration table, approval heatmap and exception counts. A summary
// rebuilt from a scored file carries no hold-out evaluation; that section
// is skipped rather than printed as zeros.
func (r *Renderer) Render(summary *service.AuditSummary) error {
	sections := []struct {
		title   string
		content string
	}{
		{"Audit Run", r.runHeader(summary)},
		{"Model Diagnostics", r.diagnostics(summary.Diagnostics)},
		{"Calibration", r.calibration(summary.Calibration)},
		{"Approval Heatmap", r.heatmap(summary.Heatmap)},
		{"Exceptions", r.exceptions(summary.Exceptions)},
	}
	if summary.Diagnostics.HoldoutRows == 0 {
		sections = append(sections[:1], sections[2:]...)
	}

	for _, s := range sections {
		if _, err := fmt.Fprintln(r.writer, cli.RenderBox(s.title, s.content)); err != nil {
			return fmt.Errorf("failed to write %s section: %w", s.title, err)
		}
	}
	return nil
}

// RenderQueue prints the review queue as a compact table.
func (r *Renderer) RenderQueue(items []mirror.ReviewItem) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(r.writer, cli.FormatSuccess("No exceptions to review."))
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-14s %-16s %-12s %-10s %-8s %s\n",
		"APPLICATION", "EXCEPTION", "PROBABILITY", "HISTORY", "MARGIN", "SEGMENT")
	for _, item := range items {
		history := "rejected"
		if item.Approved {
			history = "approved"
		}
		fmt.Fprintf(&b, "%-14s %-16s %-12.4f %-10s %-8.4f %s/%s\n",
			item.ApplicationID,
			string(item.Exception),
			item.Probability,
			history,
			item.Margin,
			item.Bands.Risk,
			item.Bands.Income)
	}

	title := fmt.Sprintf("Review Queue (%d)", len(items))
	if _, err := fmt.Fprintln(r.writer, cli.RenderBox(title, strings.TrimRight(b.String(), "\n"))); err != nil {
		return fmt.Errorf("failed to write review queue: %w", err)
	}
	return nil
}

func (r *Renderer) runHeader(summary *service.AuditSummary) string {
	var lines []string
	// A summary rebuilt from scored rows has no run identity.
	if summary.RunID != "" {
		lines = append(lines, fmt.Sprintf("Run:        %s", summary.RunID))
	}
	lines = append(lines,
		fmt.Sprintf("Source:     %s", summary.Source),
		fmt.Sprintf("Generated:  %s", summary.GeneratedAt.Format("2006-01-02 15:04:05")),
		fmt.Sprintf("Rows:       %d analyzed, %d excluded", summary.TotalRows, summary.ExcludedRows),
		fmt.Sprintf("Thresholds: flag if p >= %.2f and rejected, or p <= %.2f and approved",
			summary.HiThreshold, summary.LoThreshold),
	)
	if summary.RunID != "" {
		lines = append(lines, fmt.Sprintf("Seed:       %d", summary.Seed))
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) diagnostics(d service.ModelDiagnostics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Accuracy:   %.4f    ROC-AUC: %.4f\n", d.Accuracy, d.ROCAUC)
	fmt.Fprintf(&b, "Split:      %d train / %d hold-out\n\n", d.TrainRows, d.HoldoutRows)
	fmt.Fprintf(&b, "Confusion (hold-out, cut at 0.5):\n")
	fmt.Fprintf(&b, "  %-18s %8s %8s\n", "", "approve", "reject")
	fmt.Fprintf(&b, "  %-18s %8d %8d\n", "history approve", d.TruePositives, d.FalseNegatives)
	fmt.Fprintf(&b, "  %-18s %8d %8d\n\n", "history reject", d.FalsePositives, d.TrueNegatives)
	fmt.Fprintf(&b, "Approve: precision %.4f, recall %.4f\n", d.ApprovePrecision, d.ApproveRecall)
	fmt.Fprintf(&b, "Reject:  precision %.4f, recall %.4f", d.RejectPrecision, d.RejectRecall)
	return b.String()
}

func (r *Renderer) calibration(rows []service.CalibrationRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-16s %-14s %8s %14s\n", "BUCKET", "RANGE", "COUNT", "APPROVAL RATE")
	for _, row := range rows {
		fmt.Fprintf(&b, "%-16s [%.2f, %.2f] %8d %14.4f\n",
			row.Bucket, row.Low, row.High, row.Count, row.ApprovalRate)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Renderer) heatmap(cells []service.HeatmapCell) string {
	rates := make(map[model.RiskBand]map[model.IncomeBand]service.HeatmapCell)
	for _, cell := range cells {
		if rates[cell.Risk] == nil {
			rates[cell.Risk] = make(map[model.IncomeBand]service.HeatmapCell)
		}
		rates[cell.Risk][cell.Income] = cell
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-13s", "")
	for _, income := range model.IncomeBands {
		fmt.Fprintf(&b, "%12s", string(income))
	}
	b.WriteString("\n")
	for _, risk := range model.RiskBands {
		fmt.Fprintf(&b, "%-13s", string(risk))
		for _, income := range model.IncomeBands {
			cell := rates[risk][income]
			if cell.Count == 0 {
				fmt.Fprintf(&b, "%12s", "-")
				continue
			}
			fmt.Fprintf(&b, "%12s", fmt.Sprintf("%.2f (%d)", cell.ApprovalRate, cell.Count))
		}
		b.WriteString("\n")
	}
	b.WriteString("\napproval rate (count), historical outcomes")
	return b.String()
}

func (r *Renderer) exceptions(counts service.ExceptionCounts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Normal:         %d\n", counts.Normal)
	b.WriteString(cli.FormatException(fmt.Sprintf("Under-approval: %d (model would approve, history rejected)", counts.UnderApproval)))
	b.WriteString("\n")
	b.WriteString(cli.FormatException(fmt.Sprintf("Over-approval:  %d (model would reject, history approved)", counts.OverApproval)))
	return b.String()
}
