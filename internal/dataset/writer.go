package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fenwick/hindsight/internal/model"
)

// WriteScoredFile writes scored applications as a delimited file. The export
// is staged in the destination directory and renamed into place, so a failed
// run never leaves a partial artifact behind.
func WriteScoredFile(path string, apps []model.ScoredApplication) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".scored-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(ScoredHeader()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, app := range apps {
		if err := w.Write(scoredRow(app)); err != nil {
			return fmt.Errorf("failed to write record %s: %w", app.ApplicationID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush records: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move scored file into place: %w", err)
	}

	return nil
}

func scoredRow(app model.ScoredApplication) []string {
	return []string{
		app.ApplicationID,
		strconv.Itoa(app.CreditScore),
		strconv.FormatFloat(app.AnnualIncome, 'f', 2, 64),
		strconv.FormatFloat(app.LoanAmount, 'f', 2, 64),
		strconv.Itoa(app.TermMonths),
		strconv.FormatFloat(app.DebtToIncome, 'f', 4, 64),
		strconv.FormatFloat(app.PaymentToIncome, 'f', 4, 64),
		strconv.FormatBool(app.Approved),
		string(app.Bands.Risk),
		string(app.Bands.Income),
		string(app.Bands.Amount),
		string(app.Bands.Term),
		strconv.FormatFloat(app.Probability, 'f', 6, 64),
		string(app.Exception),
	}
}
