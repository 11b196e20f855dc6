package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fenwick/hindsight/internal/mirror"
	"github.com/fenwick/hindsight/internal/service"
)

// WriteSummaryJSON exports the audit summary as indented JSON. Like every
// artifact, it is staged and renamed so failures leave nothing behind.
func WriteSummaryJSON(path string, summary *service.AuditSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return writeAtomic(path, ".summary-*.json", func(f *os.File) error {
		if _, err := f.Write(data); err != nil {
			return err
		}
		_, err := f.Write([]byte("\n"))
		return err
	})
}

// ReadSummaryJSON loads a summary previously written by WriteSummaryJSON.
func ReadSummaryJSON(path string) (*service.AuditSummary, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied artifact path
	if err != nil {
		return nil, fmt.Errorf("failed to read summary %s: %w", path, err)
	}
	var summary service.AuditSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary %s: %w", path, err)
	}
	return &summary, nil
}

// WriteQueueCSV exports the review queue as a delimited file, in queue order.
func WriteQueueCSV(path string, items []mirror.ReviewItem) error {
	return writeAtomic(path, ".queue-*.csv", func(f *os.File) error {
		w := csv.NewWriter(f)
		header := []string{
			"application_id", "exception", "probability", "margin", "approved",
			"risk_band", "income_band", "amount_band", "term_band",
		}
		if err := w.Write(header); err != nil {
			return err
		}
		for _, item := range items {
			record := []string{
				item.ApplicationID,
				string(item.Exception),
				strconv.FormatFloat(item.Probability, 'f', 6, 64),
				strconv.FormatFloat(item.Margin, 'f', 6, 64),
				strconv.FormatBool(item.Approved),
				string(item.Bands.Risk),
				string(item.Bands.Income),
				string(item.Bands.Amount),
				string(item.Bands.Term),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}

// writeAtomic stages content in a temp file next to the destination and
// renames it into place on success.
func writeAtomic(path, pattern string, fill func(*os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if err := fill(tmp); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", filepath.Base(path), err)
	}
	return nil
}
