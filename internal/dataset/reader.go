package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/fenwick/hindsight/internal/common"
	"github.com/fenwick/hindsight/internal/model"
)

// Reader implements application file parsing.
type Reader struct{}

// NewReader creates a new file reader.
func NewReader() *Reader {
	return &Reader{}
}

// LoadResult carries the outcome of a file load. Excluded counts rows that
// were present in the file but dropped for malformed or out-of-domain values.
type LoadResult struct {
	Applications []model.LoanApplication
	RowsRead     int
	Excluded     int
}

// ParseFile reads a delimited file of loan applications. Header problems
// abort the load with an error naming every missing column; malformed and
// out-of-domain rows are logged and excluded instead.
func (r *Reader) ParseFile(ctx context.Context, reader io.Reader) (*LoadResult, error) {
	cr := csv.NewReader(reader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, common.ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols, err := mapColumns(header, RequiredColumns())
	if err != nil {
		return nil, err
	}

	result := &LoadResult{}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record after row %d: %w", result.RowsRead, err)
		}

		result.RowsRead++
		app, err := parseApplication(record, cols)
		if err != nil {
			result.Excluded++
			slog.Warn("Excluding malformed record",
				"row", result.RowsRead,
				"error", err)
			continue
		}

		app.ApplicationID = app.EffectiveID(result.RowsRead)
		if err := app.Validate(); err != nil {
			result.Excluded++
			slog.Warn("Excluding out-of-domain record",
				"row", result.RowsRead,
				"application_id", app.ApplicationID,
				"error", err)
			continue
		}

		result.Applications = append(result.Applications, app)
	}

	if len(result.Applications) == 0 {
		return nil, fmt.Errorf("%w: no usable records in input", common.ErrEmptyDataset)
	}

	slog.Info("Loaded application file",
		"rows", result.RowsRead,
		"loaded", len(result.Applications),
		"excluded", result.Excluded)

	return result, nil
}

// ParseScoredFile reads a previously scored export back in, re-validating
// bands, probabilities and exception tags so a hand-edited file cannot feed
// garbage into reporting.
func (r *Reader) ParseScoredFile(ctx context.Context, reader io.Reader) ([]model.ScoredApplication, error) {
	cr := csv.NewReader(reader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, common.ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols, err := mapColumns(header, ScoredHeader())
	if err != nil {
		return nil, err
	}

	var (
		scored   []model.ScoredApplication
		row      int
		excluded int
	)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record after row %d: %w", row, err)
		}

		row++
		app, err := parseScored(record, cols)
		if err != nil {
			excluded++
			slog.Warn("Excluding invalid scored record",
				"row", row,
				"error", err)
			continue
		}
		scored = append(scored, app)
	}

	if len(scored) == 0 {
		return nil, fmt.Errorf("%w: no usable records in scored file", common.ErrEmptyDataset)
	}
	if excluded > 0 {
		slog.Warn("Scored file contained invalid records", "excluded", excluded)
	}

	return scored, nil
}

// mapColumns resolves header names to indices and reports every required
// column that is absent, not just the first.
func mapColumns(header, required []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		// Files exported from spreadsheets often carry a BOM on the first cell.
		name = strings.TrimPrefix(name, "\ufeff")
		if name == "" {
			continue
		}
		cols[name] = i
	}

	var missing []string
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrMissingColumns, strings.Join(missing, ", "))
	}

	return cols, nil
}

func parseApplication(record []string, cols map[string]int) (model.LoanApplication, error) {
	var app model.LoanApplication
	if idx, ok := cols[ColApplicationID]; ok && idx < len(record) {
		app.ApplicationID = strings.TrimSpace(record[idx])
	}

	var err error
	if app.CreditScore, err = intField(record, cols, ColCreditScore); err != nil {
		return app, err
	}
	if app.AnnualIncome, err = floatField(record, cols, ColAnnualIncome); err != nil {
		return app, err
	}
	if app.LoanAmount, err = floatField(record, cols, ColLoanAmount); err != nil {
		return app, err
	}
	if app.TermMonths, err = intField(record, cols, ColTermMonths); err != nil {
		return app, err
	}
	if app.DebtToIncome, err = floatField(record, cols, ColDebtToIncome); err != nil {
		return app, err
	}
	if app.PaymentToIncome, err = floatField(record, cols, ColPaymentToIncome); err != nil {
		return app, err
	}
	if app.Approved, err = boolField(record, cols, ColApproved); err != nil {
		return app, err
	}

	return app, nil
}

func parseScored(record []string, cols map[string]int) (model.ScoredApplication, error) {
	var scored model.ScoredApplication

	app, err := parseApplication(record, cols)
	if err != nil {
		return scored, err
	}
	if app.ApplicationID == "" {
		return scored, fmt.Errorf("missing value for %s", ColApplicationID)
	}
	if err := app.Validate(); err != nil {
		return scored, err
	}
	scored.LoanApplication = app

	risk, err := stringField(record, cols, ColRiskBand)
	if err != nil {
		return scored, err
	}
	income, err := stringField(record, cols, ColIncomeBand)
	if err != nil {
		return scored, err
	}
	amount, err := stringField(record, cols, ColAmountBand)
	if err != nil {
		return scored, err
	}
	term, err := stringField(record, cols, ColTermBand)
	if err != nil {
		return scored, err
	}
	scored.Bands = model.Bands{
		Risk:   model.RiskBand(risk),
		Income: model.IncomeBand(income),
		Amount: model.AmountBand(amount),
		Term:   model.TermBand(term),
	}
	if !scored.Bands.Valid() {
		return scored, fmt.Errorf("unknown band combination %s/%s/%s/%s", risk, income, amount, term)
	}

	if scored.Probability, err = floatField(record, cols, ColProbability); err != nil {
		return scored, err
	}
	if scored.Probability < 0 || scored.Probability > 1 {
		return scored, fmt.Errorf("%w: probability %v outside [0, 1]", model.ErrOutOfDomain, scored.Probability)
	}

	tag, err := stringField(record, cols, ColException)
	if err != nil {
		return scored, err
	}
	scored.Exception = model.ExceptionType(tag)
	if !scored.Exception.Valid() {
		return scored, fmt.Errorf("unknown exception tag %q", tag)
	}

	return scored, nil
}

func stringField(record []string, cols map[string]int, name string) (string, error) {
	idx := cols[name]
	if idx >= len(record) {
		return "", fmt.Errorf("missing value for %s", name)
	}
	value := strings.TrimSpace(record[idx])
	if value == "" {
		return "", fmt.Errorf("missing value for %s", name)
	}
	return value, nil
}

func intField(record []string, cols map[string]int, name string) (int, error) {
	raw, err := stringField(record, cols, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func floatField(record []string, cols map[string]int, name string) (float64, error) {
	raw, err := stringField(record, cols, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func boolField(record []string, cols map[string]int, name string) (bool, error) {
	raw, err := stringField(record, cols, name)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(raw) {
	case "1", "true", "approved", "yes":
		return true, nil
	case "0", "false", "rejected", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid %s %q", name, raw)
}
