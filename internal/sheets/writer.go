package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/fenwick/hindsight/internal/common"
	"github.com/fenwick/hindsight/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Writer implements the ReportWriter interface for Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

var _ service.ReportWriter = (*Writer)(nil)

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		config:  config,
		service: service,
		logger:  logger,
	}, nil
}

// Write pushes the audit summary to the configured spreadsheet, replacing
// whatever a previous run left there.
func (w *Writer) Write(ctx context.Context, summary *service.AuditSummary) error {
	w.logger.Info("starting summary export",
		"run_id", summary.RunID,
		"total_rows", summary.TotalRows)

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if clearErr := w.clearSheet(ctx, spreadsheetID); clearErr != nil {
		return fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	values := w.prepareSummaryData(summary)

	// The export is the only network write in a run, so it is also the only
	// place that retries.
	retryOpts := service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	err = common.WithRetry(ctx, func() error {
		return w.writeData(ctx, spreadsheetID, values)
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return w.applyFormatting(ctx, spreadsheetID)
		}, retryOpts)
		if err != nil {
			// Data landed; cosmetics are not worth failing the export over.
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("summary export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))

	return nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath) // #nosec G304
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		oauthConfig := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}

		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}

		tokenSource = oauthConfig.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet gets an existing spreadsheet or creates a new one.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.config.SpreadsheetID != "" {
		// Verify the spreadsheet exists and is accessible
		_, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return w.config.SpreadsheetID, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{
				Properties: &sheets.SheetProperties{
					Title: "Audit Summary",
				},
			},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created.SpreadsheetId, nil
}

// clearSheet clears all data from the sheet.
func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, "A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// prepareSummaryData lays out the audit summary as spreadsheet rows: run
// metadata, diagnostics, calibration, heatmap and exception counts in the
// same order the terminal report presents them.
func (w *Writer) prepareSummaryData(summary *service.AuditSummary) [][]any {
	estimatedRows := 32 + len(summary.Calibration) + len(summary.Heatmap)
	values := make([][]any, 0, estimatedRows)

	d := summary.Diagnostics
	values = append(values,
		[]any{"Lending Decision Audit", summary.RunID},
		[]any{"Generated", summary.GeneratedAt.Format(time.RFC3339)},
		[]any{"Source", summary.Source},
		[]any{}, // Empty row
		[]any{"Run"},
		[]any{"Total Rows", summary.TotalRows},
		[]any{"Excluded Rows", summary.ExcludedRows},
		[]any{"Hi Threshold", summary.HiThreshold},
		[]any{"Lo Threshold", summary.LoThreshold},
		[]any{"Seed", summary.Seed},
		[]any{}, // Empty row
		[]any{"Model Diagnostics"},
		[]any{"Accuracy", d.Accuracy},
		[]any{"ROC AUC", d.ROCAUC},
		[]any{"Train Rows", d.TrainRows},
		[]any{"Holdout Rows", d.HoldoutRows},
		[]any{"", "model approve", "model reject"},
		[]any{"history approve", d.TruePositives, d.FalseNegatives},
		[]any{"history reject", d.FalsePositives, d.TrueNegatives},
		[]any{"Approve Precision", d.ApprovePrecision},
		[]any{"Approve Recall", d.ApproveRecall},
		[]any{"Reject Precision", d.RejectPrecision},
		[]any{"Reject Recall", d.RejectRecall},
		[]any{}, // Empty row
		[]any{"Calibration"},
		[]any{"Bucket", "Low", "High", "Count", "Approval Rate"},
	)

	for _, row := range summary.Calibration {
		values = append(values, []any{row.Bucket, row.Low, row.High, row.Count, row.ApprovalRate})
	}

	values = append(values,
		[]any{}, // Empty row
		[]any{"Approval Heatmap"},
		[]any{"Risk Band", "Income Band", "Count", "Approval Rate"},
	)
	for _, cell := range summary.Heatmap {
		values = append(values, []any{string(cell.Risk), string(cell.Income), cell.Count, cell.ApprovalRate})
	}

	values = append(values,
		[]any{}, // Empty row
		[]any{"Exceptions"},
		[]any{"normal", summary.Exceptions.Normal},
		[]any{"under_approval", summary.Exceptions.UnderApproval},
		[]any{"over_approval", summary.Exceptions.OverApproval},
		[]any{"total", summary.Exceptions.Total()},
	)

	return values
}

// writeData writes the summary rows in a single update; the artifact is small
// enough that batching would be noise.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	valueRange := &sheets.ValueRange{
		Values: values,
	}

	_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, "A1", valueRange).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return w.classifyAPIError(fmt.Errorf("failed to write summary rows: %w", err))
	}

	w.logger.Debug("wrote summary", "rows", len(values))
	return nil
}

// classifyAPIError maps Google API failures onto the retry machinery: rate
// limits wait out the full backoff cap, server errors retry, and anything
// else is a caller mistake that fails fast.
func (w *Writer) classifyAPIError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		// Transport failures carry no status code; let the default
		// retry policy handle them.
		return err
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		w.logger.Warn("Sheets API rate limit hit, will retry", "error", err)
		return fmt.Errorf("%w: %v", common.ErrRateLimit, err)
	case apiErr.Code >= http.StatusInternalServerError:
		return &common.RetryableError{Err: err, Retryable: true}
	default:
		return &common.RetryableError{Err: err, Retryable: false}
	}
}

// applyFormatting applies formatting to the spreadsheet.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string) error {
	requests := []*sheets.Request{
		// Format title row
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          0,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   2,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{
							Bold:     true,
							FontSize: 14,
						},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		// Auto-resize columns
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    0,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   5,
				},
			},
		},
		// Freeze the run metadata block
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: 0,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount: 3,
					},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	batchUpdate := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, batchUpdate).Context(ctx).Do()
	if err != nil {
		return w.classifyAPIError(fmt.Errorf("failed to apply formatting: %w", err))
	}
	return nil
}
