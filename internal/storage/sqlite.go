package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fenwick/hindsight/internal/common"
	"github.com/fenwick/hindsight/internal/model"
	"github.com/fenwick/hindsight/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage implements the service.Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

var _ service.Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	// Validate input
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite doesn't benefit from multiple connections
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// ReplaceApplications clears the staging table and uploads the given rows in a
// single transaction, then verifies the staged count against the local count.
func (s *SQLiteStorage) ReplaceApplications(ctx context.Context, apps []model.BandedApplication) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateApplications(apps); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.replaceApplicationsTx(ctx, tx, apps); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit staging upload: %w", err)
	}

	staged, err := s.CountApplications(ctx)
	if err != nil {
		return err
	}
	if staged != len(apps) {
		return fmt.Errorf("%w: staged %d, local %d", common.ErrCountMismatch, staged, len(apps))
	}

	slog.Info("Staged applications", "rows", staged, "path", s.dbPath)
	return nil
}

func (s *SQLiteStorage) replaceApplicationsTx(ctx context.Context, tx *sql.Tx, apps []model.BandedApplication) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM loan_data"); err != nil {
		if isMissingTable(err) {
			return fmt.Errorf("%w: %s", common.ErrStoreNotFound, stagingTable)
		}
		return fmt.Errorf("failed to clear staging table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO loan_data (
			application_id, credit_score, annual_income, loan_amount,
			term_months, debt_to_income, payment_to_income, approved,
			risk_band, income_band, amount_band, term_band
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range apps {
		app := &apps[i]
		_, err = stmt.ExecContext(ctx,
			app.ApplicationID,
			app.CreditScore,
			app.AnnualIncome,
			app.LoanAmount,
			app.TermMonths,
			app.DebtToIncome,
			app.PaymentToIncome,
			app.Approved,
			string(app.Bands.Risk),
			string(app.Bands.Income),
			string(app.Bands.Amount),
			string(app.Bands.Term),
		)
		if err != nil {
			return fmt.Errorf("failed to stage application %s: %w", app.ApplicationID, err)
		}
	}

	return nil
}

// CountApplications returns the number of staged rows.
func (s *SQLiteStorage) CountApplications(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM loan_data").Scan(&count)
	if err != nil {
		if isMissingTable(err) {
			return 0, fmt.Errorf("%w: %s", common.ErrStoreNotFound, stagingTable)
		}
		return 0, fmt.Errorf("failed to count staged applications: %w", err)
	}
	return count, nil
}

// LoadApplications pulls the staged dataset back with its band columns. Rows
// that no longer validate are logged and skipped rather than failing the load.
func (s *SQLiteStorage) LoadApplications(ctx context.Context) ([]model.BandedApplication, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT application_id, credit_score, annual_income, loan_amount,
			term_months, debt_to_income, payment_to_income, approved,
			risk_band, income_band, amount_band, term_band
		FROM loan_data
		ORDER BY application_id
	`)
	if err != nil {
		if isMissingTable(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrStoreNotFound, stagingTable)
		}
		return nil, fmt.Errorf("failed to query staged applications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var apps []model.BandedApplication
	for rows.Next() {
		var app model.BandedApplication
		var risk, income, amount, term string
		if err := rows.Scan(
			&app.ApplicationID,
			&app.CreditScore,
			&app.AnnualIncome,
			&app.LoanAmount,
			&app.TermMonths,
			&app.DebtToIncome,
			&app.PaymentToIncome,
			&app.Approved,
			&risk, &income, &amount, &term,
		); err != nil {
			return nil, fmt.Errorf("failed to scan staged application: %w", err)
		}
		app.Bands = model.Bands{
			Risk:   model.RiskBand(risk),
			Income: model.IncomeBand(income),
			Amount: model.AmountBand(amount),
			Term:   model.TermBand(term),
		}

		if err := validateApplication(&app); err != nil {
			slog.Warn("Skipping staged application",
				"application_id", app.ApplicationID,
				"error", err)
			continue
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read staged applications: %w", err)
	}

	return apps, nil
}

// isMissingTable reports whether err is SQLite's missing-table error. The
// driver reports it as a generic SQLITE_ERROR, so the message is all there is.
func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
