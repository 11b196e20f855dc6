package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fenwick/hindsight/internal/common"
	"github.com/fenwick/hindsight/internal/model"
	"github.com/fenwick/hindsight/internal/service"
)

// applicationColumns is the staged column order shared by inserts and selects.
var applicationColumns = []string{
	"application_id",
	"credit_score",
	"annual_income",
	"loan_amount",
	"term_months",
	"debt_to_income",
	"payment_to_income",
	"approved",
	"risk_band",
	"income_band",
	"amount_band",
	"term_band",
}

const createStagingTableSQL = `CREATE TABLE ` + stagingTable + ` (
	application_id TEXT PRIMARY KEY,
	credit_score INTEGER NOT NULL,
	annual_income DOUBLE PRECISION NOT NULL,
	loan_amount DOUBLE PRECISION NOT NULL,
	term_months INTEGER NOT NULL,
	debt_to_income DOUBLE PRECISION NOT NULL,
	payment_to_income DOUBLE PRECISION NOT NULL,
	approved BOOLEAN NOT NULL,
	risk_band TEXT NOT NULL,
	income_band TEXT NOT NULL,
	amount_band TEXT NOT NULL,
	term_band TEXT NOT NULL,
	staged_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// insertChunkSize keeps each multi-row insert well under Postgres's 65535
// bind-parameter limit.
const insertChunkSize = 500

// pgxPool is the subset of pgxpool.Pool the store uses. Tests substitute a
// pgxmock pool through it.
type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStorage implements the service.Storage interface against a managed
// Postgres database, typically a hosted instance shared with downstream
// reporting tools.
type PostgresStorage struct {
	pool pgxPool
}

var _ service.Storage = (*PostgresStorage)(nil)

// NewPostgresStorage connects to the database named by connString and verifies
// the connection.
func NewPostgresStorage(ctx context.Context, connString string) (*PostgresStorage, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(connString, "connString"); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

// ReplaceApplications rebuilds the staging table from scratch and uploads the
// given rows in a single transaction, then verifies the staged count against
// the local count. Rebuilding rather than truncating means a run can never
// inherit a stale schema or stale rows from an earlier upload.
func (s *PostgresStorage) ReplaceApplications(ctx context.Context, apps []model.BandedApplication) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateApplications(apps); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+stagingTable); err != nil {
		return fmt.Errorf("failed to drop staging table: %w", err)
	}
	if _, err := tx.Exec(ctx, createStagingTableSQL); err != nil {
		return fmt.Errorf("failed to create staging table: %w", err)
	}

	for start := 0; start < len(apps); start += insertChunkSize {
		end := min(start+insertChunkSize, len(apps))

		builder := newQueryBuilder().Insert(stagingTable).Columns(applicationColumns...)
		for i := start; i < end; i++ {
			app := &apps[i]
			builder = builder.Values(
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
		}

		sqlStr, args, err := builder.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build insert: %w", err)
		}
		if _, err := tx.Exec(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("failed to stage applications: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit staging upload: %w", err)
	}
	committed = true

	staged, err := s.CountApplications(ctx)
	if err != nil {
		return err
	}
	if staged != len(apps) {
		return fmt.Errorf("%w: staged %d, local %d", common.ErrCountMismatch, staged, len(apps))
	}

	slog.Info("Staged applications", "rows", staged)
	return nil
}

// CountApplications returns the number of staged rows.
func (s *PostgresStorage) CountApplications(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	sqlStr, args, err := newQueryBuilder().Select("COUNT(*)").From(stagingTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int
	if err := s.pool.QueryRow(ctx, sqlStr, args...).Scan(&count); err != nil {
		if isUndefinedTable(err) {
			return 0, fmt.Errorf("%w: %s", common.ErrStoreNotFound, stagingTable)
		}
		return 0, fmt.Errorf("failed to count staged applications: %w", err)
	}
	return count, nil
}

// LoadApplications pulls the staged dataset back with its band columns. Rows
// that no longer validate are logged and skipped rather than failing the load.
func (s *PostgresStorage) LoadApplications(ctx context.Context) ([]model.BandedApplication, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	sqlStr, args, err := newQueryBuilder().
		Select(applicationColumns...).
		From(stagingTable).
		OrderBy("application_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		if isUndefinedTable(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrStoreNotFound, stagingTable)
		}
		return nil, fmt.Errorf("failed to query staged applications: %w", err)
	}
	defer rows.Close()

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
	// pgx defers most query errors to here, missing tables included.
	if err := rows.Err(); err != nil {
		if isUndefinedTable(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrStoreNotFound, stagingTable)
		}
		return nil, fmt.Errorf("failed to read staged applications: %w", err)
	}

	return apps, nil
}

func newQueryBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable
}
