package storage

import (
	"context"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwick/hindsight/internal/common"
	"github.com/fenwick/hindsight/internal/model"
)

func newMockStorage(t *testing.T) (*PostgresStorage, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStorage{pool: mock}, mock
}

func TestPostgresStorage_ReplaceApplications(t *testing.T) {
	store, mock := newMockStorage(t)
	apps := stagedApplications(t, 2)

	mock.ExpectBegin()
	mock.ExpectExec("DROP TABLE IF EXISTS loan_data").
		WillReturnResult(pgxmock.NewResult("DROP", 0))
	mock.ExpectExec("CREATE TABLE loan_data").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("INSERT INTO loan_data").
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM loan_data`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	require.NoError(t, store.ReplaceApplications(context.Background(), apps))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_ReplaceApplications_CountMismatch(t *testing.T) {
	store, mock := newMockStorage(t)
	apps := stagedApplications(t, 2)

	mock.ExpectBegin()
	mock.ExpectExec("DROP TABLE IF EXISTS loan_data").
		WillReturnResult(pgxmock.NewResult("DROP", 0))
	mock.ExpectExec("CREATE TABLE loan_data").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("INSERT INTO loan_data").
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM loan_data`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(5))

	err := store.ReplaceApplications(context.Background(), apps)
	require.ErrorIs(t, err, common.ErrCountMismatch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_ReplaceApplications_RollsBackOnError(t *testing.T) {
	store, mock := newMockStorage(t)
	apps := stagedApplications(t, 1)

	mock.ExpectBegin()
	mock.ExpectExec("DROP TABLE IF EXISTS loan_data").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := store.ReplaceApplications(context.Background(), apps)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_CountApplications_MissingTable(t *testing.T) {
	store, mock := newMockStorage(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM loan_data`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UndefinedTable})

	_, err := store.CountApplications(context.Background())
	require.ErrorIs(t, err, common.ErrStoreNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_LoadApplications(t *testing.T) {
	store, mock := newMockStorage(t)

	rows := pgxmock.NewRows(applicationColumns).
		AddRow("app-001", 705, 84000.0, 22500.0, 48, 0.31, 0.12, true,
			"prime", "60k_100k", "standard", "long").
		AddRow("app-002", 512, 28000.0, 4000.0, 12, 0.44, 0.20, false,
			"subprime", "under_30k", "micro", "short").
		AddRow("app-003", 640, 51000.0, 8000.0, 36, 0.30, 0.15, true,
			"mystery", "30k_60k", "small", "medium")
	mock.ExpectQuery("SELECT (.+) FROM loan_data ORDER BY application_id").
		WillReturnRows(rows)

	apps, err := store.LoadApplications(context.Background())
	require.NoError(t, err)

	// The row with the unknown band value is skipped, not fatal.
	require.Len(t, apps, 2)
	assert.Equal(t, "app-001", apps[0].ApplicationID)
	assert.Equal(t, model.RiskPrime, apps[0].Bands.Risk)
	assert.True(t, apps[0].Approved)
	assert.Equal(t, "app-002", apps[1].ApplicationID)
	assert.Equal(t, model.TermShort, apps[1].Bands.Term)
	assert.False(t, apps[1].Approved)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_LoadApplications_MissingTable(t *testing.T) {
	store, mock := newMockStorage(t)

	mock.ExpectQuery("SELECT (.+) FROM loan_data").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UndefinedTable})

	_, err := store.LoadApplications(context.Background())
	require.ErrorIs(t, err, common.ErrStoreNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresStorage_EmptyConnString(t *testing.T) {
	_, err := NewPostgresStorage(context.Background(), "  ")
	require.ErrorIs(t, err, ErrEmptyString)
}
