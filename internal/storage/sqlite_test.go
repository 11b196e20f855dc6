package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwick/hindsight/internal/bands"
	"github.com/fenwick/hindsight/internal/common"
	"github.com/fenwick/hindsight/internal/model"
)

// createTestStorage creates a migrated store backed by a temp database.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "staging.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

// stagedApplications builds count valid applications with derived bands.
func stagedApplications(t *testing.T, count int) []model.BandedApplication {
	t.Helper()

	apps := make([]model.BandedApplication, count)
	for i := 0; i < count; i++ {
		loan := model.LoanApplication{
			ApplicationID:   fmt.Sprintf("app-%03d", i+1),
			CreditScore:     620 + i*10,
			AnnualIncome:    45000 + float64(i)*1000,
			LoanAmount:      12000 + float64(i)*500,
			TermMonths:      36,
			DebtToIncome:    0.25,
			PaymentToIncome: 0.10,
			Approved:        i%2 == 0,
		}
		derived, err := bands.Derive(loan)
		require.NoError(t, err)
		apps[i] = model.BandedApplication{LoanApplication: loan, Bands: derived}
	}
	return apps
}

func TestSQLiteStorage_ReplaceAndLoad(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	apps := stagedApplications(t, 5)

	require.NoError(t, store.ReplaceApplications(ctx, apps))

	count, err := store.CountApplications(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	loaded, err := store.LoadApplications(ctx)
	require.NoError(t, err)
	assert.Equal(t, apps, loaded)
}

func TestSQLiteStorage_ReplaceOverwritesPreviousUpload(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceApplications(ctx, stagedApplications(t, 5)))

	second := stagedApplications(t, 2)
	second[0].LoanAmount = 9999
	require.NoError(t, store.ReplaceApplications(ctx, second))

	count, err := store.CountApplications(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	loaded, err := store.LoadApplications(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, 9999.0, loaded[0].LoanAmount)
}

func TestSQLiteStorage_CountApplications_Empty(t *testing.T) {
	store := createTestStorage(t)

	count, err := store.CountApplications(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSQLiteStorage_ReplaceApplications_Validation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	missingID := stagedApplications(t, 1)
	missingID[0].ApplicationID = ""

	badScore := stagedApplications(t, 1)
	badScore[0].CreditScore = 299

	badBand := stagedApplications(t, 1)
	badBand[0].Bands.Risk = model.RiskBand("mystery")

	tests := []struct {
		name    string
		apps    []model.BandedApplication
		wantErr error
	}{
		{name: "nil slice", apps: nil, wantErr: ErrNilParameter},
		{name: "empty slice", apps: []model.BandedApplication{}, wantErr: ErrEmptySlice},
		{name: "missing id", apps: missingID, wantErr: ErrInvalidApplication},
		{name: "out of domain field", apps: badScore, wantErr: ErrInvalidApplication},
		{name: "unknown band", apps: badBand, wantErr: ErrInvalidApplication},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.ReplaceApplications(ctx, tt.apps)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Nothing was staged by any of the rejected uploads.
	count, err := store.CountApplications(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSQLiteStorage_LoadApplications_SkipsCorruptRows(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceApplications(ctx, stagedApplications(t, 3)))

	// Corrupt one staged row behind the store's back.
	_, err := store.db.ExecContext(ctx,
		"UPDATE loan_data SET risk_band = 'mystery' WHERE application_id = 'app-002'")
	require.NoError(t, err)

	loaded, err := store.LoadApplications(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "app-001", loaded[0].ApplicationID)
	assert.Equal(t, "app-003", loaded[1].ApplicationID)
}

func TestSQLiteStorage_MissingTable(t *testing.T) {
	// No Migrate call, so the staging table does not exist.
	dbPath := filepath.Join(t.TempDir(), "unmigrated.db")
	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()

	_, err = store.CountApplications(ctx)
	assert.ErrorIs(t, err, common.ErrStoreNotFound)

	_, err = store.LoadApplications(ctx)
	assert.ErrorIs(t, err, common.ErrStoreNotFound)

	err = store.ReplaceApplications(ctx, stagedApplications(t, 1))
	assert.ErrorIs(t, err, common.ErrStoreNotFound)
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("")
	require.ErrorIs(t, err, ErrEmptyString)

	_, err = NewSQLiteStorage("   ")
	require.ErrorIs(t, err, ErrEmptyString)
}

func TestSQLiteStorage_Migrate_Idempotent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))

	var version int
	require.NoError(t, store.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestSQLiteStorage_NilContext(t *testing.T) {
	store := createTestStorage(t)

	var ctx context.Context
	_, err := store.CountApplications(ctx)
	require.ErrorIs(t, err, ErrNilContext)
}
