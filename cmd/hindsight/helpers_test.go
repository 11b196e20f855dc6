package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwick/hindsight/internal/dataset"
	"github.com/fenwick/hindsight/internal/model"
	"github.com/fenwick/hindsight/internal/testutil"
)

const dirtyCSV = `application_id,credit_score,annual_income,loan_amount,term_months,debt_to_income,payment_to_income,approved
app-001,712,85000,20000,48,0.31,0.12,1
app-002,not-a-number,42000,8000,36,0.44,0.18,0
app-003,299,42000,8000,36,0.44,0.18,0
app-004,655,58000,15000,60,0.38,0.15,maybe
app-005,640,51000,12000,36,0.35,0.14,0
`

func scoredRow(id string, p float64, approved bool, e model.ExceptionType) model.ScoredApplication {
	return model.ScoredApplication{
		BandedApplication: model.BandedApplication{
			LoanApplication: model.LoanApplication{
				ApplicationID:   id,
				CreditScore:     700,
				AnnualIncome:    50_000,
				LoanAmount:      20_000,
				TermMonths:      36,
				DebtToIncome:    0.3,
				PaymentToIncome: 0.1,
				Approved:        approved,
			},
			Bands: model.Bands{
				Risk:   model.RiskPrime,
				Income: model.Income30To60K,
				Amount: model.AmountStandard,
				Term:   model.TermMedium,
			},
		},
		Probability: p,
		Exception:   e,
	}
}

func TestStringSetting(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("store", "", "")

	viper.Set("storage.path", "from-config.db")
	defer viper.Reset()

	assert.Equal(t, "from-config.db", stringSetting(cmd, "store", "storage.path"))

	// An explicit flag beats whatever config says.
	require.NoError(t, cmd.Flags().Set("store", "from-flag.db"))
	assert.Equal(t, "from-flag.db", stringSetting(cmd, "store", "storage.path"))
}

func TestDeriveBanded(t *testing.T) {
	apps := []model.LoanApplication{
		{ApplicationID: "a", CreditScore: 712, AnnualIncome: 85_000, LoanAmount: 20_000, TermMonths: 48, Approved: true},
		{ApplicationID: "b", CreditScore: 299, AnnualIncome: 42_000, LoanAmount: 8_000, TermMonths: 36},
	}

	banded, excluded := deriveBanded(apps, false)

	require.Len(t, banded, 1)
	assert.Equal(t, 1, excluded)
	assert.Equal(t, "a", banded[0].ApplicationID)
	assert.Equal(t, model.RiskPrime, banded[0].Bands.Risk)
	assert.Equal(t, model.TermLong, banded[0].Bands.Term)
}

func TestLoadBandedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loans.csv")
	require.NoError(t, os.WriteFile(path, []byte(dirtyCSV), 0o600))

	banded, excluded, source, err := loadBandedFile(context.Background(), path)
	require.NoError(t, err)

	// The reader drops the bad score, the out-of-domain score and the
	// bad outcome flag; both clean rows band fine.
	assert.Len(t, banded, 2)
	assert.Equal(t, 3, excluded)
	assert.Equal(t, path, source)
}

func TestOpenStoreSQLite(t *testing.T) {
	cmd := &cobra.Command{}
	addStorageFlags(cmd)

	viper.Set("storage.backend", "sqlite")
	viper.Set("storage.path", filepath.Join(t.TempDir(), "staging.db"))
	defer viper.Reset()

	ctx := context.Background()
	store, err := openStore(ctx, cmd)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, store.Close())
	}()

	// Migrations ran, so the staging table is queryable immediately.
	count, err := store.CountApplications(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLoadStaged(t *testing.T) {
	apps := testutil.NewDatasetBuilder(5).WithRows(40).Build(t)
	path := filepath.Join(t.TempDir(), "staging.db")
	testutil.SetupStagingStore(t, path, apps)

	cmd := &cobra.Command{}
	addStorageFlags(cmd)

	viper.Set("storage.backend", "sqlite")
	viper.Set("storage.path", path)
	defer viper.Reset()

	banded, excluded, source, err := loadStaged(context.Background(), cmd)
	require.NoError(t, err)

	assert.Len(t, banded, 40)
	assert.Zero(t, excluded)
	assert.Equal(t, "staging store", source)
	assert.NotEmpty(t, banded[0].Bands.Risk)
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	cmd := &cobra.Command{}
	addStorageFlags(cmd)
	require.NoError(t, cmd.Flags().Set("db", "oracle"))

	_, err := openStore(context.Background(), cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown staging backend")
}

func TestRebuildSummary(t *testing.T) {
	scored := []model.ScoredApplication{
		scoredRow("app-001", 0.97, false, model.ExceptionUnderApproval),
		scoredRow("app-002", 0.03, true, model.ExceptionOverApproval),
		scoredRow("app-003", 0.55, true, model.ExceptionNone),
	}
	path := filepath.Join(t.TempDir(), "scored.csv")
	require.NoError(t, dataset.WriteScoredFile(path, scored))

	viper.Set("report.hi_threshold", 0.90)
	viper.Set("report.lo_threshold", 0.10)
	defer viper.Reset()

	summary, err := rebuildSummary(context.Background(), path)
	require.NoError(t, err)

	assert.Empty(t, summary.RunID)
	assert.Equal(t, path, summary.Source)
	assert.Equal(t, 3, summary.TotalRows)
	assert.Zero(t, summary.Diagnostics.HoldoutRows)
	assert.Equal(t, 1, summary.Exceptions.UnderApproval)
	assert.Equal(t, 1, summary.Exceptions.OverApproval)
	assert.Equal(t, 1, summary.Exceptions.Normal)

	total := 0
	for _, row := range summary.Calibration {
		total += row.Count
	}
	assert.Equal(t, 3, total)
}

func TestRebuildSummaryRetags(t *testing.T) {
	// The file says normal, the tighter thresholds say otherwise.
	scored := []model.ScoredApplication{
		scoredRow("app-001", 0.75, false, model.ExceptionNone),
	}
	path := filepath.Join(t.TempDir(), "scored.csv")
	require.NoError(t, dataset.WriteScoredFile(path, scored))

	viper.Set("report.hi_threshold", 0.70)
	viper.Set("report.lo_threshold", 0.05)
	defer viper.Reset()

	summary, err := rebuildSummary(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Exceptions.UnderApproval)
}
