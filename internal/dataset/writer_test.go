package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fenwick/hindsight/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoredFixture() []model.ScoredApplication {
	return []model.ScoredApplication{
		{
			BandedApplication: model.BandedApplication{
				LoanApplication: model.LoanApplication{
					ApplicationID:   "app-001",
					CreditScore:     712,
					AnnualIncome:    85000,
					LoanAmount:      20000,
					TermMonths:      48,
					DebtToIncome:    0.31,
					PaymentToIncome: 0.12,
					Approved:        false,
				},
				Bands: model.Bands{
					Risk:   model.RiskPrime,
					Income: model.Income60To100K,
					Amount: model.AmountStandard,
					Term:   model.TermLong,
				},
			},
			Probability: 0.9134,
			Exception:   model.ExceptionUnderApproval,
		},
		{
			BandedApplication: model.BandedApplication{
				LoanApplication: model.LoanApplication{
					ApplicationID:   "app-002",
					CreditScore:     588,
					AnnualIncome:    42000,
					LoanAmount:      8000,
					TermMonths:      36,
					DebtToIncome:    0.44,
					PaymentToIncome: 0.18,
					Approved:        true,
				},
				Bands: model.Bands{
					Risk:   model.RiskNearPrime,
					Income: model.Income30To60K,
					Amount: model.AmountSmall,
					Term:   model.TermMedium,
				},
			},
			Probability: 0.412,
			Exception:   model.ExceptionNone,
		},
	}
}

func TestWriteScoredFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "scored.csv")

	require.NoError(t, WriteScoredFile(path, scoredFixture()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(ScoredHeader(), ","), lines[0])
	assert.Contains(t, lines[1], "app-001")
	assert.Contains(t, lines[1], "under_approval")
	assert.Contains(t, lines[2], "app-002")
	assert.Contains(t, lines[2], "normal")
}

func TestWriteScoredFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scored.csv")
	want := scoredFixture()

	require.NoError(t, WriteScoredFile(path, want))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := NewReader().ParseScoredFile(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, got, len(want))

	for i := range want {
		assert.Equal(t, want[i].ApplicationID, got[i].ApplicationID)
		assert.Equal(t, want[i].Approved, got[i].Approved)
		assert.Equal(t, want[i].Bands, got[i].Bands)
		assert.InDelta(t, want[i].Probability, got[i].Probability, 1e-6)
		assert.Equal(t, want[i].Exception, got[i].Exception)
	}
}

func TestWriteScoredFileLeavesNoTempOnSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scored.csv")

	require.NoError(t, WriteScoredFile(path, scoredFixture()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "scored.csv", entries[0].Name())
}

func TestWriteScoredFileFailureLeavesNoArtifact(t *testing.T) {
	dir := t.TempDir()
	// A directory squatting on the destination makes the final rename fail.
	path := filepath.Join(dir, "scored.csv")
	require.NoError(t, os.Mkdir(path, 0o750))

	err := WriteScoredFile(path, scoredFixture())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to move")

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsDir())
}
