package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/resolve-cli/internal/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "trials.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTrial(number, finalURL string, method model.Method) *model.TrialResult {
	now := time.Now().UTC().Truncate(time.Second)
	return &model.TrialResult{
		ID: "trial-" + number,
		Company: model.CompanyRecord{
			Name:               "Acme Widgets Limited",
			RegistrationNumber: number,
			Postcode:           "S1 2AB",
			GroundTruthURL:     "https://acmewidgets.co.uk",
		},
		Attempts: []model.AttemptRecord{{
			AttemptNumber: 1,
			Query:         "acme widgets",
			Candidates:    []model.Candidate{{Rank: 1, URL: finalURL, Title: "Acme"}},
			Verdict:       model.JudgeVerdict{Accepted: finalURL != "", URL: finalURL, Method: method},
		}},
		FinalURL:    finalURL,
		FinalMethod: method,
		StartedAt:   now,
		FinishedAt:  now.Add(2 * time.Second),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	trial := sampleTrial("01234567", "https://acmewidgets.co.uk", model.MethodString)
	require.NoError(t, s.SaveTrial(ctx, "run-1", trial))
	require.NoError(t, s.SaveTrial(ctx, "run-1", sampleTrial("07654321", "", model.MethodNone)))
	require.NoError(t, s.SaveTrial(ctx, "run-2", sampleTrial("09999999", "", model.MethodNone)))

	trials, err := s.ListTrials(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, trials, 2)

	got := trials[0]
	assert.Equal(t, trial.ID, got.ID)
	assert.Equal(t, trial.Company, got.Company)
	assert.Equal(t, trial.FinalURL, got.FinalURL)
	assert.Equal(t, model.MethodString, got.FinalMethod)
	require.Len(t, got.Attempts, 1)
	assert.Equal(t, "acme widgets", got.Attempts[0].Query)
	assert.True(t, got.Attempts[0].Verdict.Accepted)
}

func TestStoreDuplicateTrialID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	trial := sampleTrial("01234567", "https://acmewidgets.co.uk", model.MethodString)
	require.NoError(t, s.SaveTrial(ctx, "run-1", trial))
	assert.Error(t, s.SaveTrial(ctx, "run-1", trial))
}

func TestStoreEmptyRun(t *testing.T) {
	s := openTestStore(t)
	trials, err := s.ListTrials(context.Background(), "missing-run")
	require.NoError(t, err)
	assert.Empty(t, trials)
}
