package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/tender-cli/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CreateAndGetRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, []string{"acme.zip", "globex.zip"})
		require.NoError(t, err)
		assert.NotEmpty(t, run.ID)
		assert.Equal(t, model.RunStatusQueued, run.Status)

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, run.ID, got.ID)
		assert.Equal(t, []string{"acme.zip", "globex.zip"}, got.Archives)
		assert.Equal(t, model.RunStatusQueued, got.Status)
		assert.Nil(t, got.Result)
		assert.Empty(t, got.Error)
	})

	t.Run("GetRunNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetRun(context.Background(), "missing")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("UpdateRunStatus", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, []string{"acme.zip"})
		require.NoError(t, err)
		require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusAnalyzing))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusAnalyzing, got.Status)

		err = s.UpdateRunStatus(ctx, "missing", model.RunStatusAnalyzing)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("UpdateRunResult", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, []string{"acme.zip"})
		require.NoError(t, err)

		eval := &model.Evaluation{
			RunID:         run.ID,
			ReferenceDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			Reports: []model.CompanyReport{{
				VendorID:    "acme",
				CompanyName: "Acme LLC",
				GrandTotal:  1200,
				RankLabel:   model.RankL1,
			}},
			Recommended: &model.VendorRef{VendorID: "acme", CompanyName: "Acme LLC"},
			Usage:       model.TokenUsage{InputTokens: 100, OutputTokens: 20, Cost: 0.01},
		}
		require.NoError(t, s.UpdateRunResult(ctx, run.ID, eval))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusComplete, got.Status)
		require.NotNil(t, got.Result)
		require.Len(t, got.Result.Reports, 1)
		assert.Equal(t, "Acme LLC", got.Result.Reports[0].CompanyName)
		assert.Equal(t, model.RankL1, got.Result.Reports[0].RankLabel)
		assert.InDelta(t, 1200, got.Result.Reports[0].GrandTotal, 0.001)
		require.NotNil(t, got.Result.Recommended)
		assert.Equal(t, "acme", got.Result.Recommended.VendorID)
		assert.Equal(t, 100, got.Result.Usage.InputTokens)
	})

	t.Run("FailRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, s.FailRun(ctx, run.ID, "no vendor could be evaluated"))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusFailed, got.Status)
		assert.Equal(t, "no vendor could be evaluated", got.Error)
		assert.Empty(t, got.Archives)
	})

	t.Run("ListRuns", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			_, err := s.CreateRun(ctx, []string{"a.zip"})
			require.NoError(t, err)
		}
		r, err := s.CreateRun(ctx, []string{"b.zip"})
		require.NoError(t, err)
		require.NoError(t, s.FailRun(ctx, r.ID, "boom"))

		all, err := s.ListRuns(ctx, RunFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 4)

		failed, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
		require.NoError(t, err)
		require.Len(t, failed, 1)
		assert.Equal(t, r.ID, failed[0].ID)

		page, err := s.ListRuns(ctx, RunFilter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Len(t, page, 2)
	})

	t.Run("Phases", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, []string{"acme.zip"})
		require.NoError(t, err)

		phase, err := s.CreatePhase(ctx, run.ID, "extract")
		require.NoError(t, err)
		assert.Equal(t, model.PhaseStatusRunning, phase.Status)

		require.NoError(t, s.CompletePhase(ctx, phase.ID, &model.PhaseResult{
			Name:     "extract",
			Status:   model.PhaseStatusComplete,
			Duration: 42,
			Metadata: map[string]any{"documents": 3},
		}))

		phases, err := s.ListPhases(ctx, run.ID)
		require.NoError(t, err)
		require.Len(t, phases, 1)
		assert.Equal(t, model.PhaseStatusComplete, phases[0].Status)
		require.NotNil(t, phases[0].Result)
		assert.Equal(t, int64(42), phases[0].Result.Duration)

		err = s.CompletePhase(ctx, "missing", &model.PhaseResult{Status: model.PhaseStatusFailed})
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("AnalysisCache", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		data, err := s.GetCachedAnalysis(ctx, "k1")
		require.NoError(t, err)
		assert.Nil(t, data)

		require.NoError(t, s.SetCachedAnalysis(ctx, "k1", []byte(`{"a":1}`), time.Hour))
		data, err = s.GetCachedAnalysis(ctx, "k1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":1}`, string(data))

		// Overwrite in place.
		require.NoError(t, s.SetCachedAnalysis(ctx, "k1", []byte(`{"a":2}`), time.Hour))
		data, err = s.GetCachedAnalysis(ctx, "k1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":2}`, string(data))

		require.NoError(t, s.SetCachedAnalysis(ctx, "old", []byte(`{}`), -time.Hour))
		data, err = s.GetCachedAnalysis(ctx, "old")
		require.NoError(t, err)
		assert.Nil(t, data)

		n, err := s.DeleteExpiredAnalyses(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func TestSQLiteStore_MigrateIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.Ping(context.Background()))
}
