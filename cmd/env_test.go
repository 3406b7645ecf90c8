package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/tender-cli/internal/config"
	"github.com/sells-group/tender-cli/internal/rubric"
)

func TestPipelineEnv_Close_Nil(t *testing.T) {
	pe := &pipelineEnv{}
	assert.NotPanics(t, func() {
		pe.Close()
	})
}

func TestInitStore_SQLite(t *testing.T) {
	useTestConfig(t)

	st, err := initStore(context.Background())
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, st.Ping(context.Background()))
	assert.NoError(t, st.Close())
}

func TestInitStore_UnsupportedDriver(t *testing.T) {
	useTestConfig(t)
	cfg.Store.Driver = "mysql"

	st, err := initStore(context.Background())
	assert.Nil(t, st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestInitStore_PostgresNeedsURL(t *testing.T) {
	useTestConfig(t)
	cfg.Store = config.StoreConfig{Driver: "postgres"}

	_, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")
}

func TestInitPipeline_RequiresAPIKey(t *testing.T) {
	useTestConfig(t)

	env, err := initPipeline(context.Background(), "")
	assert.Nil(t, env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
}

func TestLoadRubric(t *testing.T) {
	useTestConfig(t)

	t.Run("default", func(t *testing.T) {
		rb, err := loadRubric("")
		require.NoError(t, err)
		assert.Equal(t, rubric.Default(), rb)
	})

	t.Run("from config path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rubric.yaml")
		require.NoError(t, os.WriteFile(path, []byte("criteria:\n  - key: technical\n    weight: 6\n"), 0o644))
		cfg.Pipeline.RubricPath = path
		t.Cleanup(func() { cfg.Pipeline.RubricPath = "" })

		rb, err := loadRubric("")
		require.NoError(t, err)
		assert.Equal(t, 6.0, rb.Weight("technical"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadRubric(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestReportOptions(t *testing.T) {
	useTestConfig(t)
	cfg.Pipeline.Currency = "USD"

	opts := reportOptions()
	assert.Equal(t, "USD", opts.Currency)
	assert.Equal(t, 180, opts.ISOMinDays)
}
