package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tender-cli/internal/cost"
	"github.com/sells-group/tender-cli/internal/extract"
	"github.com/sells-group/tender-cli/internal/fetcher"
	"github.com/sells-group/tender-cli/internal/oracle"
	"github.com/sells-group/tender-cli/internal/pipeline"
	"github.com/sells-group/tender-cli/internal/report"
	"github.com/sells-group/tender-cli/internal/resilience"
	"github.com/sells-group/tender-cli/internal/rubric"
	"github.com/sells-group/tender-cli/internal/store"
	anthropicpkg "github.com/sells-group/tender-cli/pkg/anthropic"
)

// pipelineEnv holds the initialized store, rubric and pipeline needed by
// the evaluate and serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Rubric   rubric.Rubric
	Report   report.Options
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "tender.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store.database_url is required for postgres")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// loadRubric returns the rubric at path, the configured rubric file, or the
// built-in default, in that order.
func loadRubric(path string) (rubric.Rubric, error) {
	if path == "" {
		path = cfg.Pipeline.RubricPath
	}
	if path == "" {
		return rubric.Default(), nil
	}
	rb, err := rubric.Load(path)
	if err != nil {
		return rubric.Rubric{}, eris.Wrap(err, "load rubric")
	}
	return rb, nil
}

// initPipeline sets up the store and oracle client and builds the Pipeline.
// Callers should defer env.Close().
func initPipeline(ctx context.Context, rubricPath string) (*pipelineEnv, error) {
	if err := cfg.Validate(true); err != nil {
		return nil, err
	}

	rb, err := loadRubric(rubricPath)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	ex := extract.New(extract.NewPdfToText(cfg.Extract.PdfToTextPath, cfg.Extract.TempDir), cfg.Extract)
	ai := anthropicpkg.NewClient(cfg.Anthropic.Key)

	oracleOpts := oracle.Options{
		Model:      cfg.Anthropic.Model,
		MaxTokens:  cfg.Anthropic.MaxTokens,
		Workers:    cfg.Analysis.Workers,
		ISOMinDays: cfg.Pipeline.ISOMinDays,
		Retry:      resilience.DefaultRetryConfig(),
		Calculator: cost.NewCalculator(cfg.Pricing),
	}
	if cfg.Analysis.RetryAttempts > 0 {
		oracleOpts.Retry.MaxAttempts = cfg.Analysis.RetryAttempts
	}
	if ttl := cfg.Analysis.CacheTTL(); ttl > 0 {
		oracleOpts.Cache = st
		oracleOpts.CacheTTL = ttl
	}

	p := pipeline.New(st, ex, ai, rb, pipeline.Options{
		BatchSize:         cfg.Analysis.BatchSize,
		VendorConcurrency: cfg.Pipeline.VendorConcurrency,
		Oracle:            oracleOpts,
	})

	zap.L().Debug("pipeline initialized",
		zap.String("store", cfg.Store.Driver),
		zap.String("model", cfg.Anthropic.Model),
		zap.Int("criteria", len(rb.Criteria)),
		zap.Duration("cache_ttl", oracleOpts.CacheTTL),
	)

	return &pipelineEnv{
		Store:    st,
		Pipeline: p,
		Rubric:   rb,
		Report:   reportOptions(),
	}, nil
}

func reportOptions() report.Options {
	return report.Options{
		Currency:   cfg.Pipeline.Currency,
		ISOMinDays: cfg.Pipeline.ISOMinDays,
	}
}

// initFetcher builds the archive downloader used for remote arguments.
func initFetcher() fetcher.Fetcher {
	timeout := time.Duration(cfg.Fetch.TimeoutSecs) * time.Second
	httpF := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.Fetch.UserAgent,
		Timeout:    timeout,
		RatePerSec: cfg.Fetch.RatePerSec,
	})
	ftpF := fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: timeout})
	return fetcher.NewRouter(httpF, ftpF)
}
