package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/tender-cli/internal/config"
	"github.com/sells-group/tender-cli/internal/model"
	"github.com/sells-group/tender-cli/internal/ranking"
	"github.com/sells-group/tender-cli/internal/rubric"
	"github.com/sells-group/tender-cli/internal/store"
)

// useTestConfig points the global config at a fresh sqlite database.
func useTestConfig(t *testing.T) {
	t.Helper()
	prev := cfg
	cfg = &config.Config{
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: filepath.Join(t.TempDir(), "tender.db"),
		},
		Pipeline: config.PipelineConfig{Currency: "OMR", ISOMinDays: 180},
	}
	t.Cleanup(func() { cfg = prev })
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	useTestConfig(t)
	st, err := openStore(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func sampleEvaluation(rb rubric.Rubric) *model.Evaluation {
	reports := []model.CompanyReport{
		{
			VendorID:                 "acme",
			CompanyName:              "Acme Pipes LLC",
			ICVScore:                 model.Str("40%"),
			GrandTotal:               1000,
			AdvancePaymentPercentage: 10,
			QuotationFile:            model.Str("quote.pdf"),
		},
		{
			VendorID:    "globex",
			CompanyName: "Globex Trading",
			ICVScore:    model.Str("20%"),
			GrandTotal:  2000,
		},
	}
	res := ranking.Rank(reports, rb)
	return &model.Evaluation{
		ReferenceDate: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		Reports:       reports,
		ScoreCards:    res.ScoreCards,
		Recommended:   res.Recommended,
		LowestBidder:  res.LowestBidder,
	}
}
