package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/tender-cli/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "abc12345-6789-0000-0000-000000000000",
			Archives:  []string{"acme.zip", "globex.zip"},
			Status:    model.RunStatusComplete,
			CreatedAt: now,
			UpdatedAt: now.Add(2 * time.Minute),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Archives:  []string{"initech-with-a-very-long-archive-name.zip", "umbrella.zip"},
			Status:    model.RunStatusAnalyzing,
			CreatedAt: now.Add(-1 * time.Hour),
			UpdatedAt: now.Add(-30 * time.Minute),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "ARCHIVES")
	assert.Contains(t, output, "acme.zip, globex.zip")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "analyzing")
	assert.Contains(t, output, "initech-with-a-very-long-archive-name...")
	assert.Contains(t, output, "2025-06-15 10:30")
	assert.Contains(t, output, "2m0s")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
}

func TestComputeRunStats(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	runs := []model.Run{
		{
			Status:    model.RunStatusComplete,
			CreatedAt: now,
			UpdatedAt: now.Add(10 * time.Second),
			Result: &model.Evaluation{
				Reports:  make([]model.CompanyReport, 3),
				Warnings: make([]model.VendorWarning, 1),
				Usage:    model.TokenUsage{Cost: 0.25},
			},
		},
		{
			Status:    model.RunStatusComplete,
			CreatedAt: now,
			UpdatedAt: now.Add(30 * time.Second),
		},
		{Status: model.RunStatusFailed, CreatedAt: now},
		{Status: model.RunStatusExtracting, CreatedAt: now},
		{Status: model.RunStatusComplete, CreatedAt: now.Add(-48 * time.Hour), UpdatedAt: now},
	}

	s := computeRunStats(runs, now.Add(-24*time.Hour))
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Complete)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.InProgress)
	assert.Equal(t, 3, s.Vendors)
	assert.Equal(t, 1, s.Warnings)
	assert.InDelta(t, 0.25, s.TotalCost, 1e-9)
	assert.InDelta(t, 20.0, s.AvgDurSecs, 1e-9)

	all := computeRunStats(runs, time.Time{})
	assert.Equal(t, 5, all.Total)
	assert.Equal(t, 3, all.Complete)
}

func TestComputeRunStats_Empty(t *testing.T) {
	s := computeRunStats(nil, time.Time{})
	assert.Equal(t, runStats{}, s)
}

func TestFormatRunStats(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, runStats{Total: 4, Complete: 2, Failed: 1, InProgress: 1, Vendors: 5, TotalCost: 0.1234, AvgDurSecs: 12.5})

	out := buf.String()
	assert.Contains(t, out, "Total runs:")
	assert.Contains(t, out, "Vendors evaluated:")
	assert.Contains(t, out, "$0.1234")
	assert.Contains(t, out, "12.5s")
}

func TestFormatRunStats_NoDuration(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, runStats{})
	assert.NotContains(t, buf.String(), "Avg duration")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000"))
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "", truncateID(""))
}
