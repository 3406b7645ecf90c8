package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCount_Lenient(t *testing.T) {
	var v struct {
		A Count `json:"a"`
		B Count `json:"b"`
		C Count `json:"c"`
		D Count `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":12,"b":"7","c":"many","d":3.9}`), &v))
	assert.Equal(t, Count(12), v.A)
	assert.Equal(t, Count(7), v.B)
	assert.Equal(t, Count(0), v.C)
	assert.Equal(t, Count(3), v.D)
}

func TestWRASAnalysis_Unmarshal(t *testing.T) {
	tests := []struct {
		raw  string
		want WRASAnalysis
	}{
		{`{"found":true,"wras_id":"2104567"}`, WRASAnalysis{Found: true, ID: "2104567"}},
		{`{"found":"yes","wras_id":2104567}`, WRASAnalysis{Found: true, ID: "2104567"}},
		{`{"found":false,"wras_id":"N/A"}`, WRASAnalysis{}},
		{`{}`, WRASAnalysis{}},
	}
	for _, tt := range tests {
		var got WRASAnalysis
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &got), tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestPartialAnalysis_IsEmpty(t *testing.T) {
	assert.True(t, EmptyAnalysis(3, "v").IsEmpty())

	p := EmptyAnalysis(0, "v")
	p.Data.GrandTotal = Num(10)
	assert.False(t, p.IsEmpty())
}

func TestExtractedDocument_Block(t *testing.T) {
	ok := ExtractedDocument{Filename: "a.pdf", Text: "hello", Method: ExtractionTextLayer}
	assert.Equal(t, "FILE_NAME: a.pdf\n(Extracted via Text Layer)\nhello", ok.Block())

	failed := ExtractedDocument{Filename: "b.pdf", Method: ExtractionFailed}
	assert.Equal(t, "FILE_NAME: b.pdf\n(Extraction Failed: Could not extract text)", failed.Block())
}

func TestChecklist(t *testing.T) {
	c := NewChecklist("a", "b", "a", "c")
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []RequiredCategory{"a", "b", "c"}, c.Categories())
	assert.True(t, c.Contains("b"))
	assert.False(t, c.Contains("z"))

	cats := c.Categories()
	cats[0] = "mutated"
	assert.Equal(t, RequiredCategory("a"), c.Categories()[0])
}

func TestTokenUsage_Add(t *testing.T) {
	u := TokenUsage{InputTokens: 1, OutputTokens: 2, Cost: 0.5}
	u.Add(TokenUsage{InputTokens: 3, OutputTokens: 4, CacheReadTokens: 5, Cost: 0.25})
	assert.Equal(t, TokenUsage{InputTokens: 4, OutputTokens: 6, CacheReadTokens: 5, Cost: 0.75}, u)
}

func TestRunStatusValues(t *testing.T) {
	assert.Equal(t, "queued", string(RunStatusQueued))
	assert.Equal(t, "analyzing", string(RunStatusAnalyzing))
	assert.Equal(t, "complete", string(RunStatusComplete))
	assert.Equal(t, "skipped", string(PhaseStatusSkipped))
}
