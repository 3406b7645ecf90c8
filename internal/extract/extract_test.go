package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/tender-cli/internal/config"
	"github.com/sells-group/tender-cli/internal/model"
)

// fakeSource returns the document bytes as text, or an error when the
// bytes are "ERR".
type fakeSource struct {
	mu       sync.Mutex
	calls    []int
	inflight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (f *fakeSource) PageText(_ context.Context, pdf []byte, first, last int) (string, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	f.calls = append(f.calls, last)
	f.mu.Unlock()

	if string(pdf) == "ERR" {
		return "", errors.New("boom")
	}
	return string(pdf), nil
}

func defaultCfg() config.ExtractConfig {
	return config.ExtractConfig{Workers: 10, MaxPages: 3, MinChars: 100, MaxChars: 15000}
}

func doc(name, text string) model.SourceDocument {
	return model.SourceDocument{Filename: name, VendorID: "acme", Data: []byte(text)}
}

func TestExtract_Threshold(t *testing.T) {
	e := New(&fakeSource{}, defaultCfg())

	got := e.Extract(context.Background(), doc("long.pdf", strings.Repeat("a", 101)))
	assert.Equal(t, model.ExtractionTextLayer, got.Method)
	assert.Len(t, got.Text, 101)

	got = e.Extract(context.Background(), doc("short.pdf", strings.Repeat("a", 100)))
	assert.Equal(t, model.ExtractionFailed, got.Method)
	assert.Equal(t, "FILE_NAME: short.pdf\n(Extraction Failed: Could not extract text)", got.Text)
	assert.NotContains(t, got.Text, "aaaa")
}

func TestExtract_TrimsBeforeCounting(t *testing.T) {
	e := New(&fakeSource{}, defaultCfg())
	padded := "   \n\t" + strings.Repeat("b", 90) + "\n\n      \n"
	got := e.Extract(context.Background(), doc("padded.pdf", padded))
	assert.Equal(t, model.ExtractionFailed, got.Method)
}

func TestExtract_Truncates(t *testing.T) {
	e := New(&fakeSource{}, defaultCfg())
	got := e.Extract(context.Background(), doc("big.pdf", strings.Repeat("é", 20000)))
	assert.Equal(t, model.ExtractionTextLayer, got.Method)
	assert.Equal(t, 15000, len([]rune(got.Text)))
}

func TestExtract_SourceErrorIsFailed(t *testing.T) {
	e := New(&fakeSource{}, defaultCfg())
	got := e.Extract(context.Background(), doc("broken.pdf", "ERR"))
	assert.Equal(t, model.ExtractionFailed, got.Method)
	assert.Equal(t, "broken.pdf", got.Filename)
	assert.Equal(t, "acme", got.VendorID)
}

func TestExtract_PageLimit(t *testing.T) {
	src := &fakeSource{}
	e := New(src, defaultCfg())
	e.Extract(context.Background(), doc("a.pdf", "x"))
	assert.Equal(t, []int{3}, src.calls)
}

func TestExtract_NormalizesCompatibilityForms(t *testing.T) {
	e := New(&fakeSource{}, defaultCfg())
	// U+FB01 (fi ligature) folds to "fi" under NFKC.
	got := e.Extract(context.Background(), doc("lig.pdf", strings.Repeat("ﬁ", 60)))
	assert.Equal(t, model.ExtractionTextLayer, got.Method)
	assert.Equal(t, strings.Repeat("fi", 60), got.Text)
}

func TestExtractAll_OrderAndBound(t *testing.T) {
	src := &fakeSource{delay: 5 * time.Millisecond}
	cfg := defaultCfg()
	cfg.Workers = 3
	e := New(src, cfg)

	var docs []model.SourceDocument
	for i := 0; i < 12; i++ {
		text := strings.Repeat(string(rune('a'+i)), 150)
		if i%4 == 0 {
			text = "ERR"
		}
		docs = append(docs, doc(string(rune('a'+i))+".pdf", text))
	}

	results := e.ExtractAll(context.Background(), docs)
	require.Len(t, results, 12)
	for i, r := range results {
		assert.Equal(t, docs[i].Filename, r.Filename)
		if i%4 == 0 {
			assert.Equal(t, model.ExtractionFailed, r.Method)
		} else {
			assert.Equal(t, model.ExtractionTextLayer, r.Method)
		}
	}
	assert.LessOrEqual(t, src.peak.Load(), int32(3))
}

func TestExtractAll_Empty(t *testing.T) {
	e := New(&fakeSource{}, defaultCfg())
	assert.Empty(t, e.ExtractAll(context.Background(), nil))
}

func TestNew_Defaults(t *testing.T) {
	e := New(&fakeSource{}, config.ExtractConfig{})
	assert.Equal(t, 10, e.workers)
	assert.Equal(t, 3, e.maxPages)
	assert.Equal(t, 100, e.minChars)
	assert.Equal(t, 15000, e.maxChars)

	// The 100 character rule holds without explicit config.
	got := e.Extract(context.Background(), doc("short.pdf", strings.Repeat("x", 100)))
	assert.Equal(t, model.ExtractionFailed, got.Method)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abcdef", 3))
	assert.Equal(t, "ab", truncate("ab", 3))
	assert.Equal(t, "éé", truncate("ééé", 2))
}

func TestPdfToText_BinPath(t *testing.T) {
	assert.Equal(t, "pdftotext", NewPdfToText("", "").binPath)
	assert.Equal(t, "/opt/pdftotext", NewPdfToText("/opt/pdftotext", "").binPath)
}

func TestPdfToText_PageText(t *testing.T) {
	dir := t.TempDir()
	fakeBin := filepath.Join(dir, "pdftotext")
	// Echo the arguments, then the input file's contents.
	script := "#!/bin/sh\nprintf '%s %s %s %s %s\\n' \"$1\" \"$2\" \"$3\" \"$4\" \"$5\"\ncat \"$6\"\n"
	require.NoError(t, os.WriteFile(fakeBin, []byte(script), 0o755))

	p := NewPdfToText(fakeBin, "")
	text, err := p.PageText(context.Background(), []byte("PDF BODY"), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, "-f 1 -l 3 -layout\nPDF BODY", text)
}

func TestPdfToText_TempDir(t *testing.T) {
	binDir := t.TempDir()
	stageDir := t.TempDir()
	fakeBin := filepath.Join(binDir, "pdftotext")
	// Print the directory the input file was staged in.
	script := "#!/bin/sh\nprintf '%s' \"$(dirname \"$6\")\"\n"
	require.NoError(t, os.WriteFile(fakeBin, []byte(script), 0o755))

	text, err := NewPdfToText(fakeBin, stageDir).PageText(context.Background(), []byte("x"), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, stageDir, text)

	entries, err := os.ReadDir(stageDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPdfToText_Failure(t *testing.T) {
	dir := t.TempDir()
	fakeBin := filepath.Join(dir, "pdftotext")
	script := "#!/bin/sh\necho 'Syntax Error: bad xref' >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(fakeBin, []byte(script), 0o755))

	_, err := NewPdfToText(fakeBin, "").PageText(context.Background(), []byte("x"), 1, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad xref")
}

func TestExtract_WithPdfToText(t *testing.T) {
	dir := t.TempDir()
	fakeBin := filepath.Join(dir, "pdftotext")
	script := "#!/bin/sh\ncat \"$6\"\n"
	require.NoError(t, os.WriteFile(fakeBin, []byte(script), 0o755))

	e := New(NewPdfToText(fakeBin, ""), defaultCfg())
	got := e.Extract(context.Background(), doc("iso.pdf", strings.Repeat("ISO 9001 certificate ", 10)))
	assert.Equal(t, model.ExtractionTextLayer, got.Method)
	assert.True(t, strings.HasPrefix(got.Text, "ISO 9001 certificate"))
}
