// Package extract recovers the text layer of vendor PDFs.
package extract

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/tender-cli/internal/config"
	"github.com/sells-group/tender-cli/internal/metrics"
	"github.com/sells-group/tender-cli/internal/model"
)

// Error describes a document whose text could not be recovered. It is
// logged and never returned to callers of Extract.
type Error struct {
	Filename string
	Err      error
}

func (e *Error) Error() string { return "extract: " + e.Filename + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Extractor turns source documents into extracted documents.
type Extractor struct {
	src      TextSource
	workers  int
	maxPages int
	minChars int
	maxChars int
}

// New creates an Extractor reading text through src.
func New(src TextSource, cfg config.ExtractConfig) *Extractor {
	e := &Extractor{
		src:      src,
		workers:  cfg.Workers,
		maxPages: cfg.MaxPages,
		minChars: cfg.MinChars,
		maxChars: cfg.MaxChars,
	}
	if e.workers <= 0 {
		e.workers = 10
	}
	if e.maxPages <= 0 {
		e.maxPages = 3
	}
	if e.minChars <= 0 {
		e.minChars = 100
	}
	if e.maxChars <= 0 {
		e.maxChars = 15000
	}
	return e
}

// Extract reads the first pages of doc. Text longer than minChars after
// trimming is kept (truncated to maxChars); anything else, including a
// source error, yields a Failed document carrying only the filename.
func (e *Extractor) Extract(ctx context.Context, doc model.SourceDocument) model.ExtractedDocument {
	out := model.ExtractedDocument{Filename: doc.Filename, VendorID: doc.VendorID}

	text, err := e.src.PageText(ctx, doc.Data, 1, e.maxPages)
	if err != nil {
		zap.L().Warn("extract: text layer unavailable",
			zap.String("vendor", doc.VendorID),
			zap.Error(&Error{Filename: doc.Filename, Err: err}),
		)
		return e.failed(out)
	}

	text = strings.TrimSpace(norm.NFKC.String(text))
	if utf8.RuneCountInString(text) <= e.minChars {
		zap.L().Debug("extract: insufficient text",
			zap.String("vendor", doc.VendorID),
			zap.String("filename", doc.Filename),
			zap.Int("chars", utf8.RuneCountInString(text)),
		)
		return e.failed(out)
	}

	out.Text = truncate(text, e.maxChars)
	out.Method = model.ExtractionTextLayer
	metrics.Get().DocumentsExtracted.WithLabelValues(string(out.Method)).Inc()
	return out
}

func (e *Extractor) failed(out model.ExtractedDocument) model.ExtractedDocument {
	out.Method = model.ExtractionFailed
	out.Text = model.FailedExtractionText(out.Filename)
	metrics.Get().DocumentsExtracted.WithLabelValues(string(out.Method)).Inc()
	return out
}

// ExtractAll extracts docs concurrently and returns results in input order.
func (e *Extractor) ExtractAll(ctx context.Context, docs []model.SourceDocument) []model.ExtractedDocument {
	start := time.Now()
	results := make([]model.ExtractedDocument, len(docs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			results[i] = e.Extract(gCtx, doc)
			return nil
		})
	}
	_ = g.Wait()

	var failed int
	for _, r := range results {
		if r.Method == model.ExtractionFailed {
			failed++
		}
	}
	zap.L().Info("extract: documents processed",
		zap.Int("documents", len(docs)),
		zap.Int("failed", failed),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return results
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
