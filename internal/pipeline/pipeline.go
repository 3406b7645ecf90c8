// Package pipeline turns a set of vendor archives into a ranked evaluation.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/tender-cli/internal/aggregate"
	"github.com/sells-group/tender-cli/internal/archive"
	"github.com/sells-group/tender-cli/internal/compliance"
	"github.com/sells-group/tender-cli/internal/metrics"
	"github.com/sells-group/tender-cli/internal/model"
	"github.com/sells-group/tender-cli/internal/oracle"
	"github.com/sells-group/tender-cli/internal/ranking"
	"github.com/sells-group/tender-cli/internal/rubric"
	"github.com/sells-group/tender-cli/internal/store"
	"github.com/sells-group/tender-cli/pkg/anthropic"
)

// Extractor recovers text from a vendor's documents. Results are indexed
// like the input.
type Extractor interface {
	ExtractAll(ctx context.Context, docs []model.SourceDocument) []model.ExtractedDocument
}

// Options tunes the pipeline.
type Options struct {
	BatchSize         int
	VendorConcurrency int
	Oracle            oracle.Options
}

// Pipeline orchestrates extraction, classification, aggregation and ranking.
type Pipeline struct {
	store     store.Store
	extractor Extractor
	ai        anthropic.Client
	rubric    rubric.Rubric
	opts      Options
}

// New creates a new Pipeline with all dependencies.
func New(st store.Store, ex Extractor, ai anthropic.Client, rb rubric.Rubric, opts Options) *Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.VendorConcurrency <= 0 {
		opts.VendorConcurrency = 1
	}
	return &Pipeline{
		store:     st,
		extractor: ex,
		ai:        ai,
		rubric:    rb,
		opts:      opts,
	}
}

// vendor carries one archive through the stages of a run.
type vendor struct {
	id      string
	input   ArchiveInput
	docs    []model.ExtractedDocument
	report  model.CompanyReport
	skipped bool
}

// Run creates a run record and evaluates the archives.
func (p *Pipeline) Run(ctx context.Context, inputs []ArchiveInput, referenceDate time.Time) (*model.Evaluation, error) {
	names := make([]string, len(inputs))
	for i, in := range inputs {
		names[i] = in.DisplayName()
	}
	run, err := p.store.CreateRun(ctx, names)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	return p.Execute(ctx, run.ID, inputs, referenceDate)
}

// Execute evaluates the archives for an existing run. Unreadable or empty
// archives become warnings; only cancellation or a store failure fails the
// run.
func (p *Pipeline) Execute(ctx context.Context, runID string, inputs []ArchiveInput, referenceDate time.Time) (*model.Evaluation, error) {
	log := zap.L().With(zap.String("run_id", runID), zap.Int("archives", len(inputs)))
	log.Info("pipeline: starting evaluation", zap.Time("reference_date", referenceDate))
	start := time.Now()
	m := metrics.Get()

	eval, err := p.execute(ctx, runID, inputs, referenceDate, log)
	if err != nil {
		// The run's own context may already be cancelled.
		if failErr := p.store.FailRun(context.WithoutCancel(ctx), runID, err.Error()); failErr != nil {
			log.Warn("pipeline: failed to record run failure", zap.Error(failErr))
		}
		log.Error("pipeline: evaluation failed", zap.Error(err))
		return nil, err
	}

	m.RunDuration.Observe(time.Since(start).Seconds())
	log.Info("pipeline: evaluation complete",
		zap.Int("reports", len(eval.Reports)),
		zap.Int("warnings", len(eval.Warnings)),
		zap.Int("input_tokens", eval.Usage.InputTokens),
		zap.Int("output_tokens", eval.Usage.OutputTokens),
		zap.Float64("cost_usd", eval.Usage.Cost),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return eval, nil
}

func (p *Pipeline) execute(ctx context.Context, runID string, inputs []ArchiveInput, referenceDate time.Time, log *zap.Logger) (*model.Evaluation, error) {
	setStatus := func(status model.RunStatus) error {
		if err := p.store.UpdateRunStatus(ctx, runID, status); err != nil {
			return eris.Wrapf(err, "pipeline: set status %s", status)
		}
		return nil
	}

	trackPhase := func(name string, fn func() (*model.PhaseResult, error)) error {
		phase, phaseErr := p.store.CreatePhase(ctx, runID, name)
		if phaseErr != nil {
			log.Warn("pipeline: failed to create phase", zap.String("phase", name), zap.Error(phaseErr))
		}

		start := time.Now()
		phaseResult, fnErr := fn()
		duration := time.Since(start).Milliseconds()

		if phaseResult == nil {
			phaseResult = &model.PhaseResult{}
		}
		phaseResult.Name = name
		phaseResult.Duration = duration

		if fnErr != nil {
			phaseResult.Status = model.PhaseStatusFailed
			phaseResult.Error = fnErr.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
				zap.Error(fnErr),
			)
		} else {
			phaseResult.Status = model.PhaseStatusComplete
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
			)
		}

		if phase != nil {
			if err := p.store.CompletePhase(ctx, phase.ID, phaseResult); err != nil {
				log.Warn("pipeline: failed to complete phase", zap.String("phase", name), zap.Error(err))
			}
		}
		return fnErr
	}

	eval := &model.Evaluation{
		RunID:         runID,
		ReferenceDate: referenceDate,
	}
	var warnMu sync.Mutex
	warn := func(v *vendor, msg string) {
		warnMu.Lock()
		eval.Warnings = append(eval.Warnings, model.VendorWarning{
			VendorID: v.id,
			Archive:  v.input.DisplayName(),
			Message:  msg,
		})
		warnMu.Unlock()
	}

	ids := assignVendorIDs(inputs)
	vendors := make([]*vendor, len(inputs))
	for i, in := range inputs {
		vendors[i] = &vendor{id: ids[i], input: in}
	}

	// ===== Extraction =====
	if err := setStatus(model.RunStatusExtracting); err != nil {
		return nil, err
	}
	err := trackPhase("extract", func() (*model.PhaseResult, error) {
		var docCount, failedCount int
		var countMu sync.Mutex

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(p.opts.VendorConcurrency)
		for _, v := range vendors {
			v := v
			g.Go(func() error {
				p.extractVendor(gCtx, v, warn)
				countMu.Lock()
				docCount += v.report.Stats.Documents
				failedCount += v.report.Stats.FailedExtractions
				countMu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "pipeline: extraction")
		}
		return &model.PhaseResult{Metadata: map[string]any{
			"documents":          docCount,
			"failed_extractions": failedCount,
		}}, nil
	})
	if err != nil {
		return nil, err
	}

	// ===== Analysis =====
	if err := setStatus(model.RunStatusAnalyzing); err != nil {
		return nil, err
	}
	orc := oracle.New(p.ai, p.rubric.Checklist, p.opts.Oracle)
	err = trackPhase("analyze", func() (*model.PhaseResult, error) {
		var batchCount int
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(p.opts.VendorConcurrency)
		for _, v := range vendors {
			if v.skipped {
				continue
			}
			batchCount += (len(v.docs) + p.opts.BatchSize - 1) / p.opts.BatchSize
			g.Go(func() error {
				p.analyzeVendor(gCtx, v, orc, referenceDate)
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "pipeline: analysis")
		}
		usage := orc.Usage()
		return &model.PhaseResult{
			TokenUsage: usage,
			Metadata:   map[string]any{"batches": batchCount},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	eval.Usage = orc.Usage()

	// ===== Ranking =====
	if err := setStatus(model.RunStatusRanking); err != nil {
		return nil, err
	}
	err = trackPhase("rank", func() (*model.PhaseResult, error) {
		reports := make([]model.CompanyReport, 0, len(vendors))
		for _, v := range vendors {
			if !v.skipped {
				reports = append(reports, v.report)
			}
		}
		res := ranking.Rank(reports, p.rubric)

		eval.Reports = reports
		eval.ScoreCards = res.ScoreCards
		eval.Recommended = res.Recommended
		eval.LowestBidder = res.LowestBidder

		meta := map[string]any{"vendors": len(reports)}
		if res.Recommended != nil {
			meta["recommended"] = res.Recommended.VendorID
		}
		return &model.PhaseResult{Metadata: meta}, nil
	})
	if err != nil {
		return nil, err
	}

	if eval.Reports == nil {
		eval.Reports = []model.CompanyReport{}
	}
	if err := p.store.UpdateRunResult(ctx, runID, eval); err != nil {
		return nil, eris.Wrap(err, "pipeline: save result")
	}
	return eval, nil
}

// extractVendor reads the vendor's archive and extracts every document.
// A vendor whose archive cannot be read or holds no PDFs is skipped.
func (p *Pipeline) extractVendor(ctx context.Context, v *vendor, warn func(*vendor, string)) {
	log := zap.L().With(zap.String("vendor", v.id), zap.String("archive", v.input.DisplayName()))
	m := metrics.Get()

	if v.input.Path != "" {
		log.Debug("pipeline: reading archive", zap.Int64("bytes", archive.Size(v.input.Path)))
	}
	src, err := v.input.read(v.id)
	if err != nil {
		var readErr *archive.ReadError
		if !errors.As(err, &readErr) {
			err = &archive.ReadError{Archive: v.input.DisplayName(), Err: err}
		}
		log.Warn("pipeline: skipping unreadable archive", zap.Error(err))
		warn(v, "archive could not be read: "+err.Error())
		m.Vendors.WithLabelValues(metrics.VendorSkipped).Inc()
		v.skipped = true
		return
	}
	if len(src) == 0 {
		log.Warn("pipeline: skipping archive without PDF documents")
		warn(v, "archive contains no PDF documents")
		m.Vendors.WithLabelValues(metrics.VendorSkipped).Inc()
		v.skipped = true
		return
	}

	v.docs = p.extractor.ExtractAll(ctx, src)
	v.report.Stats.Documents = len(v.docs)
	for _, d := range v.docs {
		if d.Method == model.ExtractionFailed {
			v.report.Stats.FailedExtractions++
		}
	}
	log.Info("pipeline: documents extracted",
		zap.Int("documents", v.report.Stats.Documents),
		zap.Int("failed", v.report.Stats.FailedExtractions),
	)
}

// analyzeVendor classifies the vendor's batches and reduces them into its
// report. The extracted text is dropped once the report is built.
func (p *Pipeline) analyzeVendor(ctx context.Context, v *vendor, orc *oracle.Client, referenceDate time.Time) {
	batches := Partition(v.id, v.docs, p.opts.BatchSize)
	partials := orc.ClassifyAll(ctx, batches, referenceDate)

	stats := v.report.Stats
	stats.Batches = len(batches)
	for _, pa := range partials {
		if pa.IsEmpty() {
			stats.EmptyBatches++
		}
	}

	report := aggregate.Reduce(v.id, partials)
	report.Archive = v.input.DisplayName()
	if report.CompanyName == "" {
		report.CompanyName = v.id
	}
	report.MissingDocuments = compliance.Missing(report, p.rubric.Checklist)
	report.Stats = stats
	v.report = report
	v.docs = nil

	metrics.Get().Vendors.WithLabelValues(metrics.VendorEvaluated).Inc()
	zap.L().Info("pipeline: vendor analyzed",
		zap.String("vendor", v.id),
		zap.String("company", report.CompanyName),
		zap.Int("batches", stats.Batches),
		zap.Int("empty_batches", stats.EmptyBatches),
		zap.Int("missing_documents", len(report.MissingDocuments)),
		zap.Float64("grand_total", report.GrandTotal),
	)
}
