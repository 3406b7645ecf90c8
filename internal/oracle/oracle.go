// Package oracle classifies batches of extracted documents through the
// Claude Messages API and decodes the structured findings.
package oracle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/tender-cli/internal/cost"
	"github.com/sells-group/tender-cli/internal/metrics"
	"github.com/sells-group/tender-cli/internal/model"
	"github.com/sells-group/tender-cli/internal/resilience"
	"github.com/sells-group/tender-cli/pkg/anthropic"
)

// Cache stores raw oracle responses keyed by request content.
type Cache interface {
	GetCachedAnalysis(ctx context.Context, key string) ([]byte, error)
	SetCachedAnalysis(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// Options configures a Client.
type Options struct {
	Model      string
	MaxTokens  int64
	Workers    int
	ISOMinDays int
	Retry      resilience.RetryConfig
	Calculator *cost.Calculator
	Cache      Cache
	CacheTTL   time.Duration
}

// Client sends analysis batches to the oracle. Calls never fail from the
// caller's point of view: transport and parse failures produce an empty
// PartialAnalysis for the batch.
type Client struct {
	ai     anthropic.Client
	opts   Options
	system []anthropic.SystemBlock

	mu    sync.Mutex
	usage model.TokenUsage
}

// New creates a Client for the given checklist.
func New(ai anthropic.Client, checklist model.Checklist, opts Options) *Client {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 8192
	}
	if opts.ISOMinDays <= 0 {
		opts.ISOMinDays = 180
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger("anthropic", "classify")
	}
	return &Client{
		ai:     ai,
		opts:   opts,
		system: anthropic.BuildCachedSystemBlocks(SystemPrompt(checklist, opts.ISOMinDays)),
	}
}

// Usage returns token usage accumulated across all calls so far.
func (c *Client) Usage() model.TokenUsage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}

// Classify sends one batch and returns the oracle's findings.
func (c *Client) Classify(ctx context.Context, batch model.AnalysisBatch, referenceDate time.Time) model.PartialAnalysis {
	log := zap.L().With(
		zap.String("vendor", batch.VendorID),
		zap.Int("batch", batch.Index),
		zap.Int("documents", len(batch.Documents)),
	)
	m := metrics.Get()

	prompt := UserPrompt(batch, referenceDate)
	key := c.cacheKey(prompt)

	if text, ok := c.cached(ctx, key); ok {
		if p, err := Parse(text, batch.Index, batch.VendorID); err == nil {
			m.OracleBatches.WithLabelValues(metrics.OutcomeCached).Inc()
			log.Debug("oracle: cache hit")
			return p
		}
	}

	temp := 0.0
	req := anthropic.MessageRequest{
		Model:       c.opts.Model,
		MaxTokens:   c.opts.MaxTokens,
		System:      c.system,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	}

	retry := c.opts.Retry
	retry.ShouldRetry = isRetryable

	start := time.Now()
	resp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return c.ai.CreateMessage(ctx, req)
	})
	m.OracleDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.OracleBatches.WithLabelValues(metrics.OutcomeCallError).Inc()
		log.Warn("oracle: call failed, recording empty analysis", zap.Error(err))
		return model.EmptyAnalysis(batch.Index, batch.VendorID)
	}
	c.record(resp.Usage)

	text := resp.Text()
	p, err := Parse(text, batch.Index, batch.VendorID)
	if err != nil {
		m.OracleBatches.WithLabelValues(metrics.OutcomeParseError).Inc()
		log.Warn("oracle: unparseable response, recording empty analysis",
			zap.String("stop_reason", resp.StopReason),
			zap.Error(err),
		)
		return p
	}

	m.OracleBatches.WithLabelValues(metrics.OutcomeOK).Inc()
	c.store(ctx, key, text)
	log.Debug("oracle: batch classified",
		zap.Int("found_documents", len(p.FoundDocuments)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return p
}

// ClassifyAll classifies batches concurrently. The result slice is indexed
// like batches, whatever order the calls complete in.
func (c *Client) ClassifyAll(ctx context.Context, batches []model.AnalysisBatch, referenceDate time.Time) []model.PartialAnalysis {
	results := make([]model.PartialAnalysis, len(batches))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i, b := range batches {
		i, b := i, b
		g.Go(func() error {
			results[i] = c.Classify(gCtx, b, referenceDate)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *Client) record(u anthropic.TokenUsage) {
	usage := model.TokenUsage{
		InputTokens:         int(u.InputTokens),
		OutputTokens:        int(u.OutputTokens),
		CacheCreationTokens: int(u.CacheCreationInputTokens),
		CacheReadTokens:     int(u.CacheReadInputTokens),
	}
	if c.opts.Calculator != nil {
		usage.Cost = c.opts.Calculator.Claude(c.opts.Model,
			usage.InputTokens, usage.OutputTokens, usage.CacheCreationTokens, usage.CacheReadTokens)
	}

	c.mu.Lock()
	c.usage.Add(usage)
	c.mu.Unlock()
}

func (c *Client) cacheKey(prompt string) string {
	h := sha256.New()
	h.Write([]byte(c.opts.Model))
	h.Write([]byte{0})
	h.Write([]byte(c.system[0].Text))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Client) cached(ctx context.Context, key string) (string, bool) {
	if c.opts.Cache == nil || c.opts.CacheTTL <= 0 {
		return "", false
	}
	data, err := c.opts.Cache.GetCachedAnalysis(ctx, key)
	if err != nil {
		zap.L().Warn("oracle: cache read failed", zap.Error(err))
		return "", false
	}
	if data == nil {
		return "", false
	}
	return string(data), true
}

func (c *Client) store(ctx context.Context, key, text string) {
	if c.opts.Cache == nil || c.opts.CacheTTL <= 0 {
		return
	}
	if err := c.opts.Cache.SetCachedAnalysis(ctx, key, []byte(text), c.opts.CacheTTL); err != nil {
		zap.L().Warn("oracle: cache write failed", zap.Error(eris.Wrap(err, "oracle: store cached analysis")))
	}
}

func isRetryable(err error) bool {
	if code := anthropic.StatusCode(err); code != 0 {
		return resilience.IsTransientHTTPStatus(code)
	}
	return resilience.IsTransient(err)
}
