// Package gateway serializes access to the external OCR provider. All
// pipeline invocations funnel through one Gateway instance so the in-flight
// token and the rate-window ledger are global to the process.
package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmarulanda/fuelscan/internal/provider"
	"github.com/dmarulanda/fuelscan/internal/ratelimit"
)

// Gateway performs exactly one externally metered call per Analyze,
// honoring the sliding-window limiter. The in-flight token additionally
// bounds concurrency to one outstanding provider call, so a slow call can
// never overlap another that would together exceed quota.
type Gateway struct {
	analyzer provider.DocumentAnalyzer
	limiter  *ratelimit.SlidingWindow
	inflight chan struct{}
	logger   *slog.Logger
}

func New(analyzer provider.DocumentAnalyzer, limiter *ratelimit.SlidingWindow, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		analyzer: analyzer,
		limiter:  limiter,
		inflight: make(chan struct{}, 1),
		logger:   logger,
	}
}

// Analyze acquires the in-flight token, waits out the limiter delay, calls
// the provider, and records the call in the window on success. The token is
// released on success, failure, and cancellation alike.
//
// Only successful calls consume a window slot: a call the provider rejected
// never reached "operation accepted" and a quota rejection means the
// provider is already past capacity, so recording it locally buys nothing.
func (g *Gateway) Analyze(ctx context.Context, doc provider.Document) (*provider.Analysis, error) {
	select {
	case g.inflight <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-g.inflight }()

	if delay := g.limiter.Delay(); delay > 0 {
		g.logger.Info("gateway.analyze.waiting",
			"filename", doc.Filename, "delay_ms", delay.Milliseconds())
		if err := sleep(ctx, delay); err != nil {
			// Cancelled before the provider was ever called; nothing to
			// record against the window.
			return nil, err
		}
	}

	start := time.Now()
	analysis, err := g.analyzer.Analyze(ctx, doc)
	if err != nil {
		g.logger.Error("gateway.analyze.failed",
			"filename", doc.Filename, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	g.limiter.Record()
	g.logger.Info("gateway.analyze.ok",
		"filename", doc.Filename,
		"pages", len(analysis.Pages),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return analysis, nil
}

// sleep waits for d without holding any lock on shared limiter state.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
