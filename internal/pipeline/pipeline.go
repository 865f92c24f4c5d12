// Package pipeline orchestrates one receipt through analysis and field
// extraction: acquire the document stream, gateway.Analyze, Extract,
// assemble the timed result.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmarulanda/fuelscan/internal/extract"
	"github.com/dmarulanda/fuelscan/internal/provider"
)

// Error codes surfaced to the transport layer, which maps them to status
// codes (429 for the first, a generic processing error for the second).
const (
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeProcessingError   = "PROCESSING_ERROR"
)

// Analyzer is the slice of the gateway the pipeline depends on.
type Analyzer interface {
	Analyze(ctx context.Context, doc provider.Document) (*provider.Analysis, error)
}

// ErrorInfo is the structured code/message pair carried on failed results.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the pipeline's output envelope.
type Result struct {
	Success          bool                 `json:"success"`
	Data             *extract.ReceiptData `json:"data,omitempty"`
	Confidence       *extract.Confidence  `json:"confidence,omitempty"`
	ProcessingTimeMs int64                `json:"processingTimeMs"`
	Error            *ErrorInfo           `json:"error,omitempty"`
}

type Pipeline struct {
	analyzer Analyzer
	logger   *slog.Logger
}

func New(analyzer Analyzer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{analyzer: analyzer, logger: logger}
}

// Process runs one document through the pipeline. Failures are folded into
// the result envelope rather than returned: extraction itself cannot fail
// (a non-match is absence, not an error), so every failure originates in
// the gateway or in reading the input stream. No internal retry — a quota
// rejection means the window is exhausted for every caller.
func (p *Pipeline) Process(ctx context.Context, doc provider.Document) Result {
	start := time.Now()

	p.logger.Info("pipeline.process.start", "filename", doc.Filename)

	analysis, err := p.analyzer.Analyze(ctx, doc)
	if err != nil {
		code := CodeProcessingError
		if errors.Is(err, provider.ErrQuotaExceeded) {
			code = CodeRateLimitExceeded
		}
		elapsed := time.Since(start).Milliseconds()
		p.logger.Error("pipeline.process.failed",
			"filename", doc.Filename, "code", code, "error", err, "elapsed_ms", elapsed)
		return Result{
			Success:          false,
			ProcessingTimeMs: elapsed,
			Error:            &ErrorInfo{Code: code, Message: err.Error()},
		}
	}

	data, confidence := extract.Extract(analysis)
	elapsed := time.Since(start).Milliseconds()

	p.logger.Info("pipeline.process.ok",
		"filename", doc.Filename,
		"has_station", data.StationName != nil,
		"has_total", data.Total != nil,
		"has_plate", data.Plate != nil,
		"elapsed_ms", elapsed,
	)
	return Result{
		Success:          true,
		Data:             &data,
		Confidence:       &confidence,
		ProcessingTimeMs: elapsed,
	}
}
