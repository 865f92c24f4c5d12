package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

const (
	defaultModelID    = "prebuilt-receipt"
	defaultAPIVersion = "2024-02-29-preview"
	keyHeader         = "Ocp-Apim-Subscription-Key"
)

// AzureConfig configures the Document Intelligence client.
type AzureConfig struct {
	Endpoint     string        // e.g. https://myresource.cognitiveservices.azure.com
	APIKey       string        // falls back to env AZURE_DI_KEY
	ModelID      string        // default "prebuilt-receipt"
	APIVersion   string        // default "2024-02-29-preview"
	PollInterval time.Duration // default 1s
	Timeout      time.Duration // per-HTTP-request timeout
}

// AzureClient implements DocumentAnalyzer against the Azure Document
// Intelligence REST API: submit returns 202 with an Operation-Location,
// which is polled until the analysis succeeds or fails.
type AzureClient struct {
	cfg    AzureConfig
	http   *http.Client
	logger *slog.Logger
}

func NewAzureClient(cfg AzureConfig, logger *slog.Logger) *AzureClient {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("AZURE_DI_KEY")
	}
	if cfg.ModelID == "" {
		cfg.ModelID = defaultModelID
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AzureClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Wire shapes — only the slice of the response we consume.
type analyzeEnvelope struct {
	Status        string          `json:"status"`
	Error         *apiError       `json:"error,omitempty"`
	AnalyzeResult json.RawMessage `json:"analyzeResult,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type analyzeResult struct {
	Documents []documentResult `json:"documents"`
	Pages     []pageResult     `json:"pages"`
}

type documentResult struct {
	Fields map[string]fieldResult `json:"fields"`
}

type fieldResult struct {
	Type          string   `json:"type"`
	ValueString   string   `json:"valueString"`
	ValueNumber   *float64 `json:"valueNumber"`
	ValueCurrency *struct {
		Amount float64 `json:"amount"`
	} `json:"valueCurrency"`
	ValueDate  string  `json:"valueDate"`
	Confidence float32 `json:"confidence"`
}

type pageResult struct {
	Lines []struct {
		Content string `json:"content"`
	} `json:"lines"`
}

// Analyze submits the document and polls until the provider finishes.
// Exactly one externally metered call per invocation.
func (c *AzureClient) Analyze(ctx context.Context, doc Document) (*Analysis, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("provider.analyze.start",
		"req_id", rid, "filename", doc.Filename, "model", c.cfg.ModelID)

	opURL, err := c.submit(ctx, rid, doc)
	if err != nil {
		c.logger.Error("provider.analyze.submit_error",
			"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	env, err := c.poll(ctx, rid, opURL)
	if err != nil {
		c.logger.Error("provider.analyze.poll_error",
			"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	if err := validateAnalyzeResult(env.AnalyzeResult); err != nil {
		return nil, fmt.Errorf("validate analyze result: %w", err)
	}

	var res analyzeResult
	if err := json.Unmarshal(env.AnalyzeResult, &res); err != nil {
		return nil, fmt.Errorf("decode analyze result: %w", err)
	}

	analysis := mapAnalysis(&res)
	c.logger.Info("provider.analyze.ok",
		"req_id", rid,
		"pages", len(analysis.Pages),
		"has_document", analysis.Document != nil,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return analysis, nil
}

func (c *AzureClient) submit(ctx context.Context, rid string, doc Document) (string, error) {
	url := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?api-version=%s",
		c.cfg.Endpoint, c.cfg.ModelID, c.cfg.APIVersion)

	headers := map[string]string{
		keyHeader:      c.cfg.APIKey,
		"Content-Type": "application/octet-stream",
	}
	body, status, respHeaders, err := sendRequest(ctx, c.http, http.MethodPost, url, doc.Content, headers, c.logger.With("req_id", rid))
	if err != nil {
		return "", err
	}
	if status != http.StatusAccepted {
		return "", c.errorFromResponse(status, body)
	}

	opURL := respHeaders.Get("Operation-Location")
	if opURL == "" {
		return "", &Error{Status: status, Message: "submit accepted but Operation-Location header missing"}
	}
	return opURL, nil
}

func (c *AzureClient) poll(ctx context.Context, rid, opURL string) (*analyzeEnvelope, error) {
	headers := map[string]string{keyHeader: c.cfg.APIKey}

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		body, status, _, err := sendRequest(ctx, c.http, http.MethodGet, opURL, nil, headers, c.logger.With("req_id", rid))
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, c.errorFromResponse(status, body)
		}

		var env analyzeEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decode poll response: %w", err)
		}

		switch env.Status {
		case "succeeded":
			return &env, nil
		case "failed":
			e := &Error{Status: status, Message: "analysis failed"}
			if env.Error != nil {
				e.Code = env.Error.Code
				e.Message = env.Error.Message
			}
			return nil, e
		}

		c.logger.Debug("provider.analyze.polling", "req_id", rid, "attempt", attempt, "status", env.Status)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// errorFromResponse maps a non-success provider response onto the closed
// taxonomy: 429 is a quota rejection, 401/403 an authentication failure,
// everything else a generic provider error carrying code and message.
func (c *AzureClient) errorFromResponse(status int, body []byte) error {
	var wrapper struct {
		Error *apiError `json:"error"`
	}
	_ = json.Unmarshal(body, &wrapper)

	switch status {
	case http.StatusTooManyRequests:
		if wrapper.Error != nil {
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, wrapper.Error.Message)
		}
		return ErrQuotaExceeded
	case http.StatusUnauthorized, http.StatusForbidden:
		if wrapper.Error != nil {
			return fmt.Errorf("%w: %s", ErrAuthFailed, wrapper.Error.Message)
		}
		return ErrAuthFailed
	}

	e := &Error{Status: status, Message: http.StatusText(status)}
	if wrapper.Error != nil {
		e.Code = wrapper.Error.Code
		e.Message = wrapper.Error.Message
	}
	return e
}

func mapAnalysis(res *analyzeResult) *Analysis {
	out := &Analysis{}

	for _, p := range res.Pages {
		page := Page{Lines: make([]string, 0, len(p.Lines))}
		for _, l := range p.Lines {
			page.Lines = append(page.Lines, l.Content)
		}
		out.Pages = append(out.Pages, page)
	}

	if len(res.Documents) == 0 {
		return out
	}
	fields := res.Documents[0].Fields
	doc := &AnalyzedDocument{}

	if f, ok := fields["MerchantName"]; ok && f.ValueString != "" {
		doc.MerchantName = &TextField{Value: f.ValueString, Confidence: f.Confidence}
	}
	if f, ok := fields["Total"]; ok {
		// The provider types totals as currency or plain number depending
		// on the receipt; accept both.
		switch {
		case f.ValueCurrency != nil:
			doc.Total = &NumberField{Value: f.ValueCurrency.Amount, Confidence: f.Confidence}
		case f.ValueNumber != nil:
			doc.Total = &NumberField{Value: *f.ValueNumber, Confidence: f.Confidence}
		}
	}
	if f, ok := fields["TransactionDate"]; ok && f.ValueDate != "" {
		if t, err := time.Parse("2006-01-02", f.ValueDate); err == nil {
			doc.TransactionDate = &DateField{Value: t, Confidence: f.Confidence}
		}
	}

	if doc.MerchantName != nil || doc.Total != nil || doc.TransactionDate != nil {
		out.Document = doc
	}
	return out
}
