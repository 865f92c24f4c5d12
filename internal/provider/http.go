package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// sendRequest performs one HTTP exchange and returns the raw body, status
// and headers. It does not assume a provider; callers decide URL, method
// and headers.
func sendRequest(ctx context.Context, client *http.Client, method, url string, body io.Reader, headers map[string]string, logger *slog.Logger) ([]byte, int, http.Header, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		logger.Error("provider.http.build_request_error", "error", err)
		return nil, 0, nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("provider.http.send_error", "method", method, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("provider.http.body_close_error", "error", cerr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("provider.http.read_error", "error", err)
		return nil, resp.StatusCode, resp.Header, fmt.Errorf("read response: %w", err)
	}

	logger.Debug("provider.http.response",
		"method", method,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return raw, resp.StatusCode, resp.Header, nil
}
