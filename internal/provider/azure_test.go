package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAnalyzeResult = `{
	"documents": [{
		"fields": {
			"MerchantName": {"type": "string", "valueString": "ESTACION TEXACO 44", "confidence": 0.97},
			"Total": {"type": "currency", "valueCurrency": {"amount": 120000}, "confidence": 0.93},
			"TransactionDate": {"type": "date", "valueDate": "2024-03-01", "confidence": 0.91}
		},
		"confidence": 0.95
	}],
	"pages": [
		{"lines": [{"content": "ESTACION TEXACO 44"}, {"content": "Placa: HGW-523"}]},
		{"lines": [{"content": "Combustible: ACPM"}]}
	]
}`

func newTestClient(t *testing.T, handler http.Handler) (*AzureClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewAzureClient(AzureConfig{
		Endpoint:     srv.URL,
		APIKey:       "test-key",
		PollInterval: 5 * time.Millisecond,
	}, nil)
	return c, srv
}

func TestAnalyzeSubmitAndPoll(t *testing.T) {
	var polls int
	mux := http.NewServeMux()

	var srvURL string
	mux.HandleFunc("POST /documentintelligence/documentModels/prebuilt-receipt:analyze", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		w.Header().Set("Operation-Location", srvURL+"/operations/op-1")
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("GET /operations/op-1", func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls == 1 {
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "running"})
			return
		}
		_, _ = w.Write([]byte(`{"status":"succeeded","analyzeResult":` + sampleAnalyzeResult + `}`))
	})

	c, srv := newTestClient(t, mux)
	srvURL = srv.URL

	analysis, err := c.Analyze(context.Background(), Document{
		Content:  strings.NewReader("fake-image-bytes"),
		Filename: "tanqueo.jpg",
	})
	require.NoError(t, err)
	require.Equal(t, 2, polls)

	require.NotNil(t, analysis.Document)
	require.NotNil(t, analysis.Document.MerchantName)
	assert.Equal(t, "ESTACION TEXACO 44", analysis.Document.MerchantName.Value)
	assert.InDelta(t, 0.97, analysis.Document.MerchantName.Confidence, 1e-6)

	require.NotNil(t, analysis.Document.Total)
	assert.Equal(t, 120000.0, analysis.Document.Total.Value)

	require.NotNil(t, analysis.Document.TransactionDate)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), analysis.Document.TransactionDate.Value)

	assert.Equal(t, "ESTACION TEXACO 44 Placa: HGW-523 Combustible: ACPM", analysis.Text())
}

func TestAnalyzePlainNumberTotal(t *testing.T) {
	result := `{
		"documents": [{"fields": {"Total": {"type": "number", "valueNumber": 85.5, "confidence": 0.8}}}],
		"pages": []
	}`
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /documentintelligence/documentModels/prebuilt-receipt:analyze", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Operation-Location", srvURL+"/op")
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("GET /op", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"succeeded","analyzeResult":` + result + `}`))
	})

	c, srv := newTestClient(t, mux)
	srvURL = srv.URL

	analysis, err := c.Analyze(context.Background(), Document{Content: strings.NewReader("x")})
	require.NoError(t, err)
	require.NotNil(t, analysis.Document)
	require.NotNil(t, analysis.Document.Total)
	assert.Equal(t, 85.5, analysis.Document.Total.Value)
}

func TestAnalyzeQuotaRejected(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":"429","message":"quota exhausted"}}`))
	}))

	_, err := c.Analyze(context.Background(), Document{Content: strings.NewReader("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestAnalyzeAuthRejected(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.Analyze(context.Background(), Document{Content: strings.NewReader("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestAnalyzeProviderError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"InvalidRequest","message":"unsupported media"}}`))
	}))

	_, err := c.Analyze(context.Background(), Document{Content: strings.NewReader("x")})
	require.Error(t, err)

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusBadRequest, perr.Status)
	assert.Equal(t, "InvalidRequest", perr.Code)
	assert.Equal(t, "unsupported media", perr.Message)
}

func TestAnalyzeFailedStatus(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /documentintelligence/documentModels/prebuilt-receipt:analyze", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Operation-Location", srvURL+"/op")
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("GET /op", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"failed","error":{"code":"InternalServerError","message":"model crashed"}}`))
	})

	c, srv := newTestClient(t, mux)
	srvURL = srv.URL

	_, err := c.Analyze(context.Background(), Document{Content: strings.NewReader("x")})
	require.Error(t, err)

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "model crashed", perr.Message)
}

func TestValidateAnalyzeResultRejectsWrongShape(t *testing.T) {
	err := validateAnalyzeResult([]byte(`{"pages": [{"lines": [{"content": 42}]}]}`))
	require.Error(t, err)

	err = validateAnalyzeResult([]byte(sampleAnalyzeResult))
	assert.NoError(t, err)
}
