package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarulanda/fuelscan/internal/common"
	"github.com/dmarulanda/fuelscan/internal/entity"
	"github.com/dmarulanda/fuelscan/internal/export"
	"github.com/dmarulanda/fuelscan/internal/extract"
	"github.com/dmarulanda/fuelscan/internal/pipeline"
	"github.com/dmarulanda/fuelscan/internal/provider"
)

type stubProcessor struct {
	result pipeline.Result
	calls  int
}

func (s *stubProcessor) Process(context.Context, provider.Document) pipeline.Result {
	s.calls++
	return s.result
}

type memRepo struct {
	recs    []*entity.FillUp
	saveErr error
}

func (m *memRepo) Save(_ context.Context, rec *entity.FillUp) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.FillUp, error) {
	for _, rec := range m.recs {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memRepo) List(context.Context, *time.Time, *time.Time) ([]*entity.FillUp, error) {
	return m.recs, nil
}

func successResult() pipeline.Result {
	fuel := "ACPM"
	gallons := 15.5
	return pipeline.Result{
		Success:          true,
		Data:             &extract.ReceiptData{FuelType: &fuel, Gallons: &gallons},
		Confidence:       &extract.Confidence{FuelType: 0.95, Gallons: 0.90},
		ProcessingTimeMs: 12,
	}
}

func newTestServer(proc Processor, repo *memRepo) *Server {
	return New(proc, repo, export.NewService(repo, nil), nil)
}

func uploadRequest(t *testing.T, filename string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/receipts", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestProcessEndpointSuccess(t *testing.T) {
	repo := &memRepo{}
	srv := newTestServer(&stubProcessor{result: successResult()}, repo)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, uploadRequest(t, "tanqueo.jpg"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, rr.Header().Get("X-Record-ID"))

	var res pipeline.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.True(t, res.Success)
	require.NotNil(t, res.Data.FuelType)
	assert.Equal(t, "ACPM", *res.Data.FuelType)

	require.Len(t, repo.recs, 1)
	assert.Equal(t, "tanqueo.jpg", repo.recs[0].Filename)
}

func TestProcessEndpointRateLimited(t *testing.T) {
	repo := &memRepo{}
	srv := newTestServer(&stubProcessor{result: pipeline.Result{
		Success: false,
		Error:   &pipeline.ErrorInfo{Code: pipeline.CodeRateLimitExceeded, Message: "quota exhausted"},
	}}, repo)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, uploadRequest(t, "tanqueo.jpg"))

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Empty(t, repo.recs)
}

func TestProcessEndpointProcessingError(t *testing.T) {
	srv := newTestServer(&stubProcessor{result: pipeline.Result{
		Success: false,
		Error:   &pipeline.ErrorInfo{Code: pipeline.CodeProcessingError, Message: "provider down"},
	}}, &memRepo{})

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, uploadRequest(t, "tanqueo.jpg"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestProcessEndpointRejectsExtension(t *testing.T) {
	proc := &stubProcessor{result: successResult()}
	srv := newTestServer(proc, &memRepo{})

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, uploadRequest(t, "receipt.exe"))

	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
	assert.Zero(t, proc.calls)
}

func TestProcessEndpointMissingFile(t *testing.T) {
	srv := newTestServer(&stubProcessor{}, &memRepo{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/v1/receipts", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProcessEndpointSaveFailure(t *testing.T) {
	srv := newTestServer(&stubProcessor{result: successResult()}, &memRepo{saveErr: errors.New("disk full")})

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, uploadRequest(t, "tanqueo.jpg"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestListEndpoint(t *testing.T) {
	repo := &memRepo{}
	fuel := "Corriente"
	repo.recs = append(repo.recs, entity.NewFillUp("a.jpg", extract.ReceiptData{FuelType: &fuel}, extract.Confidence{FuelType: 0.95}))
	srv := newTestServer(&stubProcessor{}, repo)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/receipts", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Records []*entity.FillUp `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Records, 1)
	assert.Equal(t, "a.jpg", body.Records[0].Filename)
}

func TestListEndpointRejectsBadDate(t *testing.T) {
	srv := newTestServer(&stubProcessor{}, &memRepo{})

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/receipts?from=03-2024", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetEndpoint(t *testing.T) {
	repo := &memRepo{}
	rec := entity.NewFillUp("a.jpg", extract.ReceiptData{}, extract.Confidence{})
	repo.recs = append(repo.recs, rec)
	srv := newTestServer(&stubProcessor{}, repo)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/receipts/"+rec.ID.String(), nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/receipts/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/receipts/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExportEndpoint(t *testing.T) {
	repo := &memRepo{}
	srv := newTestServer(&stubProcessor{}, repo)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/receipts/export", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "attachment")
	assert.NotEmpty(t, rr.Body.Bytes())
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&stubProcessor{}, &memRepo{})

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	unhealthy := New(&stubProcessor{}, &memRepo{}, export.NewService(&memRepo{}, nil), nil,
		WithHealthCheck(func(context.Context) error { return errors.New("db down") }))
	rr = httptest.NewRecorder()
	unhealthy.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
