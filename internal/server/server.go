// Package server exposes the extraction pipeline and stored records over
// HTTP.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmarulanda/fuelscan/internal/export"
	"github.com/dmarulanda/fuelscan/internal/pipeline"
	"github.com/dmarulanda/fuelscan/internal/provider"
	"github.com/dmarulanda/fuelscan/internal/repository"
)

// Processor is the slice of the pipeline the server depends on.
type Processor interface {
	Process(ctx context.Context, doc provider.Document) pipeline.Result
}

type Server struct {
	processor      Processor
	repo           repository.FillUpRepository
	exporter       *export.Service
	health         func(ctx context.Context) error
	maxUploadBytes int64
	logger         *slog.Logger
}

type Option func(*Server)

// WithHealthCheck installs the readiness probe run by GET /healthz.
func WithHealthCheck(fn func(ctx context.Context) error) Option {
	return func(s *Server) { s.health = fn }
}

func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

func New(processor Processor, repo repository.FillUpRepository, exporter *export.Service, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		processor:      processor,
		repo:           repo,
		exporter:       exporter,
		maxUploadBytes: 20 << 20,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the route table wrapped with request-ID logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/receipts", s.handleProcess)
	mux.HandleFunc("GET /v1/receipts", s.handleList)
	mux.HandleFunc("GET /v1/receipts/export", s.handleExport)
	mux.HandleFunc("GET /v1/receipts/{id}", s.handleGet)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.withRequestID(mux)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("http.response.encode_failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}
