package server

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmarulanda/fuelscan/constants"
	"github.com/dmarulanda/fuelscan/internal/common"
	"github.com/dmarulanda/fuelscan/internal/entity"
	"github.com/dmarulanda/fuelscan/internal/pipeline"
	"github.com/dmarulanda/fuelscan/internal/provider"
)

// handleProcess accepts one receipt as multipart form field "file", runs it
// through the pipeline, and persists successful extractions. The pipeline
// result envelope is returned verbatim; a rate-limit rejection becomes 429,
// every other failure a generic 500.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", fmt.Sprintf("parse multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", `multipart field "file" is required`)
		return
	}
	defer file.Close()

	if ext := filepath.Ext(header.Filename); !constants.IsAllowedExt(ext) {
		s.writeError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT",
			fmt.Sprintf("extension %q is not an accepted receipt format", ext))
		return
	}

	res := s.processor.Process(r.Context(), provider.Document{
		Content:  file,
		Filename: header.Filename,
	})

	if !res.Success {
		status := http.StatusInternalServerError
		if res.Error != nil && res.Error.Code == pipeline.CodeRateLimitExceeded {
			status = http.StatusTooManyRequests
		}
		s.writeJSON(w, status, res)
		return
	}

	rec := entity.NewFillUp(header.Filename, *res.Data, *res.Confidence)
	if err := s.repo.Save(r.Context(), rec); err != nil {
		s.logger.Error("http.receipts.save_failed", "filename", header.Filename, "error", err)
		s.writeError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to persist extraction result")
		return
	}

	w.Header().Set("X-Record-ID", rec.ID.String())
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateParam(r, "from")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	recs, err := s.repo.List(r.Context(), from, to)
	if err != nil {
		s.logger.Error("http.receipts.list_failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to list records")
		return
	}
	if recs == nil {
		recs = []*entity.FillUp{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"records": recs})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "id must be a UUID")
		return
	}

	rec, err := s.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "NOT_FOUND", "record not found")
			return
		}
		s.logger.Error("http.receipts.get_failed", "id", id.String(), "error", err)
		s.writeError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to load record")
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateParam(r, "from")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	data, err := s.exporter.ExportXLSX(r.Context(), from, to)
	if err != nil {
		s.logger.Error("http.receipts.export_failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "EXPORT_ERROR", "failed to build export")
		return
	}

	name := fmt.Sprintf("tanqueos_%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.writeError(w, http.StatusServiceUnavailable, "UNHEALTHY", err.Error())
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, fmt.Errorf("%s invalid (YYYY-MM-DD): %v", name, err)
	}
	return &t, nil
}
