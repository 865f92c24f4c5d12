// Package export produces XLSX workbooks from stored fill-up records.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dmarulanda/fuelscan/internal/repository"
)

// Service is a tiny façade over the repository that produces XLSX bytes.
type Service struct {
	repo   repository.FillUpRepository
	logger *slog.Logger
}

func NewService(repo repository.FillUpRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ExportXLSX returns an XLSX workbook (as bytes) for the given date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all records.
func (s *Service) ExportXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	// Normalize dates (date-only, UTC)
	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}

	recs, err := s.repo.List(ctx, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query fill-ups: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Tanqueos"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Fecha Tanqueo",
		"Estación",
		"NIT",
		"Placa",
		"Combustible",
		"Galones",
		"Kilometraje",
		"Total",
		"Vale",
		"Archivo",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		if r.FillUpDate != nil {
			write(1, r.FillUpDate.Format("2006-01-02"))
		}
		write(2, strOrEmpty(r.StationName))
		write(3, strOrEmpty(r.TaxID))
		write(4, strOrEmpty(r.Plate))
		write(5, strOrEmpty(r.FuelType))
		if r.Gallons != nil {
			write(6, *r.Gallons)
		}
		if r.Odometer != nil {
			write(7, *r.Odometer)
		}
		if r.Total != nil {
			write(8, *r.Total)
		}
		write(9, strOrEmpty(r.VoucherNumber))
		write(10, r.Filename)

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 14) // date
	_ = f.SetColWidth(sheet, "B", "B", 28) // station
	_ = f.SetColWidth(sheet, "C", "C", 18) // tax id
	_ = f.SetColWidth(sheet, "D", "E", 14) // plate, fuel
	_ = f.SetColWidth(sheet, "F", "H", 14) // amounts
	_ = f.SetColWidth(sheet, "I", "I", 18) // voucher
	_ = f.SetColWidth(sheet, "J", "J", 40) // filename

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
