package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmarulanda/fuelscan/internal/extract"
)

// FillUp is a stored extraction result for data transfer between layers.
type FillUp struct {
	ID            uuid.UUID          `json:"id"`
	Filename      string             `json:"filename"`
	StationName   *string            `json:"nombreGasolinera,omitempty"`
	Total         *float64           `json:"total,omitempty"`
	Plate         *string            `json:"placa,omitempty"`
	FillUpDate    *time.Time         `json:"fechaTanqueo,omitempty"`
	Gallons       *float64           `json:"cantidadGalones,omitempty"`
	Odometer      *int               `json:"kilometraje,omitempty"`
	VoucherNumber *string            `json:"numeroVale,omitempty"`
	TaxID         *string            `json:"nit,omitempty"`
	FuelType      *string            `json:"tipoDeCombustible,omitempty"`
	Confidence    extract.Confidence `json:"confidence"`
	ProcessedAt   time.Time          `json:"processedAt"`
}

// NewFillUp assembles a FillUp from one extraction outcome.
func NewFillUp(filename string, data extract.ReceiptData, conf extract.Confidence) *FillUp {
	return &FillUp{
		ID:            uuid.New(),
		Filename:      filename,
		StationName:   data.StationName,
		Total:         data.Total,
		Plate:         data.Plate,
		FillUpDate:    data.FillUpDate,
		Gallons:       data.Gallons,
		Odometer:      data.Odometer,
		VoucherNumber: data.VoucherNumber,
		TaxID:         data.TaxID,
		FuelType:      data.FuelType,
		Confidence:    conf,
		ProcessedAt:   time.Now().UTC(),
	}
}
