// Package extract derives the canonical fill-up record from the provider's
// analysis. Extraction is purely syntactic: ordered regex cascades with
// fixed per-tier confidence constants, no probabilistic inference.
package extract

import "time"

// ReceiptData is the canonical output record. Every field is independently
// optional; nil means "not found", which is a normal outcome, not an error.
type ReceiptData struct {
	StationName   *string    `json:"nombreGasolinera,omitempty"`
	Total         *float64   `json:"total,omitempty"`
	Plate         *string    `json:"placa,omitempty"`
	FillUpDate    *time.Time `json:"fechaTanqueo,omitempty"`
	Gallons       *float64   `json:"cantidadGalones,omitempty"`
	Odometer      *int       `json:"kilometraje,omitempty"`
	VoucherNumber *string    `json:"numeroVale,omitempty"`
	TaxID         *string    `json:"nit,omitempty"`
	FuelType      *string    `json:"tipoDeCombustible,omitempty"`
}

// Confidence parallels ReceiptData, one score per field in [0,1]. The value
// reflects which pattern tier matched (a fixed priority ranking), not a
// statistical probability. Zero means not computed / not found.
type Confidence struct {
	StationName   float32 `json:"nombreGasolinera"`
	Total         float32 `json:"total"`
	Plate         float32 `json:"placa"`
	FillUpDate    float32 `json:"fechaTanqueo"`
	Gallons       float32 `json:"cantidadGalones"`
	Odometer      float32 `json:"kilometraje"`
	VoucherNumber float32 `json:"numeroVale"`
	TaxID         float32 `json:"nit"`
	FuelType      float32 `json:"tipoDeCombustible"`
}
