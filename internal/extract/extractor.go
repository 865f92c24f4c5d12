package extract

import (
	"strconv"
	"strings"

	"github.com/dmarulanda/fuelscan/constants"
	"github.com/dmarulanda/fuelscan/internal/provider"
)

// Extract maps the provider's analysis onto the canonical record and its
// parallel confidence scores. It is a pure function over its input: same
// analysis in, bit-identical record out. Both values are produced together
// by one call, never partially filled across two.
//
// Structured provider fields are the highest-trust source (station name,
// total, transaction date, each carrying the provider's own confidence).
// Everything else comes from the free text, which also backs up the
// fill-up date when the provider supplied none.
func Extract(a *provider.Analysis) (ReceiptData, Confidence) {
	var data ReceiptData
	var conf Confidence
	if a == nil {
		return data, conf
	}

	if doc := a.Document; doc != nil {
		if f := doc.MerchantName; f != nil {
			if v := strings.TrimSpace(f.Value); v != "" {
				data.StationName = &v
				conf.StationName = f.Confidence
			}
		}
		if f := doc.Total; f != nil {
			v := f.Value
			data.Total = &v
			conf.Total = f.Confidence
		}
		if f := doc.TransactionDate; f != nil {
			v := f.Value
			data.FillUpDate = &v
			conf.FillUpDate = f.Confidence
		}
	}

	text := a.Text()

	if v, c, ok := plateRules.apply(text); ok {
		p := NormalizePlate(v)
		data.Plate = &p
		conf.Plate = c
	}

	if data.FillUpDate == nil {
		if v, c, ok := dateRules.apply(text); ok {
			if t, err := parseDate(v); err == nil {
				data.FillUpDate = &t
				conf.FillUpDate = c
			}
		}
	}

	if v, c, ok := gallonsRules.apply(text); ok {
		if n, err := ParseDecimal(v); err == nil {
			data.Gallons = &n
			conf.Gallons = c
		}
	}

	if v, c, ok := odometerRules.apply(text); ok {
		if n, err := strconv.Atoi(v); err == nil {
			data.Odometer = &n
			conf.Odometer = c
		}
	}

	if v, c, ok := voucherRules.apply(text); ok {
		data.VoucherNumber = &v
		conf.VoucherNumber = c
	}

	if v, c, ok := taxIDRules.apply(text); ok {
		nit := NormalizeTaxID(v)
		data.TaxID = &nit
		conf.TaxID = c
	}

	if v, c, ok := fuelTypeRules.apply(text); ok {
		ft := constants.CanonicalFuelType(v)
		data.FuelType = &ft
		conf.FuelType = c
	}

	return data, conf
}
