package extract

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NormalizePlate uppercases, strips internal whitespace, and inserts a
// hyphen after the third character when none is present and the plate is
// long enough. Canonical forms are LLL-DDD and LLL-DDDD.
func NormalizePlate(s string) string {
	s = strings.ToUpper(strings.Join(strings.Fields(s), ""))
	if !strings.Contains(s, "-") && len(s) >= 6 {
		s = s[:3] + "-" + s[3:]
	}
	return s
}

// NormalizeTaxID strips whitespace and replaces commas with periods. OCR
// and locale variance make the two grouping separators interchangeable in
// practice.
func NormalizeTaxID(s string) string {
	s = strings.Join(strings.Fields(s), "")
	return strings.ReplaceAll(s, ",", ".")
}

// ParseDecimal accepts comma or period as the decimal separator by
// normalizing commas to periods before parsing. A value carrying both
// separators (thousands grouping) is not disambiguated.
func ParseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}

// parseDate handles the shapes the date cascade captures: YYYY-MM-DD and
// YYYY/MM/DD year-first, otherwise day-first D-M-Y with a 2- or 4-digit
// year. Two-digit years are taken as 20xx.
func parseDate(s string) (time.Time, error) {
	parts := strings.Split(strings.ReplaceAll(s, "/", "-"), "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("unrecognized date: %q", s)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, fmt.Errorf("unrecognized date: %q", s)
		}
		nums[i] = n
	}

	var year, month, day int
	if len(parts[0]) == 4 {
		year, month, day = nums[0], nums[1], nums[2]
	} else {
		day, month, year = nums[0], nums[1], nums[2]
		if year < 100 {
			year += 2000
		}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("date out of range: %q", s)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}
