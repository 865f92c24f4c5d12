package extract

import (
	"regexp"
	"strings"
)

// rule is one tier of a cascade: a pattern, the confidence constant that
// tier carries, and a picker that selects (and may reject) the capture.
type rule struct {
	re   *regexp.Regexp
	conf float32
	pick func(m []string) (string, bool)
}

// cascade is an ordered list of rules evaluated first-match-wins. A rule
// whose picker rejects the capture does not stop the cascade; evaluation
// continues at the next tier.
type cascade []rule

func (c cascade) apply(text string) (string, float32, bool) {
	for _, r := range c {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, ok := r.pick(m)
		if !ok {
			continue
		}
		return v, r.conf, true
	}
	return "", 0, false
}

func firstGroup(m []string) (string, bool) {
	return strings.TrimSpace(m[1]), true
}

// voucherToken returns the last capture group, which the patterns position
// after an optional run of alphabetic-only label words (e.g. "RESH" in
// "No. RESH 81651653"). A token without a single alphanumeric character is
// rejected so the cascade can try the next tier.
func voucherToken(m []string) (string, bool) {
	token := strings.TrimSpace(m[len(m)-1])
	if !hasAlnum(token) {
		return "", false
	}
	return token, true
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

var plateRules = cascade{
	{regexp.MustCompile(`(?i)\bplaca\s*:\s*([A-Za-z]{3}\s?-?\s?\d{3,4})\b`), 0.90, firstGroup},
	{regexp.MustCompile(`(?i)\bplaca\s+([A-Za-z]{3}\s?-?\s?\d{3,4})\b`), 0.85, firstGroup},
	{regexp.MustCompile(`\b([A-Za-z]{3}\s?-?\s?\d{3,4})\b`), 0.60, firstGroup},
}

var dateRules = cascade{
	{regexp.MustCompile(`(?i)\bfecha\s*:\s*(\d{4}[-/]\d{1,2}[-/]\d{1,2})\b`), 0.90, firstGroup},
	{regexp.MustCompile(`\b(\d{4}[-/]\d{1,2}[-/]\d{1,2})\b`), 0.85, firstGroup},
	{regexp.MustCompile(`\b(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})\b`), 0.60, firstGroup},
}

var gallonsRules = cascade{
	{regexp.MustCompile(`(?i)\b(?:cantidad|volumen|galones)\s*:?\s*(\d+(?:[.,]\d+)?)`), 0.90, firstGroup},
	{regexp.MustCompile(`(?i)\bGAL\s*:G\s*(\d+(?:[.,]\d+)?)`), 0.88, firstGroup},
	{regexp.MustCompile(`(?i)\b(?:corriente|acpm|urea)\s+(\d+(?:[.,]\d+)?)\s*(?:gal(?:ones)?|gl)\b`), 0.80, firstGroup},
}

var odometerRules = cascade{
	{regexp.MustCompile(`(?i)\b(?:kilometraje|kilometros|kil[oó]metros|od[oó]metro)\s*:?\s*(\d{1,7})\b`), 0.90, firstGroup},
	{regexp.MustCompile(`(?i)\bKM\s*:\s*(\d{5,7})\b`), 0.85, firstGroup},
}

var voucherRules = cascade{
	{regexp.MustCompile(`(?i)\borden\s+de\s+(?:venta|pedido)\s*:\s*((?:[A-Za-z]+\s+)*)(\S+)`), 0.95, voucherToken},
	{regexp.MustCompile(`(?i)\b(?:vale|recibo|factura|n[uú]mero)\s*:\s*((?:[A-Za-z]+\s+)*)(\S+)`), 0.90, voucherToken},
	{regexp.MustCompile(`(?i)(?:\bNo\b\.?|\bNum\b\.?|#)\s*:?\s*((?:[A-Za-z]+\s+)*)(\S+)`), 0.85, voucherToken},
}

var taxIDRules = cascade{
	{regexp.MustCompile(`(?i)\bNIT\s*:\s*((?:\d{1,3}[.,])+\d{3}\s*-\s*\d)\b`), 0.92, firstGroup},
	{regexp.MustCompile(`(?i)\bNIT\s*:?\s*((?:\d{1,3}[.,])*\d{3,9}\s*-\s*\d)\b`), 0.85, firstGroup},
	{regexp.MustCompile(`\b(\d{3}[.,]\d{3}[.,]\d{3}-\d)\b`), 0.70, firstGroup},
}

var fuelTypeRules = cascade{
	{regexp.MustCompile(`(?i)\bcombustible\s*:\s*(corriente|acpm|urea)\b`), 0.95, firstGroup},
	{regexp.MustCompile(`(?i)\b(?:tipo|producto)\s*:?\s*(corriente|acpm|urea)\b`), 0.88, firstGroup},
	{regexp.MustCompile(`(?i)\b(corriente|acpm|urea)\s+\d+(?:[.,]\d+)?\s*(?:gal(?:ones)?|gl)\b`), 0.78, firstGroup},
	{regexp.MustCompile(`(?i)\b(corriente|acpm|urea)\b`), 0.65, firstGroup},
}
