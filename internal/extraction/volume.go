package extraction

import (
	"regexp"

	"github.com/shopspring/decimal"
)

var (
	// A fuel-volume label (給油量, 数量) may precede the number; the
	// boundary class admits it without requiring it.
	litersPattern = regexp.MustCompile(`(?m)(?:^|[^\d.,])(\d{1,3}(?:\.\d{1,2})?)\s*(?:L|l|リットル)(?:[^A-Za-z]|$)`)

	// Three spellings of a price per liter: "@163.0", "単価: 163.0" and
	// "163.0円/L".
	unitPricePattern = regexp.MustCompile(`(?im)` +
		`@\s*[¥\\]?\s*(\d{2,4}(?:\.\d{1,2})?)(?:[^\d]|$)` +
		`|(?:単価|unit\s*price)\s*:?\s*[¥\\]?\s*(\d{2,4}(?:\.\d{1,2})?)(?:[^\d]|$)` +
		`|(?:^|[^\d.,])(\d{2,4}(?:\.\d{1,2})?)\s*円?\s*/\s*(?:L|l|リットル)`)
)

// ResolveVolumeAndPrice reads the fuel volume and the price per liter
// straight from normalized text. Either may be nil.
func ResolveVolumeAndPrice(text string) (liters, unitPrice *decimal.Decimal) {
	if m := litersPattern.FindStringSubmatch(text); m != nil {
		liters = parseDecimal(m[1])
	}
	if m := unitPricePattern.FindStringSubmatch(text); m != nil {
		for _, g := range m[1:] {
			if g != "" {
				unitPrice = parseDecimal(g)
				break
			}
		}
	}
	return liters, unitPrice
}

func parseDecimal(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// Reconcile fills the one missing field of {total, liters, unit price} from
// the other two using total = liters * unit price. With zero or two fields
// missing the result is returned unchanged.
func Reconcile(r Result, cfg Config) Result {
	missing := 0
	if r.Total == nil {
		missing++
	}
	if r.Liters == nil {
		missing++
	}
	if r.UnitPrice == nil {
		missing++
	}
	if missing != 1 {
		return r
	}

	switch {
	case r.Total == nil:
		total := r.Liters.Mul(*r.UnitPrice).Round(0).IntPart()
		r.Total = &total
		r.TotalSource = SourceReconciled
		if cfg.TaxDivisor > 0 {
			tax := cfg.DeriveTax(total)
			r.Tax = &tax
		}
	case r.UnitPrice == nil:
		if r.Liters.IsZero() {
			return r
		}
		price := decimal.NewFromInt(*r.Total).DivRound(*r.Liters, 1)
		r.UnitPrice = &price
	case r.Liters == nil:
		if r.UnitPrice.IsZero() {
			return r
		}
		liters := decimal.NewFromInt(*r.Total).DivRound(*r.UnitPrice, 2)
		r.Liters = &liters
	}
	return r
}
