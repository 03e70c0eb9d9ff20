package extraction

import "github.com/shopspring/decimal"

// Result holds the fields recovered from one receipt. A nil pointer or an
// empty Date means the field could not be found.
type Result struct {
	Total       *int64           `json:"total,omitempty"`
	Tax         *int64           `json:"tax,omitempty"`
	Liters      *decimal.Decimal `json:"liters,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	Date        string           `json:"date,omitempty"` // YYYY/MM/DD
	TotalSource Source           `json:"total_source,omitempty"`
}

// Bookable reports whether the result carries enough to save a ledger
// record: at least one of total, liters or unit price.
func (r Result) Bookable() bool {
	return r.Total != nil || r.Liters != nil || r.UnitPrice != nil
}

// Extractor runs the whole pipeline with a fixed configuration.
type Extractor struct {
	cfg Config
}

// NewExtractor creates an Extractor. A config that fails Validate is
// replaced by DefaultConfig.
func NewExtractor(cfg Config) *Extractor {
	if cfg.Validate() != nil {
		cfg = DefaultConfig()
	}
	return &Extractor{cfg: cfg}
}

// Config returns the thresholds the extractor was built with
func (e *Extractor) Config() Config {
	return e.cfg
}

// Extract recovers the receipt fields from raw OCR text. It never fails:
// empty or unreadable text produces an empty Result.
func (e *Extractor) Extract(raw string) Result {
	folded := fold(raw)
	text := joinDigits(folded)

	var r Result
	if t, ok := ResolveTotal(Scan(text, e.cfg), e.cfg); ok {
		total, tax := t.Total, t.Tax
		r.Total, r.Tax, r.TotalSource = &total, &tax, t.Source
	}
	r.Liters, r.UnitPrice = ResolveVolumeAndPrice(text)
	r.Date = ResolveDate(folded)

	return Reconcile(r, e.cfg)
}
