package extraction

import "math"

// Source names how a total was obtained.
type Source string

const (
	SourceHintedMax   Source = "hinted-max"
	SourceTaxRatio    Source = "tax-ratio"
	SourceCurrencyMax Source = "currency-max"
	SourceGlobalMax   Source = "global-max"
	SourceReconciled  Source = "reconciled"
)

// Totals is the outcome of the total/tax resolver.
type Totals struct {
	Total  int64
	Tax    int64
	Source Source
}

type totalStrategy struct {
	source  Source
	resolve func(pool []Candidate, cfg Config) (Totals, bool)
}

// Tried in order; the first strategy that finds something wins.
var totalStrategies = []totalStrategy{
	{SourceHintedMax, hintedMax},
	{SourceTaxRatio, taxRatio},
	{SourceCurrencyMax, currencyMax},
	{SourceGlobalMax, globalMax},
}

// ResolveTotal picks exactly one total and its tax from the candidates. It
// reports false only when there is no candidate at all.
func ResolveTotal(c Candidates, cfg Config) (Totals, bool) {
	pool := c.Pool()
	if len(pool) == 0 {
		return Totals{}, false
	}
	for _, s := range totalStrategies {
		if t, ok := s.resolve(pool, cfg); ok {
			t.Source = s.source
			return t, true
		}
	}
	return Totals{}, false
}

func hintedMax(pool []Candidate, cfg Config) (Totals, bool) {
	total, ok := maxWhere(pool, func(c Candidate) bool { return c.TotalHinted })
	return withDerivedTax(total, ok, cfg)
}

func currencyMax(pool []Candidate, cfg Config) (Totals, bool) {
	total, ok := maxWhere(pool, func(c Candidate) bool { return c.Currency && !c.Excluded })
	return withDerivedTax(total, ok, cfg)
}

// globalMax is the last resort: excluded lines count too.
func globalMax(pool []Candidate, cfg Config) (Totals, bool) {
	total, ok := maxWhere(pool, func(Candidate) bool { return true })
	return withDerivedTax(total, ok, cfg)
}

// taxRatio recovers a total from a legible tax line: the pair whose total is
// closest to tax * divisor, if close enough. Ties keep the earliest pair.
func taxRatio(pool []Candidate, cfg Config) (Totals, bool) {
	if cfg.TaxDivisor <= 0 {
		return Totals{}, false
	}
	var best Totals
	bestDiff := int64(-1)
	for i, tax := range pool {
		if !tax.TaxHinted || tax.Value > math.MaxInt64/cfg.TaxDivisor {
			continue
		}
		expected := tax.Value * cfg.TaxDivisor
		for j, total := range pool {
			if i == j {
				continue
			}
			diff := total.Value - expected
			if diff < 0 {
				diff = -diff
			}
			if !cfg.pairAccepted(diff, total.Value) {
				continue
			}
			if bestDiff < 0 || diff < bestDiff {
				best = Totals{Total: total.Value, Tax: tax.Value}
				bestDiff = diff
			}
		}
	}
	return best, bestDiff >= 0
}

func maxWhere(pool []Candidate, keep func(Candidate) bool) (int64, bool) {
	var best int64
	found := false
	for _, c := range pool {
		if !keep(c) {
			continue
		}
		if !found || c.Value > best {
			best = c.Value
			found = true
		}
	}
	return best, found
}

func withDerivedTax(total int64, ok bool, cfg Config) (Totals, bool) {
	if !ok {
		return Totals{}, false
	}
	return Totals{Total: total, Tax: cfg.DeriveTax(total)}, true
}
