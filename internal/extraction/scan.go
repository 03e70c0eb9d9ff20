package extraction

import (
	"regexp"
	"strconv"
	"strings"
)

// numberPattern is a digit run that may carry the separators OCR produces
// for thousands grouping: comma, period, middle dots, apostrophes, hyphen.
const numberPattern = `\d(?:[\d,.・·'’‘\-]*\d)?`

var (
	// Group 1 is a ¥-prefixed reading ("\" is how OCR often sees ¥), group 2
	// an 円-suffixed one.
	currencyNumber = regexp.MustCompile(`[¥\\]\s*(` + numberPattern + `)|(` + numberPattern + `)\s*円`)
	bareNumber     = regexp.MustCompile(numberPattern)

	totalKeywords     = regexp.MustCompile(`(?i)合計|総計|お支払|支払金額|お買上|ご請求|現計|total|amount\s*due|payment`)
	taxKeywords       = regexp.MustCompile(`(?i)税(?:[^込]|$)|小計|subtotal|tax|vat`)
	referenceKeywords = regexp.MustCompile(`(?i)\btel|電話|番号|\bno\.|伝票|レジ|phone|\bref`)

	// A number followed by one of these is a volume or a unit price.
	measureSuffix = regexp.MustCompile(`^\s*(?:円\s*)?/\s*(?:L|l|リットル)|^\s*(?:L|l|リットル)(?:[^A-Za-z]|$)`)
	decimalShape  = regexp.MustCompile(`^\d+\.\d{1,2}$`)
)

// Candidate is one numeric reading that may be the receipt total.
type Candidate struct {
	Value       int64
	Line        string
	LineIndex   int
	Currency    bool // marked by ¥ or 円
	TotalHinted bool // line carries a total keyword and no exclusion keyword
	TaxHinted   bool // line carries a tax or subtotal keyword
	Excluded    bool // line carries an exclusion keyword (tax, subtotal, phone, reference)
}

// Candidates is the scanner output. All keeps every reading regardless of
// the plausible range so the resolver can fall back to it.
type Candidates struct {
	InRange []Candidate
	All     []Candidate
}

// Pool returns the readings the resolver works on: the in-range ones, or all
// of them when none is in range.
func (c Candidates) Pool() []Candidate {
	if len(c.InRange) > 0 {
		return c.InRange
	}
	return c.All
}

type lineHints struct {
	total, tax, excluded bool
}

func hintsFor(line string) lineHints {
	tax := taxKeywords.MatchString(line)
	excluded := tax || referenceKeywords.MatchString(line)
	return lineHints{
		total:    !excluded && totalKeywords.MatchString(line),
		tax:      tax,
		excluded: excluded,
	}
}

// Scan extracts every amount-looking number from normalized text, line by
// line and in source order.
func Scan(text string, cfg Config) Candidates {
	var out Candidates
	index := 0
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		for _, c := range scanLine(line, index) {
			out.All = append(out.All, c)
			if cfg.inRange(c.Value) {
				out.InRange = append(out.InRange, c)
			}
		}
		index++
	}
	return out
}

func scanLine(line string, index int) []Candidate {
	hints := hintsFor(line)
	newCandidate := func(value int64, currency bool) Candidate {
		return Candidate{
			Value:       value,
			Line:        line,
			LineIndex:   index,
			Currency:    currency,
			TotalHinted: hints.total,
			TaxHinted:   hints.tax,
			Excluded:    hints.excluded,
		}
	}

	var out []Candidate
	taken := dateSpans(line)
	for _, m := range currencyNumber.FindAllStringSubmatchIndex(line, -1) {
		start, end := m[2], m[3]
		if start < 0 {
			start, end = m[4], m[5]
		}
		if overlaps(taken, start, end) {
			continue
		}
		taken = append(taken, [2]int{start, end})
		if isMeasureToken(line, start, end) {
			continue
		}
		if v, ok := parseValue(line[start:end]); ok {
			out = append(out, newCandidate(v, true))
		}
	}

	for _, m := range bareNumber.FindAllStringIndex(line, -1) {
		start, end := m[0], m[1]
		if overlaps(taken, start, end) || isMeasureToken(line, start, end) {
			continue
		}
		token := line[start:end]
		if decimalShape.MatchString(token) {
			continue
		}
		if v, ok := parseValue(token); ok {
			out = append(out, newCandidate(v, false))
		}
	}
	return out
}

func isMeasureToken(line string, start, end int) bool {
	if strings.HasSuffix(strings.TrimRight(line[:start], " \t"), "@") {
		return true
	}
	return measureSuffix.MatchString(line[end:])
}

func overlaps(spans [][2]int, start, end int) bool {
	for _, s := range spans {
		if start < s[1] && s[0] < end {
			return true
		}
	}
	return false
}

// parseValue strips separators and parses the remaining digits.
func parseValue(token string) (int64, bool) {
	digits := onlyDigits(token)
	if digits == "" || len(digits) > 18 {
		return 0, false
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
