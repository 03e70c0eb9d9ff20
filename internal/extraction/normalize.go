// Package extraction recovers the fields of a fuel receipt from noisy OCR
// text. Every function in it is pure; an Extractor may be shared between
// goroutines.
package extraction

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	circledDigits = strings.NewReplacer(
		"①", "1", "②", "2", "③", "3",
		"④", "4", "⑤", "5", "⑥", "6",
		"⑦", "7", "⑧", "8", "⑨", "9",
	)
	lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

	// Horizontal only: line breaks carry the receipt's row structure.
	spaceBeforeDigit = regexp.MustCompile(`[ \t\f\v]+(\d)`)
	// An @-price directly before the whitespace, e.g. "@165" in
	// "@165 6,600円". Matched against the text from the last "@".
	atPrice = regexp.MustCompile(`^@\s*[¥\\]?\d+(?:\.\d+)?$`)
)

// Normalize canonicalizes raw OCR text. Full-width forms fold to half-width,
// circled digits become ASCII digits and whitespace directly in front of a
// digit is dropped ("1 234" becomes "1234"), except for the single space
// after an @-price. Normalize is idempotent.
func Normalize(text string) string {
	return joinDigits(fold(text))
}

// fold applies the character-level canonicalization only; spacing is kept.
func fold(text string) string {
	if text == "" {
		return ""
	}
	text = circledDigits.Replace(text)
	text = norm.NFKC.String(text)
	return lineBreaks.Replace(text)
}

func joinDigits(text string) string {
	matches := spaceBeforeDigit.FindAllStringIndex(text, -1)
	if matches == nil {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m[0]])
		if i := strings.LastIndexByte(text[:m[0]], '@'); i >= 0 && atPrice.MatchString(text[i:m[0]]) {
			b.WriteByte(' ')
		}
		last = m[1] - 1 // keep the digit
	}
	b.WriteString(text[last:])
	return b.String()
}
