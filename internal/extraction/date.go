package extraction

import (
	"fmt"
	"regexp"
	"strconv"
)

// A two-digit day may run straight into a time ("2025/09/1214:30" once
// spacing is normalized); a one-digit day must end at a word boundary.
var (
	fullYearDate  = regexp.MustCompile(`(?m)(?:^|[^\d])(\d{4})\s*[/\-.年]\s*(\d{1,2})\s*[/\-.月]\s*(\d{2}|\d\b)`)
	shortYearDate = regexp.MustCompile(`(?m)(?:^|[^\d])(\d{2})\s*[/\-.年]\s*(\d{1,2})\s*[/\-.月]\s*(\d{2}|\d\b)`)

	timeOfDay = regexp.MustCompile(`\d{1,2}:\d{2}(?::\d{2})?`)
)

// ResolveDate returns the transaction date as YYYY/MM/DD, or "" when the
// text holds no date. Four-digit years are tried before two-digit ones.
// The Extractor passes folded text, where a one-digit day is still
// separated from a following time.
func ResolveDate(text string) string {
	if d := firstDate(fullYearDate, text, ""); d != "" {
		return d
	}
	return firstDate(shortYearDate, text, "20")
}

func firstDate(re *regexp.Regexp, text, century string) string {
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if month, day, ok := validMonthDay(m[2], m[3]); ok {
			return fmt.Sprintf("%s%s/%02d/%02d", century, m[1], month, day)
		}
	}
	return ""
}

// dateSpans returns the byte ranges of valid dates and times of day in a
// line so the scanner does not read a year or a clock as an amount.
func dateSpans(line string) [][2]int {
	var spans [][2]int
	for _, m := range timeOfDay.FindAllStringIndex(line, -1) {
		spans = append(spans, [2]int{m[0], m[1]})
	}
	for _, re := range []*regexp.Regexp{fullYearDate, shortYearDate} {
		for _, m := range re.FindAllStringSubmatchIndex(line, -1) {
			if _, _, ok := validMonthDay(line[m[4]:m[5]], line[m[6]:m[7]]); ok {
				spans = append(spans, [2]int{m[0], m[1]})
			}
		}
	}
	return spans
}

func validMonthDay(m, d string) (int, int, bool) {
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	day, err := strconv.Atoi(d)
	if err != nil || day < 1 || day > 31 {
		return 0, 0, false
	}
	return month, day, true
}
