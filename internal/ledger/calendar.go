package ledger

import (
	"fmt"
	"time"
)

// Day is one cell of the month calendar
type Day struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Day   int    `json:"day"`
	Off   bool   `json:"off"` // belongs to the previous or next month
	Sum   int64  `json:"sum"`
	Count int    `json:"count"`
}

// MonthView is a Sunday-first calendar of one month with per-day totals
type MonthView struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Weeks [][]Day `json:"weeks"`
	Total int64   `json:"total"` // days of the month itself only
}

// MonthView builds the calendar for year/month. Weeks are padded with the
// neighbouring months' days, which carry their own sums but do not count
// toward the month total.
func (s *Service) MonthView(year int, month time.Month) (*MonthView, error) {
	if month < time.January || month > time.December || year < 1 || year > 9999 {
		return nil, fmt.Errorf("%w: %04d-%02d", ErrInvalidDate, year, int(month))
	}

	start, end := calendarBounds(year, month)
	records, err := s.db.ListRecordsInRange(start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("listing records for %04d-%02d: %w", year, int(month), err)
	}
	return buildMonthView(year, month, records), nil
}

// calendarBounds returns the Sunday on or before the 1st and the Saturday
// on or after the last day
func calendarBounds(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))
	return start, end
}

func buildMonthView(year int, month time.Month, records []*Record) *MonthView {
	type tally struct {
		sum   int64
		count int
	}
	byDate := make(map[string]tally)
	for _, r := range records {
		t := byDate[r.Date]
		t.sum += r.Amount
		t.count++
		byDate[r.Date] = t
	}

	view := &MonthView{Year: year, Month: int(month)}
	start, end := calendarBounds(year, month)

	var week []Day
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format(dateLayout)
		t := byDate[date]
		day := Day{
			Date:  date,
			Day:   d.Day(),
			Off:   d.Month() != month,
			Sum:   t.sum,
			Count: t.count,
		}
		if !day.Off {
			view.Total += day.Sum
		}

		week = append(week, day)
		if len(week) == 7 {
			view.Weeks = append(view.Weeks, week)
			week = nil
		}
	}
	return view
}
