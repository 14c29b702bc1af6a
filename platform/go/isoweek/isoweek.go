package isoweek

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DateLayout is the canonical calendar date format used across the API and storage.
const DateLayout = "2006-01-02"

var labelPattern = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// ErrMalformedLabel is returned when a week label does not match YYYY-Www or names a week the year does not have.
var ErrMalformedLabel = errors.New("malformed iso week label")

// Week identifies an ISO-8601 week.
type Week struct {
	Year int
	Week int
}

// String renders the week as "YYYY-Www".
func (w Week) String() string {
	return fmt.Sprintf("%04d-W%02d", w.Year, w.Week)
}

// Monday returns the first day of the week at 00:00 UTC.
func (w Week) Monday() time.Time {
	// January 4th always falls inside week 1.
	jan4 := time.Date(w.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	week1Monday := jan4.AddDate(0, 0, -offset)
	return week1Monday.AddDate(0, 0, (w.Week-1)*7)
}

// Days returns the seven calendar days of the week, Monday first.
func (w Week) Days() [7]time.Time {
	var days [7]time.Time
	monday := w.Monday()
	for i := range days {
		days[i] = monday.AddDate(0, 0, i)
	}
	return days
}

// Of returns the ISO week containing the given date.
func Of(date time.Time) Week {
	// Shift to the Thursday of the date's own week; its calendar year is the ISO year.
	d := Truncate(date)
	offset := (int(d.Weekday()) + 6) % 7
	thursday := d.AddDate(0, 0, 3-offset)
	return Week{Year: thursday.Year(), Week: (thursday.YearDay()-1)/7 + 1}
}

// Label returns the "YYYY-Www" label of the ISO week containing date.
func Label(date time.Time) string {
	return Of(date).String()
}

// WeeksInYear reports whether an ISO year has 52 or 53 weeks.
func WeeksInYear(year int) int {
	return Of(time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC)).Week
}

// Parse validates a "YYYY-Www" label.
func Parse(label string) (Week, error) {
	m := labelPattern.FindStringSubmatch(label)
	if m == nil {
		return Week{}, fmt.Errorf("%w: %q", ErrMalformedLabel, label)
	}

	year, _ := strconv.Atoi(m[1])
	week, _ := strconv.Atoi(m[2])
	if week < 1 || week > WeeksInYear(year) {
		return Week{}, fmt.Errorf("%w: %q has no week %d", ErrMalformedLabel, label, week)
	}

	return Week{Year: year, Week: week}, nil
}

// MondayOf returns the Monday (00:00 UTC) of the labelled week.
func MondayOf(label string) (time.Time, error) {
	w, err := Parse(label)
	if err != nil {
		return time.Time{}, err
	}
	return w.Monday(), nil
}

// Truncate drops the clock part of t, keeping its calendar date, as 00:00 UTC.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
