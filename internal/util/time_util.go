package util

import (
	"time"
)

const layout = "2006-01-02"

func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// DateOnly drops the clock component and pins the date to UTC
func DateOnly(t time.Time) time.Time {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func Today() time.Time {
	return DateOnly(time.Now())
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(layout, s)
}

func FormatDate(t time.Time) string {
	return t.Format(layout)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonthsClamped adds n calendar months to t. if t's day-of-month does
// not exist in the target month it is clamped to the month's last day,
// so Jan 31 + 1 month is Feb 28 (or 29), never Mar 2/3 like AddDate.
func AddMonthsClamped(t time.Time, n int) time.Time {
	totalMonths := int(t.Month()) - 1 + n
	year := t.Year() + totalMonths/12
	monthIndex := totalMonths % 12
	if monthIndex < 0 {
		monthIndex += 12
		year--
	}
	month := time.Month(monthIndex + 1)

	day := t.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole calendar days from start to end
func DaysBetween(start, end time.Time) int {
	return int(DateOnly(end).Sub(DateOnly(start)).Hours() / 24)
}
