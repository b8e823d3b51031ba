package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthKeyLayout formats a calendar month as used in projections.
const MonthKeyLayout = "2006-01"

// CalculateInstallmentAmount splits a total evenly across a number of parts.
// Formula: Total / Parts, rounded to 2 decimal places
func CalculateInstallmentAmount(total decimal.Decimal, parts int) decimal.Decimal {
	if parts <= 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(parts))).Round(2)
}

// AddMonths moves t forward by n calendar months keeping the time of day.
// When the target month is shorter, the day is clamped to its last day
// (Jan 31 + 1 month = Feb 28/29) instead of overflowing into the next month.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	first := time.Date(year, month+time.Month(n), 1, hour, minute, sec, t.Nanosecond(), t.Location())
	if last := DaysInMonth(first); day > last {
		day = last
	}

	return time.Date(first.Year(), first.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

// DaysInMonth returns the number of days of the month t falls in
func DaysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// MonthStart returns midnight of the first day of t's month, in t's location
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthRange returns the half-open interval [start, end) of t's month
func MonthRange(t time.Time) (time.Time, time.Time) {
	start := MonthStart(t)
	return start, start.AddDate(0, 1, 0)
}

// InMonth reports whether t falls inside the month starting at monthStart
func InMonth(t, monthStart time.Time) bool {
	start, end := MonthRange(monthStart)
	t = t.In(start.Location())
	return !t.Before(start) && t.Before(end)
}

// IsDateOverdue checks if a due date is strictly before the reference instant
func IsDateOverdue(dueDate, now time.Time) bool {
	return dueDate.Before(now)
}
